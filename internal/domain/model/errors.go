package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	// ErrAuthorizationExpired marks a portal 401: the session token is no
	// longer accepted and a fresh login may fix the call.
	ErrAuthorizationExpired = errors.New("authorization expired")

	// ErrOTPTimeout marks an MFA challenge whose code never arrived.
	ErrOTPTimeout = errors.New("otp timeout")

	// ErrProfileResolution marks a profile document without a profile id.
	ErrProfileResolution = errors.New("unable to resolve profile id")

	// ErrActionInProgress is returned when the same action is already running.
	ErrActionInProgress = errors.New("action already in progress")
)

// ConfigError reports a missing or invalid setting. It fails the invocation
// that needed the setting, not the process.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("config: %s is not set", e.Field)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// AuthError reports a failed login, MFA challenge, or OTP verification.
// StatusCode and Body carry the upstream response when there was one.
type AuthError struct {
	Reason     string
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	msg := "auth: " + e.Reason
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// ActionError reports a business call the portal rejected or answered with an
// unexpected shape.
type ActionError struct {
	Action ActionKind
	Reason string
	Err    error
}

func (e *ActionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Action, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ActionError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the job portal.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrAuthorizationExpired) match a 401.
func (e *APIError) Is(target error) bool {
	return target == ErrAuthorizationExpired && e.StatusCode == http.StatusUnauthorized
}

// IsAuthorizationExpired reports whether err stems from a portal 401.
func IsAuthorizationExpired(err error) bool {
	return errors.Is(err, ErrAuthorizationExpired)
}
