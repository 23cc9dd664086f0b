package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// OTPSource yields a one-time code for an MFA challenge, or false when none
// has arrived yet.
type OTPSource interface {
	FetchOTP(ctx context.Context, challenge model.OTPChallenge) (string, bool)
}

// AuthConfig tunes the login flow.
type AuthConfig struct {
	// SessionCookie is the cookie carrying the session token.
	SessionCookie string
	OTPSender     string
	OTPSubject    string
	// OTPPollAttempts × OTPPollInterval bounds the wait for the OTP mail.
	OTPPollAttempts int
	OTPPollInterval time.Duration
	// OTPRecencySlack widens the mailbox window past challenge entry to absorb
	// clock skew between the portal's mailer and the mailbox provider.
	OTPRecencySlack time.Duration
}

// DefaultAuthConfig matches the portal's current login flow.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		SessionCookie:   "nauk_at",
		OTPSender:       "info@naukri.com",
		OTPSubject:      "Your OTP for logging in Naukri account",
		OTPPollAttempts: 100,
		OTPPollInterval: 5 * time.Second,
		OTPRecencySlack: 60 * time.Second,
	}
}

// Authenticator performs the portal login, including the emailed-OTP MFA
// challenge, and yields a Session.
type Authenticator struct {
	portal driven.JobPortal
	otp    OTPSource
	cfg    AuthConfig
	clock  Clock
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(portal driven.JobPortal, otp OTPSource, cfg AuthConfig, logger *slog.Logger, opts ...Option) *Authenticator {
	o := buildOptions(opts)
	return &Authenticator{
		portal: portal,
		otp:    otp,
		cfg:    cfg,
		clock:  o.clock,
		logger: logger,
	}
}

// Authenticate logs in with creds. Missing credentials yield a
// *model.ConfigError; every other failure is a *model.AuthError.
func (a *Authenticator) Authenticate(ctx context.Context, creds model.Credentials) (model.Session, error) {
	if err := creds.Validate(); err != nil {
		return model.Session{}, err
	}

	resp, err := a.portal.Login(ctx, creds)
	if err != nil {
		return model.Session{}, authFailure("login failed", err)
	}

	stage := "login"
	if resp.MFARequired {
		a.logger.Info("mfa challenge received, polling mailbox for otp",
			"sender", a.cfg.OTPSender,
			"max_attempts", a.cfg.OTPPollAttempts,
			"interval", a.cfg.OTPPollInterval,
		)

		code, err := a.awaitOTP(ctx)
		if err != nil {
			return model.Session{}, err
		}

		resp, err = a.portal.VerifyOTP(ctx, creds.Username, code)
		if err != nil {
			return model.Session{}, authFailure("otp verification failed", err)
		}
		stage = "otp verification"
	}

	token, ok := resp.CookieValue(a.cfg.SessionCookie)
	if !ok {
		return model.Session{}, &model.AuthError{
			Reason: fmt.Sprintf("%s returned no %s cookie", stage, a.cfg.SessionCookie),
		}
	}

	a.logger.Info("logged in to portal", "user", creds.Username, "via", stage)
	return model.Session{Token: token, AcquiredAt: a.clock.Now()}, nil
}

// awaitOTP polls the OTP source at a fixed interval. The recency window is
// anchored at challenge entry so mail from earlier logins is never reused.
func (a *Authenticator) awaitOTP(ctx context.Context) (string, error) {
	start := a.clock.Now()

	for attempt := 1; attempt <= a.cfg.OTPPollAttempts; attempt++ {
		a.logger.Debug("waiting for otp", "attempt", attempt, "max_attempts", a.cfg.OTPPollAttempts)

		if err := sleep(ctx, a.clock, a.cfg.OTPPollInterval); err != nil {
			return "", &model.AuthError{Reason: "otp wait aborted", Err: err}
		}

		challenge := model.OTPChallenge{
			Sender:  a.cfg.OTPSender,
			Subject: a.cfg.OTPSubject,
			Within:  a.clock.Now().Sub(start) + a.cfg.OTPRecencySlack,
		}
		if code, ok := a.otp.FetchOTP(ctx, challenge); ok {
			a.logger.Info("otp received", "attempt", attempt, "waited", a.clock.Now().Sub(start))
			return code, nil
		}
	}

	return "", &model.AuthError{
		Reason: fmt.Sprintf("no otp after %d attempts", a.cfg.OTPPollAttempts),
		Err:    model.ErrOTPTimeout,
	}
}

// authFailure wraps err in an AuthError, lifting the upstream status and
// body when the portal answered.
func authFailure(reason string, err error) *model.AuthError {
	ae := &model.AuthError{Reason: reason, Err: err}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		ae.StatusCode = apiErr.StatusCode
		ae.Body = apiErr.Body
	}
	return ae
}
