package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/profilekeeper/internal/application"
	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

var testCreds = model.Credentials{Username: "me@example.com", Password: "secret"}

func newTestAuthenticator(portal *mockPortal, otp *stubOTPSource, clock *fakeClock) *application.Authenticator {
	return application.NewAuthenticator(portal, otp, application.DefaultAuthConfig(), discardLogger(), application.WithClock(clock))
}

func mfaRequired(context.Context, model.Credentials) (model.LoginResponse, error) {
	return model.LoginResponse{MFARequired: true}, nil
}

func TestAuthenticate_WithoutMFA(t *testing.T) {
	portal := &mockPortal{}
	otp := &stubOTPSource{}
	clock := newFakeClock()

	session, err := newTestAuthenticator(portal, otp, clock).Authenticate(context.Background(), testCreds)
	require.NoError(t, err)

	assert.Equal(t, "token-1", session.Token)
	assert.Equal(t, clock.Now(), session.AcquiredAt)
	assert.Equal(t, []string{"login"}, portal.Calls())
	assert.Zero(t, otp.calls)
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	portal := &mockPortal{}

	_, err := newTestAuthenticator(portal, &stubOTPSource{}, newFakeClock()).
		Authenticate(context.Background(), model.Credentials{Password: "secret"})

	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "NAUKRI_USERNAME", cfgErr.Field)
	assert.Empty(t, portal.Calls())
}

func TestAuthenticate_MFAWithOTPOnThirdPoll(t *testing.T) {
	portal := &mockPortal{loginFn: mfaRequired}
	otp := &stubOTPSource{codeOnCall: 3, code: "482913"}
	clock := newFakeClock()

	session, err := newTestAuthenticator(portal, otp, clock).Authenticate(context.Background(), testCreds)
	require.NoError(t, err)

	assert.Equal(t, "otp-token", session.Token)
	assert.Equal(t, 3, otp.calls)
	assert.Equal(t, 15*time.Second, clock.Waited())
	assert.Equal(t, []string{"482913"}, portal.verifiedCodes)
	assert.Equal(t, []string{"login", "verify"}, portal.Calls())
}

func TestAuthenticate_OTPChallengeWindowGrowsWithElapsedTime(t *testing.T) {
	portal := &mockPortal{loginFn: mfaRequired}
	otp := &stubOTPSource{codeOnCall: 2, code: "482913"}

	_, err := newTestAuthenticator(portal, otp, newFakeClock()).Authenticate(context.Background(), testCreds)
	require.NoError(t, err)

	require.Len(t, otp.challenges, 2)
	assert.Equal(t, "info@naukri.com", otp.challenges[0].Sender)
	assert.Equal(t, "Your OTP for logging in Naukri account", otp.challenges[0].Subject)
	assert.Equal(t, 65*time.Second, otp.challenges[0].Within)
	assert.Equal(t, 70*time.Second, otp.challenges[1].Within)
}

func TestAuthenticate_MFATimeout(t *testing.T) {
	portal := &mockPortal{loginFn: mfaRequired}
	otp := &stubOTPSource{}
	clock := newFakeClock()

	_, err := newTestAuthenticator(portal, otp, clock).Authenticate(context.Background(), testCreds)

	require.ErrorIs(t, err, model.ErrOTPTimeout)
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 100, otp.calls)
	assert.Equal(t, 500*time.Second, clock.Waited())
	assert.Zero(t, portal.count("verify"))
}

func TestAuthenticate_CanceledDuringOTPWait(t *testing.T) {
	portal := &mockPortal{loginFn: mfaRequired}
	otp := &stubOTPSource{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAuthenticator(portal, otp, newFakeClock()).Authenticate(ctx, testCreds)

	require.ErrorIs(t, err, context.Canceled)
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, otp.calls)
}

func TestAuthenticate_LoginRejected(t *testing.T) {
	portal := &mockPortal{loginFn: func(context.Context, model.Credentials) (model.LoginResponse, error) {
		return model.LoginResponse{}, &model.APIError{Op: "login", StatusCode: 400, Body: `{"message":"Invalid details"}`}
	}}

	_, err := newTestAuthenticator(portal, &stubOTPSource{}, newFakeClock()).Authenticate(context.Background(), testCreds)

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "login failed", authErr.Reason)
	assert.Equal(t, 400, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "Invalid details")
}

func TestAuthenticate_OTPVerificationRejected(t *testing.T) {
	portal := &mockPortal{
		loginFn: mfaRequired,
		verifyFn: func(context.Context, string, string) (model.LoginResponse, error) {
			return model.LoginResponse{}, &model.APIError{Op: "verify otp", StatusCode: 400}
		},
	}
	otp := &stubOTPSource{codeOnCall: 1, code: "111111"}

	_, err := newTestAuthenticator(portal, otp, newFakeClock()).Authenticate(context.Background(), testCreds)

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "otp verification failed", authErr.Reason)
	assert.Equal(t, 400, authErr.StatusCode)
}

func TestAuthenticate_NoSessionCookie(t *testing.T) {
	portal := &mockPortal{loginFn: func(context.Context, model.Credentials) (model.LoginResponse, error) {
		return model.LoginResponse{Cookies: []model.Cookie{{Name: "other", Value: "x"}}}, nil
	}}

	_, err := newTestAuthenticator(portal, &stubOTPSource{}, newFakeClock()).Authenticate(context.Background(), testCreds)

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "nauk_at")
	assert.False(t, errors.Is(err, model.ErrOTPTimeout))
}
