package driven

import (
	"context"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

// JobPortal defines the driven port for the job portal's login, profile, and
// resume endpoints. A 401 from any token-bearing call must satisfy
// errors.Is(err, model.ErrAuthorizationExpired).
type JobPortal interface {
	// Login submits credentials. An MFA challenge is reported through
	// LoginResponse.MFARequired, not as an error.
	Login(ctx context.Context, creds model.Credentials) (model.LoginResponse, error)
	// VerifyOTP submits the emailed code for the given username.
	VerifyOTP(ctx context.Context, username, code string) (model.LoginResponse, error)

	FetchProfile(ctx context.Context, token string) (model.Profile, error)
	// UpdateSkills writes keySkills and reports whether the portal echoed a
	// profile object back.
	UpdateSkills(ctx context.Context, token, profileID, skills string) (bool, error)

	DeleteResume(ctx context.Context, token, profileID string) error
	UploadResume(ctx context.Context, token, profileID string, resume model.ResumeArtifact) error
	// AttachResume binds the uploaded file to the profile and reports the
	// portal's status flag.
	AttachResume(ctx context.Context, token, profileID string) (bool, error)
}
