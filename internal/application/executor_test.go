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

type executorFixture struct {
	portal   *mockPortal
	resume   *mockResumeSource
	runs     *mockRunStore
	clock    *fakeClock
	executor *application.ProfileExecutor
}

func newExecutorFixture(portal *mockPortal) *executorFixture {
	f := &executorFixture{
		portal: portal,
		resume: &mockResumeSource{artifact: model.ResumeArtifact{FileName: "resume.pdf", Content: []byte("%PDF-1.7")}},
		runs:   &mockRunStore{},
		clock:  newFakeClock(),
	}
	auth := newTestAuthenticator(portal, &stubOTPSource{}, f.clock)
	f.executor = application.NewProfileExecutor(
		portal,
		auth,
		application.NewSessionStore(),
		testCreds,
		f.resume,
		f.runs,
		nil,
		application.DefaultExecutorConfig(),
		discardLogger(),
		application.WithClock(f.clock),
	)
	return f
}

func unauthorized(op string) error {
	return &model.APIError{Op: op, StatusCode: 401}
}

func TestUpdateSkills_AddsMissingSkill(t *testing.T) {
	f := newExecutorFixture(&mockPortal{})

	result, err := f.executor.UpdateSkills(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Succeeded())
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, "Java,SQL,Bootstrap", result.Skills)
	assert.Equal(t, `Skill "Bootstrap" added`, result.Message)
	assert.Equal(t, []string{"Java,SQL,Bootstrap"}, f.portal.updatedSkills)
	assert.Equal(t, []string{"login", "profile", "update"}, f.portal.Calls())
}

func TestUpdateSkills_RemovesPresentSkill(t *testing.T) {
	f := newExecutorFixture(&mockPortal{profileFn: func(context.Context, string) (model.Profile, error) {
		return model.Profile{ProfileID: "profile-1", KeySkills: "Java,Bootstrap,SQL"}, nil
	}})

	result, err := f.executor.UpdateSkills(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Java,SQL", result.Skills)
	assert.Equal(t, `Skill "Bootstrap" removed`, result.Message)
}

func TestUpdateSkills_ReusesSessionAcrossRuns(t *testing.T) {
	f := newExecutorFixture(&mockPortal{})

	_, err := f.executor.UpdateSkills(context.Background())
	require.NoError(t, err)
	_, err = f.executor.UpdateSkills(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.portal.logins)
}

func TestUpdateSkills_RetriesAfterExpiredSession(t *testing.T) {
	calls := 0
	f := newExecutorFixture(&mockPortal{profileFn: func(_ context.Context, token string) (model.Profile, error) {
		calls++
		if calls == 1 {
			return model.Profile{}, unauthorized("fetch profile")
		}
		return model.Profile{ProfileID: "profile-1", KeySkills: "Java"}, nil
	}})

	result, err := f.executor.UpdateSkills(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 2, f.portal.logins)
	assert.Equal(t, []string{"token-1", "token-2", "token-2"}, f.portal.tokens)
}

func TestUpdateSkills_GivesUpAfterMaxAuthRetries(t *testing.T) {
	f := newExecutorFixture(&mockPortal{profileFn: func(context.Context, string) (model.Profile, error) {
		return model.Profile{}, unauthorized("fetch profile")
	}})

	result, err := f.executor.UpdateSkills(context.Background())

	require.ErrorIs(t, err, model.ErrAuthorizationExpired)
	assert.False(t, result.Succeeded())
	assert.Equal(t, 4, result.Attempts)
	assert.Equal(t, 4, f.portal.logins)
	assert.Equal(t, 4, f.portal.count("profile"))
	assert.Zero(t, f.portal.count("update"))
}

func TestUpdateSkills_UnauthorizedUpdateIsRetried(t *testing.T) {
	updates := 0
	f := newExecutorFixture(&mockPortal{updateFn: func(context.Context, string, string, string) (bool, error) {
		updates++
		if updates == 1 {
			return false, unauthorized("update skills")
		}
		return true, nil
	}})

	result, err := f.executor.UpdateSkills(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 2, f.portal.count("profile"))
}

func TestUpdateSkills_LoginFailureIsNotRetried(t *testing.T) {
	f := newExecutorFixture(&mockPortal{loginFn: func(context.Context, model.Credentials) (model.LoginResponse, error) {
		return model.LoginResponse{}, unauthorized("login")
	}})

	result, err := f.executor.UpdateSkills(context.Background())

	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, f.portal.logins)
}

func TestUpdateSkills_ProfileWithoutID(t *testing.T) {
	f := newExecutorFixture(&mockPortal{profileFn: func(context.Context, string) (model.Profile, error) {
		return model.Profile{KeySkills: "Java"}, nil
	}})

	_, err := f.executor.UpdateSkills(context.Background())

	require.ErrorIs(t, err, model.ErrProfileResolution)
	assert.Equal(t, 1, f.portal.logins)
	assert.Zero(t, f.portal.count("update"))
}

func TestUpdateSkills_RejectedUpdate(t *testing.T) {
	tests := []struct {
		name     string
		updateFn func(context.Context, string, string, string) (bool, error)
	}{
		{
			name: "response without profile",
			updateFn: func(context.Context, string, string, string) (bool, error) {
				return false, nil
			},
		},
		{
			name: "upstream error",
			updateFn: func(context.Context, string, string, string) (bool, error) {
				return false, &model.APIError{Op: "update skills", StatusCode: 500}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExecutorFixture(&mockPortal{updateFn: tt.updateFn})

			result, err := f.executor.UpdateSkills(context.Background())

			var actionErr *model.ActionError
			require.ErrorAs(t, err, &actionErr)
			assert.Equal(t, model.ActionUpdateSkills, actionErr.Action)
			assert.Equal(t, model.RunStatusFailed, result.Status)
			assert.Equal(t, 1, f.portal.count("update"))
		})
	}
}

func TestReuploadResume_Success(t *testing.T) {
	var uploaded model.ResumeArtifact
	f := newExecutorFixture(&mockPortal{uploadFn: func(_ context.Context, _, profileID string, r model.ResumeArtifact) error {
		assert.Equal(t, "profile-1", profileID)
		uploaded = r
		return nil
	}})

	result, err := f.executor.ReuploadResume(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Resume reuploaded successfully", result.Message)
	assert.Equal(t, []string{"login", "profile", "delete", "upload", "attach"}, f.portal.Calls())
	assert.Equal(t, "resume.pdf", uploaded.FileName)
	assert.Equal(t, 3*time.Second, f.clock.Waited())
}

func TestReuploadResume_UsesCachedProfile(t *testing.T) {
	f := newExecutorFixture(&mockPortal{})

	_, err := f.executor.ReuploadResume(context.Background())
	require.NoError(t, err)
	_, err = f.executor.ReuploadResume(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.portal.count("profile"))
	assert.Equal(t, 2, f.portal.count("attach"))
}

func TestReuploadResume_UploadFailureSkipsAttach(t *testing.T) {
	f := newExecutorFixture(&mockPortal{uploadFn: func(context.Context, string, string, model.ResumeArtifact) error {
		return &model.APIError{Op: "upload resume", StatusCode: 500}
	}})

	result, err := f.executor.ReuploadResume(context.Background())

	require.Error(t, err)
	assert.False(t, result.Succeeded())
	assert.Zero(t, f.portal.count("attach"))
}

func TestReuploadResume_AttachWithoutStatus(t *testing.T) {
	f := newExecutorFixture(&mockPortal{attachFn: func(context.Context, string, string) (bool, error) {
		return false, nil
	}})

	_, err := f.executor.ReuploadResume(context.Background())

	var actionErr *model.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, model.ActionReuploadResume, actionErr.Action)
}

func TestReuploadResume_MissingFileLeavesPortalUntouched(t *testing.T) {
	f := newExecutorFixture(&mockPortal{})
	f.resume.err = errors.New("open resume.pdf: no such file or directory")

	_, err := f.executor.ReuploadResume(context.Background())

	require.Error(t, err)
	assert.Zero(t, f.portal.count("delete"))
}

func TestRun_JournalsOutcome(t *testing.T) {
	f := newExecutorFixture(&mockPortal{})

	result, err := f.executor.Run(context.Background(), model.ActionUpdateSkills, model.TriggerHTTP)
	require.NoError(t, err)
	assert.True(t, result.Succeeded())

	require.Len(t, f.runs.runs, 1)
	run := f.runs.runs[0]
	assert.NotEmpty(t, run.ID.String())
	assert.Equal(t, model.ActionUpdateSkills, run.Action)
	assert.Equal(t, model.TriggerHTTP, run.Trigger)
	assert.Equal(t, model.RunStatusSuccess, run.Status)
	assert.Equal(t, 1, run.Attempts)
}

func TestRun_JournalsFailure(t *testing.T) {
	f := newExecutorFixture(&mockPortal{attachFn: func(context.Context, string, string) (bool, error) {
		return false, nil
	}})
	f.runs.err = errors.New("disk full")

	_, err := f.executor.Run(context.Background(), model.ActionReuploadResume, model.TriggerSchedule)
	require.Error(t, err)

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, model.RunStatusFailed, f.runs.runs[0].Status)
	assert.Contains(t, f.runs.runs[0].Message, "reupload-resume")
}

func TestRun_UnknownAction(t *testing.T) {
	f := newExecutorFixture(&mockPortal{})

	_, err := f.executor.Run(context.Background(), model.ActionKind("delete-account"), model.TriggerCLI)

	require.Error(t, err)
	assert.Empty(t, f.portal.Calls())
}

func TestRun_RejectsConcurrentSameAction(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	f := newExecutorFixture(&mockPortal{profileFn: func(context.Context, string) (model.Profile, error) {
		close(entered)
		<-proceed
		return model.Profile{ProfileID: "profile-1", KeySkills: "Java"}, nil
	}})

	done := make(chan error, 1)
	go func() {
		_, err := f.executor.Run(context.Background(), model.ActionUpdateSkills, model.TriggerSchedule)
		done <- err
	}()
	<-entered

	_, err := f.executor.Run(context.Background(), model.ActionUpdateSkills, model.TriggerHTTP)
	require.ErrorIs(t, err, model.ErrActionInProgress)

	close(proceed)
	require.NoError(t, <-done)
}
