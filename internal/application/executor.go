package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// SessionAuthenticator produces a fresh portal session.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, creds model.Credentials) (model.Session, error)
}

// ExecutorConfig tunes the profile actions.
type ExecutorConfig struct {
	// Skill is the tag flipped by UpdateSkills.
	Skill string
	// MaxAuthRetries bounds re-authentications after a 401 within one run.
	MaxAuthRetries int
	// ResumeSettleDelay separates resume deletion from the upload so the
	// portal's backend has dropped the old file.
	ResumeSettleDelay time.Duration
	// ResumeAttachDelay separates the upload from attaching it.
	ResumeAttachDelay time.Duration
}

// DefaultExecutorConfig returns the production settings.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Skill:             "Bootstrap",
		MaxAuthRetries:    3,
		ResumeSettleDelay: 2 * time.Second,
		ResumeAttachDelay: 1 * time.Second,
	}
}

// ProfileExecutor runs the portal maintenance actions against an
// authenticated session, re-authenticating when the portal rejects the token.
type ProfileExecutor struct {
	portal driven.JobPortal
	auth   SessionAuthenticator
	store  *SessionStore
	creds  model.Credentials
	resume driven.ResumeSource
	runs   driven.RunStore
	lock   driven.ActionLock
	cfg    ExecutorConfig
	clock  Clock
	logger *slog.Logger
}

// NewProfileExecutor creates a ProfileExecutor. runs may be nil to disable the
// run journal; lock may be nil to use an in-process lock.
func NewProfileExecutor(
	portal driven.JobPortal,
	auth SessionAuthenticator,
	store *SessionStore,
	creds model.Credentials,
	resume driven.ResumeSource,
	runs driven.RunStore,
	lock driven.ActionLock,
	cfg ExecutorConfig,
	logger *slog.Logger,
	opts ...Option,
) *ProfileExecutor {
	o := buildOptions(opts)
	if lock == nil {
		lock = NewLocalActionLock()
	}
	return &ProfileExecutor{
		portal: portal,
		auth:   auth,
		store:  store,
		creds:  creds,
		resume: resume,
		runs:   runs,
		lock:   lock,
		cfg:    cfg,
		clock:  o.clock,
		logger: logger,
	}
}

// Run executes action at most once at a time and journals the outcome.
func (e *ProfileExecutor) Run(ctx context.Context, action model.ActionKind, trigger model.Trigger) (model.ActionResult, error) {
	release, err := e.lock.TryAcquire(action)
	if err != nil {
		e.logger.Warn("action skipped", "action", action, "trigger", trigger, "error", err)
		return failedResult(action, 0, err), err
	}
	defer release()

	started := e.clock.Now()
	e.logger.Info("action started", "action", action, "trigger", trigger)

	var result model.ActionResult
	switch action {
	case model.ActionUpdateSkills:
		result, err = e.UpdateSkills(ctx)
	case model.ActionReuploadResume:
		result, err = e.ReuploadResume(ctx)
	default:
		err = fmt.Errorf("unknown action %q", action)
		result = failedResult(action, 0, err)
	}

	finished := e.clock.Now()
	if err != nil {
		e.logger.Error("action failed", "action", action, "trigger", trigger, "attempts", result.Attempts, "error", err)
	} else {
		e.logger.Info("action completed",
			"action", action,
			"trigger", trigger,
			"attempts", result.Attempts,
			"duration", finished.Sub(started).Round(time.Millisecond),
		)
	}

	e.record(ctx, model.ActionRun{
		ID:         uuid.New(),
		Action:     action,
		Trigger:    trigger,
		Status:     result.Status,
		Message:    result.Message,
		Attempts:   result.Attempts,
		StartedAt:  started,
		FinishedAt: finished,
	})

	return result, err
}

// UpdateSkills flips the configured skill on the profile.
func (e *ProfileExecutor) UpdateSkills(ctx context.Context) (model.ActionResult, error) {
	return e.withSession(ctx, model.ActionUpdateSkills, e.toggleSkill)
}

// ReuploadResume replaces the portal-held resume with the local file.
func (e *ProfileExecutor) ReuploadResume(ctx context.Context) (model.ActionResult, error) {
	return e.withSession(ctx, model.ActionReuploadResume, e.reuploadResume)
}

// actionStep is one attempt of an action under an established session.
type actionStep func(ctx context.Context, session model.Session) (model.ActionResult, error)

// withSession runs step, restarting it from login and profile resolution each
// time the portal answers 401, up to MaxAuthRetries times.
func (e *ProfileExecutor) withSession(ctx context.Context, action model.ActionKind, step actionStep) (model.ActionResult, error) {
	for attempt := 1; ; attempt++ {
		result, err := e.attempt(ctx, step)
		if err == nil {
			result.Action = action
			result.Status = model.RunStatusSuccess
			result.Attempts = attempt
			return result, nil
		}

		if !retryable(err) || attempt > e.cfg.MaxAuthRetries {
			return failedResult(action, attempt, err), err
		}

		e.logger.Warn("session token rejected, re-authenticating",
			"action", action,
			"attempt", attempt,
			"max_retries", e.cfg.MaxAuthRetries,
		)
	}
}

func (e *ProfileExecutor) attempt(ctx context.Context, step actionStep) (model.ActionResult, error) {
	session, err := e.store.Acquire(ctx, e.login)
	if err != nil {
		return model.ActionResult{}, err
	}

	result, err := step(ctx, session)
	if model.IsAuthorizationExpired(err) {
		e.store.Invalidate(session.Token)
	}
	return result, err
}

func (e *ProfileExecutor) login(ctx context.Context) (model.Session, error) {
	e.logger.Info("no portal session, logging in")
	return e.auth.Authenticate(ctx, e.creds)
}

// retryable reports whether a fresh login may fix err. Login failures are
// never retried, even when the login endpoint itself answered 401.
func retryable(err error) bool {
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		return false
	}
	return model.IsAuthorizationExpired(err)
}

func (e *ProfileExecutor) toggleSkill(ctx context.Context, session model.Session) (model.ActionResult, error) {
	const action = model.ActionUpdateSkills

	profile, err := e.portal.FetchProfile(ctx, session.Token)
	if err != nil {
		return model.ActionResult{}, fmt.Errorf("fetch profile: %w", err)
	}
	handle, err := e.bindProfile(session, profile)
	if err != nil {
		return model.ActionResult{}, err
	}
	if profile.KeySkills == "" {
		return model.ActionResult{}, &model.ActionError{Action: action, Reason: "profile has no key skills"}
	}

	updated := model.ToggleSkill(profile.KeySkills, e.cfg.Skill)
	ok, err := e.portal.UpdateSkills(ctx, session.Token, handle.ProfileID, updated)
	if err != nil {
		return model.ActionResult{}, &model.ActionError{Action: action, Reason: "update skills", Err: err}
	}
	if !ok {
		return model.ActionResult{}, &model.ActionError{Action: action, Reason: "portal response has no profile"}
	}

	verb := "removed"
	if model.HasSkill(updated, e.cfg.Skill) {
		verb = "added"
	}
	e.logger.Info("skills updated", "skill", e.cfg.Skill, "change", verb)

	return model.ActionResult{
		Message: fmt.Sprintf("Skill %q %s", e.cfg.Skill, verb),
		Skills:  updated,
	}, nil
}

func (e *ProfileExecutor) reuploadResume(ctx context.Context, session model.Session) (model.ActionResult, error) {
	const action = model.ActionReuploadResume

	// Load before touching the portal so a missing file never leaves the
	// profile without a resume.
	artifact, err := e.resume.Load(ctx)
	if err != nil {
		return model.ActionResult{}, &model.ActionError{Action: action, Reason: "load resume", Err: err}
	}

	handle, err := e.resolveProfile(ctx, session)
	if err != nil {
		return model.ActionResult{}, err
	}

	if err := e.portal.DeleteResume(ctx, session.Token, handle.ProfileID); err != nil {
		return model.ActionResult{}, &model.ActionError{Action: action, Reason: "delete resume", Err: err}
	}
	if err := sleep(ctx, e.clock, e.cfg.ResumeSettleDelay); err != nil {
		return model.ActionResult{}, err
	}

	if err := e.portal.UploadResume(ctx, session.Token, handle.ProfileID, artifact); err != nil {
		return model.ActionResult{}, &model.ActionError{Action: action, Reason: "upload resume", Err: err}
	}
	if err := sleep(ctx, e.clock, e.cfg.ResumeAttachDelay); err != nil {
		return model.ActionResult{}, err
	}

	ok, err := e.portal.AttachResume(ctx, session.Token, handle.ProfileID)
	if err != nil {
		return model.ActionResult{}, &model.ActionError{Action: action, Reason: "attach resume", Err: err}
	}
	if !ok {
		return model.ActionResult{}, &model.ActionError{Action: action, Reason: "portal did not confirm resume attach"}
	}

	e.logger.Info("resume reuploaded", "file", artifact.FileName, "bytes", len(artifact.Content))
	return model.ActionResult{Message: "Resume reuploaded successfully"}, nil
}

// resolveProfile returns the handle cached for session, fetching the profile
// when there is none.
func (e *ProfileExecutor) resolveProfile(ctx context.Context, session model.Session) (model.ProfileHandle, error) {
	if handle, ok := e.store.Profile(session.Token); ok {
		return handle, nil
	}

	profile, err := e.portal.FetchProfile(ctx, session.Token)
	if err != nil {
		return model.ProfileHandle{}, fmt.Errorf("fetch profile: %w", err)
	}
	return e.bindProfile(session, profile)
}

func (e *ProfileExecutor) bindProfile(session model.Session, profile model.Profile) (model.ProfileHandle, error) {
	if profile.ProfileID == "" {
		return model.ProfileHandle{}, model.ErrProfileResolution
	}
	handle := model.ProfileHandle{ProfileID: profile.ProfileID}
	e.store.SetProfile(session.Token, handle)
	e.logger.Debug("profile resolved", "profile_id", handle.ProfileID)
	return handle, nil
}

// record journals run without letting journal failures affect the action.
func (e *ProfileExecutor) record(ctx context.Context, run model.ActionRun) {
	if e.runs == nil {
		return
	}
	if err := e.runs.Record(context.WithoutCancel(ctx), run); err != nil {
		e.logger.Error("failed to record action run", "action", run.Action, "run_id", run.ID, "error", err)
	}
}

func failedResult(action model.ActionKind, attempts int, err error) model.ActionResult {
	return model.ActionResult{
		Action:   action,
		Status:   model.RunStatusFailed,
		Message:  err.Error(),
		Attempts: attempts,
	}
}
