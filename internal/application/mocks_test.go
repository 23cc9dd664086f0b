package application_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Fake clock ---

// fakeClock advances instantly on every After call and records the total
// simulated wait.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	waited time.Duration
	waits  int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.waited += d
	c.waits++
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) Waited() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waited
}

// --- Mock job portal ---

type mockPortal struct {
	mu sync.Mutex

	loginFn   func(ctx context.Context, creds model.Credentials) (model.LoginResponse, error)
	verifyFn  func(ctx context.Context, username, code string) (model.LoginResponse, error)
	profileFn func(ctx context.Context, token string) (model.Profile, error)
	updateFn  func(ctx context.Context, token, profileID, skills string) (bool, error)
	deleteFn  func(ctx context.Context, token, profileID string) error
	uploadFn  func(ctx context.Context, token, profileID string, resume model.ResumeArtifact) error
	attachFn  func(ctx context.Context, token, profileID string) (bool, error)

	calls         []string
	logins        int
	verifiedCodes []string
	updatedSkills []string
	tokens        []string
}

func (m *mockPortal) record(call, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	if token != "" {
		m.tokens = append(m.tokens, token)
	}
}

func (m *mockPortal) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockPortal) count(call string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockPortal) Login(ctx context.Context, creds model.Credentials) (model.LoginResponse, error) {
	m.mu.Lock()
	m.logins++
	n := m.logins
	m.mu.Unlock()
	m.record("login", "")

	if m.loginFn != nil {
		return m.loginFn(ctx, creds)
	}
	return model.LoginResponse{Cookies: []model.Cookie{{Name: "nauk_at", Value: fmt.Sprintf("token-%d", n)}}}, nil
}

func (m *mockPortal) VerifyOTP(ctx context.Context, username, code string) (model.LoginResponse, error) {
	m.mu.Lock()
	m.verifiedCodes = append(m.verifiedCodes, code)
	m.mu.Unlock()
	m.record("verify", "")

	if m.verifyFn != nil {
		return m.verifyFn(ctx, username, code)
	}
	return model.LoginResponse{Cookies: []model.Cookie{{Name: "nauk_at", Value: "otp-token"}}}, nil
}

func (m *mockPortal) FetchProfile(ctx context.Context, token string) (model.Profile, error) {
	m.record("profile", token)
	if m.profileFn != nil {
		return m.profileFn(ctx, token)
	}
	return model.Profile{ProfileID: "profile-1", KeySkills: "Java,SQL"}, nil
}

func (m *mockPortal) UpdateSkills(ctx context.Context, token, profileID, skills string) (bool, error) {
	m.mu.Lock()
	m.updatedSkills = append(m.updatedSkills, skills)
	m.mu.Unlock()
	m.record("update", token)

	if m.updateFn != nil {
		return m.updateFn(ctx, token, profileID, skills)
	}
	return true, nil
}

func (m *mockPortal) DeleteResume(ctx context.Context, token, profileID string) error {
	m.record("delete", token)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token, profileID)
	}
	return nil
}

func (m *mockPortal) UploadResume(ctx context.Context, token, profileID string, resume model.ResumeArtifact) error {
	m.record("upload", token)
	if m.uploadFn != nil {
		return m.uploadFn(ctx, token, profileID, resume)
	}
	return nil
}

func (m *mockPortal) AttachResume(ctx context.Context, token, profileID string) (bool, error) {
	m.record("attach", token)
	if m.attachFn != nil {
		return m.attachFn(ctx, token, profileID)
	}
	return true, nil
}

// --- Stub OTP source ---

type stubOTPSource struct {
	mu         sync.Mutex
	codeOnCall int // 0 never yields a code.
	code       string
	calls      int
	challenges []model.OTPChallenge
}

func (s *stubOTPSource) FetchOTP(_ context.Context, challenge model.OTPChallenge) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.challenges = append(s.challenges, challenge)
	if s.codeOnCall != 0 && s.calls >= s.codeOnCall {
		return s.code, true
	}
	return "", false
}

// --- Mock mailbox ---

type mockMailbox struct {
	summaries []model.MailSummary
	message   model.MailMessage
	listErr   error
	getErr    error

	queries []model.MailQuery
	maxes   []int
	gets    []string
}

func (m *mockMailbox) ListMessages(_ context.Context, q model.MailQuery, max int) ([]model.MailSummary, error) {
	m.queries = append(m.queries, q)
	m.maxes = append(m.maxes, max)
	return m.summaries, m.listErr
}

func (m *mockMailbox) GetMessage(_ context.Context, id string) (model.MailMessage, error) {
	m.gets = append(m.gets, id)
	return m.message, m.getErr
}

// --- Mock resume source ---

type mockResumeSource struct {
	artifact model.ResumeArtifact
	err      error
}

func (m *mockResumeSource) Load(_ context.Context) (model.ResumeArtifact, error) {
	return m.artifact, m.err
}

// --- Mock run store ---

type mockRunStore struct {
	mu   sync.Mutex
	runs []model.ActionRun
	err  error
}

func (m *mockRunStore) Record(_ context.Context, run model.ActionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

func (m *mockRunStore) ListRecent(_ context.Context, _ int) ([]model.ActionRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs, m.err
}

// --- Mock runner ---

type mockRunner struct {
	mu       sync.Mutex
	result   model.ActionResult
	err      error
	actions  []model.ActionKind
	triggers []model.Trigger
}

func (m *mockRunner) Run(_ context.Context, action model.ActionKind, trigger model.Trigger) (model.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
	m.triggers = append(m.triggers, trigger)
	return m.result, m.err
}
