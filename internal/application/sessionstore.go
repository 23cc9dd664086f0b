package application

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

// SessionStore holds the current portal session and the profile handle
// resolved under it. Sessions are replaced wholesale, never mutated, so a
// handle can always be checked against the token it belongs to.
type SessionStore struct {
	mu      sync.RWMutex
	session model.Session
	profile *model.ProfileHandle
	logins  singleflight.Group
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Session returns the current session, if any.
func (s *SessionStore) Session() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.session.Valid()
}

// Replace installs a new session and drops the profile handle bound to the
// previous one.
func (s *SessionStore) Replace(session model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.profile = nil
}

// Invalidate clears the session if token is still current. It reports whether
// anything was cleared; a false result means another caller already replaced it.
func (s *SessionStore) Invalidate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Token != token {
		return false
	}
	s.session = model.Session{}
	s.profile = nil
	return true
}

// Profile returns the handle resolved under token.
func (s *SessionStore) Profile(token string) (model.ProfileHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil || s.session.Token != token {
		return model.ProfileHandle{}, false
	}
	return *s.profile, true
}

// SetProfile caches handle for token. Handles for a stale token are dropped.
func (s *SessionStore) SetProfile(token string, handle model.ProfileHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Token != token {
		return
	}
	s.profile = &handle
}

// Acquire returns the current session, logging in when there is none.
// Concurrent callers share one login; the last successful login wins.
func (s *SessionStore) Acquire(ctx context.Context, login func(context.Context) (model.Session, error)) (model.Session, error) {
	if session, ok := s.Session(); ok {
		return session, nil
	}

	v, err, _ := s.logins.Do("login", func() (any, error) {
		if session, ok := s.Session(); ok {
			return session, nil
		}
		session, err := login(ctx)
		if err != nil {
			return nil, err
		}
		s.Replace(session)
		return session, nil
	})
	if err != nil {
		return model.Session{}, err
	}
	return v.(model.Session), nil
}
