// Package filelock implements a cross-process ActionLock with advisory file
// locks, so a one-shot CLI run cannot overlap with a running server.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActionLock = (*Lock)(nil)

// Lock holds one lock file per action kind under dir.
type Lock struct {
	dir string
}

// New creates dir if needed and returns a Lock rooted there.
func New(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	return &Lock{dir: dir}, nil
}

// Path returns the lock file used for action.
func (l *Lock) Path(action model.ActionKind) string {
	return filepath.Join(l.dir, string(action)+".lock")
}

// TryAcquire takes the action's file lock without blocking. A lock held by
// any other process or handle yields model.ErrActionInProgress.
func (l *Lock) TryAcquire(action model.ActionKind) (func(), error) {
	fl := flock.New(l.Path(action))

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", action, err)
	}
	if !locked {
		return nil, model.ErrActionInProgress
	}

	return func() { _ = fl.Unlock() }, nil
}
