package application

import (
	"sync"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActionLock = (*LocalActionLock)(nil)

// LocalActionLock is an in-process ActionLock.
type LocalActionLock struct {
	mu   sync.Mutex
	held map[model.ActionKind]bool
}

// NewLocalActionLock creates an empty lock table.
func NewLocalActionLock() *LocalActionLock {
	return &LocalActionLock{held: make(map[model.ActionKind]bool)}
}

// TryAcquire marks action as running or fails with model.ErrActionInProgress.
func (l *LocalActionLock) TryAcquire(action model.ActionKind) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[action] {
		return nil, model.ErrActionInProgress
	}
	l.held[action] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, action)
			l.mu.Unlock()
		})
	}, nil
}

// ChainLocks acquires every lock in order and releases them in reverse.
// A failure releases whatever was already held.
func ChainLocks(locks ...driven.ActionLock) driven.ActionLock {
	return lockChain(locks)
}

type lockChain []driven.ActionLock

func (c lockChain) TryAcquire(action model.ActionKind) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, l := range c {
		release, err := l.TryAcquire(action)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
