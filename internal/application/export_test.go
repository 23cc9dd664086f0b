package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

// Fire runs one scheduled firing of action synchronously.
func (s *Scheduler) Fire(ctx context.Context, action model.ActionKind) {
	s.fire(ctx, action)
}

// SetJitter replaces the random jitter source.
func (s *Scheduler) SetJitter(f func(max time.Duration) time.Duration) {
	s.jitter = f
}

var UniformJitter = uniformJitter
