package model

import (
	"time"

	"github.com/google/uuid"
)

// ActionResult is what an action reports to its caller.
type ActionResult struct {
	Action   ActionKind
	Status   RunStatus
	Message  string
	Attempts int
	// Skills holds the written skill string for update-skills runs.
	Skills string
}

// Succeeded reports whether the action completed.
func (r ActionResult) Succeeded() bool {
	return r.Status == RunStatusSuccess
}

// ActionRun is a journal entry for one execution of an action.
type ActionRun struct {
	ID         uuid.UUID
	Action     ActionKind
	Trigger    Trigger
	Status     RunStatus
	Message    string
	Attempts   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took.
func (r ActionRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
