package driven

import (
	"context"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

// RunStore defines the driven port for the action run journal.
type RunStore interface {
	Record(ctx context.Context, run model.ActionRun) error
	// ListRecent returns at most limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.ActionRun, error)
}
