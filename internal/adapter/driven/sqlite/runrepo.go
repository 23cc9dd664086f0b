package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RunRepo is the SQLite implementation of the RunStore port interface.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Record inserts a finished run.
func (r *RunRepo) Record(ctx context.Context, run model.ActionRun) error {
	const query = `INSERT INTO action_runs (id, action, triggered_by, status, message, attempts, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		run.ID.String(),
		string(run.Action),
		string(run.Trigger),
		string(run.Status),
		run.Message,
		run.Attempts,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}

	return nil
}

// ListRecent returns up to limit runs, newest first.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]model.ActionRun, error) {
	const query = `SELECT id, action, triggered_by, status, message, attempts, started_at, finished_at
		FROM action_runs ORDER BY started_at DESC, id LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []model.ActionRun{}
	for rows.Next() {
		var (
			id, action, trigger, status string
			started, finished           string
			run                         model.ActionRun
		)
		if err := rows.Scan(&id, &action, &trigger, &status, &run.Message, &run.Attempts, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at for run %s: %w", id, err)
		}
		if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at for run %s: %w", id, err)
		}
		run.Action = model.ActionKind(action)
		run.Trigger = model.Trigger(trigger)
		run.Status = model.RunStatus(status)

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
