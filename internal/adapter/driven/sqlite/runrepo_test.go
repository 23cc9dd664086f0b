package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

func makeRun(action model.ActionKind, status model.RunStatus, started time.Time) model.ActionRun {
	return model.ActionRun{
		ID:         uuid.New(),
		Action:     action,
		Trigger:    model.TriggerSchedule,
		Status:     status,
		Message:    "done",
		Attempts:   1,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
}

func TestRunRepo_RecordAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	ist := time.FixedZone("IST", 5*3600+1800)
	run := makeRun(model.ActionReuploadResume, model.RunStatusSuccess, time.Date(2026, 10, 15, 9, 2, 31, 500, ist))
	require.NoError(t, repo.Record(ctx, run))

	runs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.ActionReuploadResume, got.Action)
	assert.Equal(t, model.TriggerSchedule, got.Trigger)
	assert.Equal(t, model.RunStatusSuccess, got.Status)
	assert.Equal(t, "done", got.Message)
	assert.Equal(t, 1, got.Attempts)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, 3*time.Second, got.Duration())
}

func TestRunRepo_ListNewestFirstWithLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 10, 15, 3, 30, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, repo.Record(ctx, makeRun(model.ActionUpdateSkills, model.RunStatusSuccess, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.True(t, runs[0].StartedAt.Equal(base.Add(4*time.Hour)))
	assert.True(t, runs[2].StartedAt.Equal(base.Add(2*time.Hour)))
}

func TestRunRepo_ListEmpty(t *testing.T) {
	db := setupTestDB(t)

	runs, err := NewRunRepo(db).ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestRunRepo_DuplicateID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	run := makeRun(model.ActionUpdateSkills, model.RunStatusFailed, time.Now())
	require.NoError(t, repo.Record(ctx, run))
	assert.Error(t, repo.Record(ctx, run))
}

func TestNewDB_FileBackedWithMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "journal.db")
	ctx := context.Background()

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))
	require.NoError(t, RunMigrations(db.Writer), "second run is a no-op")
	assert.Equal(t, path, db.Path())

	repo := NewRunRepo(db)
	require.NoError(t, repo.Record(ctx, makeRun(model.ActionUpdateSkills, model.RunStatusSuccess, time.Now())))

	runs, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestJournalDSN(t *testing.T) {
	assert.Equal(t,
		"file:/data/runs.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=cache_size(-16000)",
		journalDSN("/data/runs.db", "journal_mode(WAL)"),
	)
	assert.Equal(t,
		"file:mem?mode=memory&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=cache_size(-16000)",
		journalDSN("mem?mode=memory"),
	)
}

func TestNewDB_UnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := NewDB(context.Background(), filepath.Join(blocker, "journal.db"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create journal directory")
}
