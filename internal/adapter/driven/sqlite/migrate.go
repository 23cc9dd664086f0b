package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var journalMigrations embed.FS

// RunMigrations brings the action_runs schema up to date on db, which must be
// the writer handle. An up-to-date schema is not an error.
func RunMigrations(db *sql.DB) error {
	src, err := iofs.New(journalMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("journal migrations: load: %w", err)
	}
	target, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("journal migrations: bind database: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", target)
	if err != nil {
		return fmt.Errorf("journal migrations: %w", err)
	}

	switch err := m.Up(); {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
		return nil
	default:
		return fmt.Errorf("journal migrations: apply: %w", err)
	}
}
