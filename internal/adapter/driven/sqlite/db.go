package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// journalPragmas apply to every journal connection. The run journal has a
// single table with no references, so foreign_keys is left at the driver
// default, and a 16MB page cache covers years of runs.
var journalPragmas = []string{
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"cache_size(-16000)",
}

// DB is the run journal database. Writes go through Writer, a single
// connection, so concurrent action runs queue instead of failing with
// SQLITE_BUSY; ListRecent reads through the small Reader pool.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens the journal at dbPath in WAL mode, creating the parent
// directory when it does not exist yet.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory %s: %w", dir, err)
		}
	}

	db, err := openPair(ctx, journalDSN(dbPath, "journal_mode(WAL)"))
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", dbPath, err)
	}
	db.path = dbPath
	return db, nil
}

// journalDSN builds a modernc DSN for target with the journal pragmas plus
// any extra ones. target may already carry URI parameters.
func journalDSN(target string, extra ...string) string {
	var b strings.Builder
	b.WriteString("file:")
	b.WriteString(target)
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	for _, p := range append(extra, journalPragmas...) {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// openPair opens and pings the writer and reader handles on dsn.
func openPair(ctx context.Context, dsn string) (*DB, error) {
	writer, err := openPinged(ctx, dsn, 1)
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}
	reader, err := openPinged(ctx, dsn, 4)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("reader: %w", err)
	}
	return &DB{Writer: writer, Reader: reader, path: dsn}, nil
}

func openPinged(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(maxConns)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Path returns the journal file name.
func (db *DB) Path() string {
	return db.path
}

// Close closes the reader pool, then the writer, and reports the first failure.
func (db *DB) Close() error {
	readErr := db.Reader.Close()
	writeErr := db.Writer.Close()
	switch {
	case readErr != nil:
		return fmt.Errorf("close journal reader: %w", readErr)
	case writeErr != nil:
		return fmt.Errorf("close journal writer: %w", writeErr)
	}
	return nil
}
