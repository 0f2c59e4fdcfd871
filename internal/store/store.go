// Package store persists the local mirror of a campus course portal in
// a single SQLite file: semesters, courses, folder trees, file metadata,
// materialization views and their checkouts. All compound writes run in
// one transaction on a single connection, so concurrent callers queue
// instead of observing partial state.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"hoersaal/internal/domain"
)

// ErrSchemaVersion reports a cache file written by an incompatible
// build. Deleting the cache and syncing again is the supported recovery.
var ErrSchemaVersion = errors.New("unsupported cache schema version")

// Store wraps the SQLite connection holding the mirror cache.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// FileDSN builds the connection string for a cache file at path,
// enabling WAL journaling and a busy timeout for the sqlite driver.
func FileDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

// Open connects to the cache at dsn, creating the schema on first use.
// A fresh cache is bootstrapped with one view named "default". Pass a
// nil logger to silence the store.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection makes writers queue instead of failing with
	// SQLITE_BUSY, and gives derived reads a stable snapshot.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != 0 && version != schemaVersion {
		return fmt.Errorf("%w: cache has version %d, this build supports %d", ErrSchemaVersion, version, schemaVersion)
	}
	if version == schemaVersion {
		return nil
	}

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}

	var views int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM views").Scan(&views); err != nil {
		return fmt.Errorf("failed to count views: %w", err)
	}
	if views == 0 {
		_, err := s.db.Exec(`
			INSERT INTO views (name, format, base, escape, charset)
			VALUES (?, ?, ?, ?, ?)
		`, "default", domain.DefaultFormat, "default", int(domain.EscapeSimilar), int(domain.CharsetUnicode))
		if err != nil {
			return fmt.Errorf("failed to create default view: %w", err)
		}
	}
	s.log.Info("cache initialized", zap.Int("schema_version", schemaVersion))
	return nil
}

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx. Row
// helpers take it so they run the same inside and outside transactions.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a write transaction, committing on success and
// rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// readTx runs fn on a transaction that is rolled back afterwards. Reads
// that assemble multiple tables use it to see one consistent state.
func (s *Store) readTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	return fn(tx)
}
