package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"hoersaal/internal/domain"
)

// UpsertSemesters inserts or replaces the given terms in a single
// transaction. Semesters already referenced by a course are left
// untouched, so ids a course depends on never change under it.
func (s *Store) UpsertSemesters(ctx context.Context, semesters []domain.Semester) error {
	for _, sem := range semesters {
		if err := sem.Validate(); err != nil {
			return err
		}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, sem := range semesters {
			var refs int
			err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM courses WHERE semester = ?
			`, sem.ID).Scan(&refs)
			if err != nil {
				return fmt.Errorf("failed to count references for semester %s: %w", sem.ID, err)
			}
			if refs > 0 {
				s.log.Debug("semester referenced, skipping upsert", zap.String("semester", sem.ID))
				continue
			}
			_, err = tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO semesters (id, name, ord)
				VALUES (?, ?, ?)
			`, sem.ID, sem.Name, sem.Order)
			if err != nil {
				return fmt.Errorf("failed to upsert semester %s: %w", sem.ID, err)
			}
		}
		return nil
	})
}

// Semesters returns all stored semesters, oldest term first.
func (s *Store) Semesters(ctx context.Context) ([]domain.Semester, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ord FROM semesters ORDER BY ord, name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list semesters: %w", err)
	}
	defer rows.Close()

	var out []domain.Semester
	for rows.Next() {
		var sem domain.Semester
		if err := rows.Scan(&sem.ID, &sem.Name, &sem.Order); err != nil {
			return nil, fmt.Errorf("failed to scan semester row: %w", err)
		}
		out = append(out, sem)
	}
	return out, rows.Err()
}

// loadSemesters reads the whole semesters table into a map keyed by id.
func loadSemesters(ctx context.Context, q dbtx) (map[string]domain.Semester, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, ord FROM semesters`)
	if err != nil {
		return nil, fmt.Errorf("failed to load semesters: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Semester)
	for rows.Next() {
		var sem domain.Semester
		if err := rows.Scan(&sem.ID, &sem.Name, &sem.Order); err != nil {
			return nil, fmt.Errorf("failed to scan semester row: %w", err)
		}
		out[sem.ID] = sem
	}
	return out, rows.Err()
}

// Semester retrieves one semester by id.
func (s *Store) Semester(ctx context.Context, id string) (domain.Semester, error) {
	var sem domain.Semester
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, ord FROM semesters WHERE id = ?
	`, id).Scan(&sem.ID, &sem.Name, &sem.Order)
	if err == sql.ErrNoRows {
		return domain.Semester{}, fmt.Errorf("%w: semester %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Semester{}, fmt.Errorf("failed to find semester %s: %w", id, err)
	}
	return sem, nil
}
