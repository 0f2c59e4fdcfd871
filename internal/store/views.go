package store

import (
	"context"
	"database/sql"
	"fmt"

	"hoersaal/internal/domain"
)

// CreateView inserts a materialization view and returns its id. An
// empty format falls back to the default layout before validation.
func (s *Store) CreateView(ctx context.Context, v domain.View) (int64, error) {
	if v.Format == "" {
		v.Format = domain.DefaultFormat
	}
	if err := v.Validate(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO views (name, format, base, escape, charset)
		VALUES (?, ?, ?, ?, ?)
	`, v.Name, v.Format, v.Base, int(v.Escape), int(v.Charset))
	if err != nil {
		return 0, fmt.Errorf("failed to insert view %s: %w", v.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get view id: %w", err)
	}
	return id, nil
}

// View retrieves one view by id.
func (s *Store) View(ctx context.Context, id int64) (domain.View, error) {
	var v domain.View
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, format, base, escape, charset FROM views WHERE id = ?
	`, id).Scan(&v.ID, &v.Name, &v.Format, &v.Base, &v.Escape, &v.Charset)
	if err == sql.ErrNoRows {
		return domain.View{}, fmt.Errorf("%w: view %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.View{}, fmt.Errorf("failed to find view %d: %w", id, err)
	}
	return v, nil
}

// Views returns all stored views ordered by name.
func (s *Store) Views(ctx context.Context) ([]domain.View, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, format, base, escape, charset FROM views ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer rows.Close()

	var out []domain.View
	for rows.Next() {
		var v domain.View
		if err := rows.Scan(&v.ID, &v.Name, &v.Format, &v.Base, &v.Escape, &v.Charset); err != nil {
			return nil, fmt.Errorf("failed to scan view row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteView removes a view and its checkouts in one transaction.
func (s *Store) DeleteView(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM checkouts WHERE view = ?`, id); err != nil {
			return fmt.Errorf("failed to delete checkouts of view %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM views WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete view %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read delete result for view %d: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: view %d", domain.ErrNotFound, id)
		}
		return nil
	})
}

// Checkout records that the view has materialized the file. Both sides
// must exist. Recording the same pair again is a no-op, so callers can
// re-run materialization freely.
func (s *Store) Checkout(ctx context.Context, viewID int64, fileID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM views WHERE id = ?`, viewID).Scan(&one)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: view %d does not exist", domain.ErrReferential, viewID)
		}
		if err != nil {
			return fmt.Errorf("failed to check view %d: %w", viewID, err)
		}

		err = tx.QueryRowContext(ctx, `SELECT 1 FROM files WHERE id = ?`, fileID).Scan(&one)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: file %s does not exist", domain.ErrReferential, fileID)
		}
		if err != nil {
			return fmt.Errorf("failed to check file %s: %w", fileID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO checkouts (view, file) VALUES (?, ?)
		`, viewID, fileID)
		if err != nil {
			return fmt.Errorf("failed to record checkout %d/%s: %w", viewID, fileID, err)
		}
		return nil
	})
}

// Checkouts returns the ids of the files the view has materialized,
// sorted for stable output. A view with no checkouts, or no view at
// all, yields an empty list.
func (s *Store) Checkouts(ctx context.Context, viewID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file FROM checkouts WHERE view = ? ORDER BY file
	`, viewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkouts of view %d: %w", viewID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan checkout row: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ResetCheckouts forgets everything the view has materialized, forcing
// a full re-materialization on its next pass.
func (s *Store) ResetCheckouts(ctx context.Context, viewID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkouts WHERE view = ?`, viewID); err != nil {
		return fmt.Errorf("failed to reset checkouts of view %d: %w", viewID, err)
	}
	return nil
}
