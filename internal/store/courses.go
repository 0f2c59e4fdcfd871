package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hoersaal/internal/domain"
)

// CreateCourse inserts a course. When c.Root is zero a fresh root folder
// is created in the same transaction, so a course and its tree anchor
// always appear together. A caller-supplied root must exist, have the
// root shape and not anchor another course yet. The semester must exist.
func (s *Store) CreateCourse(ctx context.Context, c domain.Course) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM semesters WHERE id = ?`, c.Semester).Scan(&one)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: semester %s does not exist", domain.ErrReferential, c.Semester)
		}
		if err != nil {
			return fmt.Errorf("failed to check semester %s: %w", c.Semester, err)
		}

		err = tx.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id = ?`, c.ID).Scan(&one)
		if err == nil {
			return fmt.Errorf("%w: course %s", domain.ErrConflict, c.ID)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check course %s: %w", c.ID, err)
		}

		root := c.Root
		if root == 0 {
			root, err = insertFolder(ctx, tx, nil, nil)
			if err != nil {
				return err
			}
		} else {
			f, err := scanFolder(ctx, tx, root)
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: root folder %d does not exist", domain.ErrReferential, root)
			}
			if err != nil {
				return err
			}
			if !f.IsRoot() {
				return fmt.Errorf("%w: folder %d is not a root", domain.ErrInvariant, root)
			}
			var claims int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses WHERE root = ?`, root).Scan(&claims); err != nil {
				return fmt.Errorf("failed to check root %d: %w", root, err)
			}
			if claims > 0 {
				return fmt.Errorf("%w: folder %d already anchors a course", domain.ErrReferential, root)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO courses (id, semester, number, name, abbrev, type, type_abbrev, sync, root)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.Semester, c.Number, c.Name, c.Abbrev, c.Type, c.TypeAbbrev, int(c.Sync), root)
		if err != nil {
			return fmt.Errorf("failed to insert course %s: %w", c.ID, err)
		}
		return nil
	})
}

// Course retrieves one course by id.
func (s *Store) Course(ctx context.Context, id string) (domain.Course, error) {
	var c domain.Course
	err := s.db.QueryRowContext(ctx, `
		SELECT id, semester, number, name, abbrev, type, type_abbrev, sync, root
		FROM courses WHERE id = ?
	`, id).Scan(&c.ID, &c.Semester, &c.Number, &c.Name, &c.Abbrev, &c.Type, &c.TypeAbbrev, &c.Sync, &c.Root)
	if err == sql.ErrNoRows {
		return domain.Course{}, fmt.Errorf("%w: course %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Course{}, fmt.Errorf("failed to find course %s: %w", id, err)
	}
	return c, nil
}

// Courses lists stored courses ordered by name. With modes given, only
// courses in one of those sync modes are returned.
func (s *Store) Courses(ctx context.Context, modes ...domain.SyncMode) ([]domain.Course, error) {
	query := `
		SELECT id, semester, number, name, abbrev, type, type_abbrev, sync, root
		FROM courses
	`
	var args []any
	if len(modes) > 0 {
		placeholders := make([]string, len(modes))
		for i, m := range modes {
			placeholders[i] = "?"
			args = append(args, int(m))
		}
		query += ` WHERE sync IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY name, type, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var out []domain.Course
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Semester, &c.Number, &c.Name, &c.Abbrev, &c.Type, &c.TypeAbbrev, &c.Sync, &c.Root); err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCourse rewrites the mutable fields of a course: number, name,
// abbreviations, type and sync mode. Semester and root are fixed at
// creation and stay as stored.
func (s *Store) UpdateCourse(ctx context.Context, c domain.Course) error {
	if !c.Sync.Valid() {
		return fmt.Errorf("%w: sync mode %d", domain.ErrInvalidEnum, c.Sync)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: course %q has no name", domain.ErrInvariant, c.ID)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE courses
		SET number = ?, name = ?, abbrev = ?, type = ?, type_abbrev = ?, sync = ?
		WHERE id = ?
	`, c.Number, c.Name, c.Abbrev, c.Type, c.TypeAbbrev, int(c.Sync), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update course %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result for course %s: %w", c.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: course %s", domain.ErrNotFound, c.ID)
	}
	return nil
}

// SetSyncMode changes just the sync mode of a course.
func (s *Store) SetSyncMode(ctx context.Context, id string, mode domain.SyncMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: sync mode %d", domain.ErrInvalidEnum, mode)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE courses SET sync = ? WHERE id = ?`, int(mode), id)
	if err != nil {
		return fmt.Errorf("failed to set sync mode for course %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result for course %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: course %s", domain.ErrNotFound, id)
	}
	return nil
}

// loadCourses reads the whole courses table into a map keyed by id.
func loadCourses(ctx context.Context, q dbtx) (map[string]domain.Course, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, semester, number, name, abbrev, type, type_abbrev, sync, root
		FROM courses
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Course)
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Semester, &c.Number, &c.Name, &c.Abbrev, &c.Type, &c.TypeAbbrev, &c.Sync, &c.Root); err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// DeleteCourse removes the course row alone. Its folder tree and files
// stay behind as orphans until PruneOrphans collects them.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result for course %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: course %s", domain.ErrNotFound, id)
	}
	return nil
}
