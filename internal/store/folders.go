package store

import (
	"context"
	"database/sql"
	"fmt"

	"hoersaal/internal/domain"
	"hoersaal/internal/tree"
)

// CreateFolder inserts a folder under parent and returns its id. Name
// and parent must be given together; the all-nil root shape is reserved
// for CreateRoot. The parent must exist.
func (s *Store) CreateFolder(ctx context.Context, name *string, parent *int64) (int64, error) {
	f := domain.Folder{Name: name, Parent: parent}
	if err := f.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if parent != nil {
			ok, err := folderExists(ctx, tx, *parent)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: parent folder %d does not exist", domain.ErrReferential, *parent)
			}
		}
		var err error
		id, err = insertFolder(ctx, tx, name, parent)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateRoot inserts a fresh unnamed root folder and returns its id.
// Roots are normally allocated by CreateCourse; this exists for callers
// assembling trees by hand.
func (s *Store) CreateRoot(ctx context.Context) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertFolder(ctx, tx, nil, nil)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Folder retrieves one folder by id.
func (s *Store) Folder(ctx context.Context, id int64) (domain.Folder, error) {
	return scanFolder(ctx, s.db, id)
}

// Ancestors returns the folder ids on the path from the top of the tree
// down to id, id included.
func (s *Store) Ancestors(ctx context.Context, id int64) ([]int64, error) {
	var out []int64
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		folders, err := loadFolders(ctx, tx)
		if err != nil {
			return err
		}
		out, err = tree.AncestorIDs(&tree.Snapshot{Folders: folders}, id)
		return err
	})
	return out, err
}

// Subtree returns id and every folder below it, breadth first.
func (s *Store) Subtree(ctx context.Context, id int64) ([]int64, error) {
	var out []int64
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		folders, err := loadFolders(ctx, tx)
		if err != nil {
			return err
		}
		out, err = tree.Descendants(&tree.Snapshot{Folders: folders}, id)
		return err
	})
	return out, err
}

// EnsureFolderPath walks the named path below the course's root folder,
// creating missing folders on the way, and returns the id of the final
// folder. An empty path returns the root itself. The whole walk runs in
// one transaction, so concurrent calls cannot interleave half-built
// paths.
func (s *Store) EnsureFolderPath(ctx context.Context, courseID string, path []string) (int64, error) {
	for _, segment := range path {
		if segment == "" {
			return 0, fmt.Errorf("%w: empty path segment", domain.ErrInvariant)
		}
	}
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			SELECT root FROM courses WHERE id = ?
		`, courseID).Scan(&id)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: course %s", domain.ErrNotFound, courseID)
		}
		if err != nil {
			return fmt.Errorf("failed to find course %s: %w", courseID, err)
		}

		for _, segment := range path {
			var child int64
			err := tx.QueryRowContext(ctx, `
				SELECT id FROM folders WHERE parent = ? AND name = ? ORDER BY id LIMIT 1
			`, id, segment).Scan(&child)
			switch {
			case err == sql.ErrNoRows:
				child, err = insertFolder(ctx, tx, &segment, &id)
				if err != nil {
					return err
				}
			case err != nil:
				return fmt.Errorf("failed to look up folder %q under %d: %w", segment, id, err)
			}
			id = child
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteFolder removes one folder. Folders that still have children,
// files, or serve as a course root are protected; deleting a whole
// subtree means deleting leaves first.
func (s *Store) DeleteFolder(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := folderExists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: folder %d", domain.ErrNotFound, id)
		}

		checks := []struct {
			query string
			what  string
		}{
			{`SELECT COUNT(*) FROM folders WHERE parent = ?`, "child folders"},
			{`SELECT COUNT(*) FROM files WHERE folder = ?`, "files"},
			{`SELECT COUNT(*) FROM courses WHERE root = ?`, "courses"},
		}
		for _, c := range checks {
			var n int
			if err := tx.QueryRowContext(ctx, c.query, id).Scan(&n); err != nil {
				return fmt.Errorf("failed to count %s of folder %d: %w", c.what, id, err)
			}
			if n > 0 {
				return fmt.Errorf("%w: folder %d still referenced by %d %s", domain.ErrReferential, id, n, c.what)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete folder %d: %w", id, err)
		}
		return nil
	})
}

func insertFolder(ctx context.Context, q dbtx, name *string, parent *int64) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO folders (name, parent) VALUES (?, ?)
	`, name, parent)
	if err != nil {
		return 0, fmt.Errorf("failed to insert folder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get folder id: %w", err)
	}
	return id, nil
}

func folderExists(ctx context.Context, q dbtx, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM folders WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check folder %d: %w", id, err)
	}
	return true, nil
}

func scanFolder(ctx context.Context, q dbtx, id int64) (domain.Folder, error) {
	var (
		f      domain.Folder
		name   sql.NullString
		parent sql.NullInt64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, parent FROM folders WHERE id = ?
	`, id).Scan(&f.ID, &name, &parent)
	if err == sql.ErrNoRows {
		return domain.Folder{}, fmt.Errorf("%w: folder %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Folder{}, fmt.Errorf("failed to find folder %d: %w", id, err)
	}
	if name.Valid {
		f.Name = &name.String
	}
	if parent.Valid {
		f.Parent = &parent.Int64
	}
	return f, nil
}

// loadFolders reads the whole folders table into a map keyed by id.
func loadFolders(ctx context.Context, q dbtx) (map[int64]domain.Folder, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, parent FROM folders`)
	if err != nil {
		return nil, fmt.Errorf("failed to load folders: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.Folder)
	for rows.Next() {
		var (
			f      domain.Folder
			name   sql.NullString
			parent sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &name, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan folder row: %w", err)
		}
		if name.Valid {
			n := name.String
			f.Name = &n
		}
		if parent.Valid {
			p := parent.Int64
			f.Parent = &p
		}
		out[f.ID] = f
	}
	return out, rows.Err()
}
