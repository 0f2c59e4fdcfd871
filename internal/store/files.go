package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"hoersaal/internal/domain"
	"hoersaal/internal/tree"
)

// CreateFile inserts a file into its folder. The folder must exist, the
// id must be fresh. Version starts at zero and LocalDate at NULL no
// matter what the caller passes; both are owned by the store.
func (s *Store) CreateFile(ctx context.Context, f domain.File) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := folderExists(ctx, tx, f.Folder)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: folder %d does not exist", domain.ErrReferential, f.Folder)
		}

		var one int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM files WHERE id = ?`, f.ID).Scan(&one)
		if err == nil {
			return fmt.Errorf("%w: file %s", domain.ErrConflict, f.ID)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check file %s: %w", f.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO files (id, folder, name, extension, author, description, remote_date, copyrighted, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
		`, f.ID, f.Folder, f.Name, f.Extension, f.Author, f.Description, f.RemoteDate.UTC(), f.Copyrighted)
		if err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.ID, err)
		}
		return nil
	})
}

// File retrieves one file by id.
func (s *Store) File(ctx context.Context, id string) (domain.File, error) {
	return scanFile(ctx, s.db, id)
}

// Files returns all stored files ordered by name.
func (s *Store) Files(ctx context.Context) ([]domain.File, error) {
	files, err := loadFiles(ctx, s.db)
	if err != nil {
		return nil, err
	}
	out := make([]domain.File, 0, len(files))
	for _, f := range files {
		out = append(out, f)
	}
	sortFiles(out)
	return out, nil
}

// UpdateFile rewrites a file's metadata after a remote change: folder,
// name, extension, author, description, remote date and the copyright
// flag. The version is bumped and every checkout of the file is dropped
// in the same transaction, so views re-materialize it on their next
// pass. LocalDate is left alone.
func (s *Store) UpdateFile(ctx context.Context, f domain.File) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := folderExists(ctx, tx, f.Folder)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: folder %d does not exist", domain.ErrReferential, f.Folder)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE files
			SET folder = ?, name = ?, extension = ?, author = ?, description = ?,
			    remote_date = ?, copyrighted = ?, version = version + 1
			WHERE id = ?
		`, f.Folder, f.Name, f.Extension, f.Author, f.Description, f.RemoteDate.UTC(), f.Copyrighted, f.ID)
		if err != nil {
			return fmt.Errorf("failed to update file %s: %w", f.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read update result for file %s: %w", f.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: file %s", domain.ErrNotFound, f.ID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM checkouts WHERE file = ?`, f.ID); err != nil {
			return fmt.Errorf("failed to reset checkouts for file %s: %w", f.ID, err)
		}
		return nil
	})
}

// TouchLocalDate records when the file's content was last downloaded.
func (s *Store) TouchLocalDate(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE files SET local_date = ? WHERE id = ?
	`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch local date for file %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result for file %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: file %s", domain.ErrNotFound, id)
	}
	return nil
}

// DeleteFile removes a file and its checkouts in one transaction.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM checkouts WHERE file = ?`, id); err != nil {
			return fmt.Errorf("failed to delete checkouts of file %s: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete file %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read delete result for file %s: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: file %s", domain.ErrNotFound, id)
		}
		return nil
	})
}

// PruneStats counts what one prune pass removed.
type PruneStats struct {
	Folders   int
	Files     int
	Checkouts int
}

// PruneOrphans removes every folder that is no longer reachable from a
// course root, along with the files inside and their checkouts. Course
// deletion leaves such trees behind on purpose; pruning them is a
// separate, explicit step.
func (s *Store) PruneOrphans(ctx context.Context) (PruneStats, error) {
	var stats PruneStats
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		folders, err := loadFolders(ctx, tx)
		if err != nil {
			return err
		}
		courses, err := loadCourses(ctx, tx)
		if err != nil {
			return err
		}
		reachable := tree.Reachable(&tree.Snapshot{Folders: folders, Courses: courses})

		for id := range folders {
			if reachable[id] {
				continue
			}
			res, err := tx.ExecContext(ctx, `
				DELETE FROM checkouts WHERE file IN (SELECT id FROM files WHERE folder = ?)
			`, id)
			if err != nil {
				return fmt.Errorf("failed to prune checkouts under folder %d: %w", id, err)
			}
			n, _ := res.RowsAffected()
			stats.Checkouts += int(n)

			res, err = tx.ExecContext(ctx, `DELETE FROM files WHERE folder = ?`, id)
			if err != nil {
				return fmt.Errorf("failed to prune files under folder %d: %w", id, err)
			}
			n, _ = res.RowsAffected()
			stats.Files += int(n)

			if _, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
				return fmt.Errorf("failed to prune folder %d: %w", id, err)
			}
			stats.Folders++
		}
		return nil
	})
	if err != nil {
		return PruneStats{}, err
	}
	if stats.Folders > 0 {
		s.log.Info("pruned orphans",
			zap.Int("folders", stats.Folders),
			zap.Int("files", stats.Files),
			zap.Int("checkouts", stats.Checkouts),
		)
	}
	return stats, nil
}

func scanFile(ctx context.Context, q dbtx, id string) (domain.File, error) {
	var (
		f     domain.File
		local sql.NullTime
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, folder, name, extension, author, description, remote_date, copyrighted, local_date, version
		FROM files WHERE id = ?
	`, id).Scan(&f.ID, &f.Folder, &f.Name, &f.Extension, &f.Author, &f.Description,
		&f.RemoteDate, &f.Copyrighted, &local, &f.Version)
	if err == sql.ErrNoRows {
		return domain.File{}, fmt.Errorf("%w: file %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.File{}, fmt.Errorf("failed to find file %s: %w", id, err)
	}
	if local.Valid {
		t := local.Time
		f.LocalDate = &t
	}
	return f, nil
}

// loadFiles reads the whole files table into a map keyed by id.
func loadFiles(ctx context.Context, q dbtx) (map[string]domain.File, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, folder, name, extension, author, description, remote_date, copyrighted, local_date, version
		FROM files
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.File)
	for rows.Next() {
		var (
			f     domain.File
			local sql.NullTime
		)
		if err := rows.Scan(&f.ID, &f.Folder, &f.Name, &f.Extension, &f.Author, &f.Description,
			&f.RemoteDate, &f.Copyrighted, &local, &f.Version); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		if local.Valid {
			t := local.Time
			f.LocalDate = &t
		}
		out[f.ID] = f
	}
	return out, rows.Err()
}

func sortFiles(files []domain.File) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].Name != files[j].Name {
			return files[i].Name < files[j].Name
		}
		return files[i].ID < files[j].ID
	})
}
