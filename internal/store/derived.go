package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"hoersaal/internal/domain"
	"hoersaal/internal/tree"
)

// Snapshot loads all tables into one in-memory snapshot inside a single
// transaction. Derived computations over it see a consistent state no
// matter what writers do afterwards.
func (s *Store) Snapshot(ctx context.Context) (*tree.Snapshot, error) {
	snap := tree.NewSnapshot()
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		if snap.Semesters, err = loadSemesters(ctx, tx); err != nil {
			return err
		}
		if snap.Courses, err = loadCourses(ctx, tx); err != nil {
			return err
		}
		if snap.Folders, err = loadFolders(ctx, tx); err != nil {
			return err
		}
		snap.Files, err = loadFiles(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ResolvePath returns the folder names on the way from the tree root
// down to the folder, the unnamed root excluded. The root itself
// resolves to an empty path.
func (s *Store) ResolvePath(ctx context.Context, folderID int64) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	chains, err := tree.Paths(snap)
	if err != nil {
		return nil, err
	}
	chain, ok := chains[folderID]
	if !ok {
		return nil, fmt.Errorf("%w: folder %d", domain.ErrNotFound, folderID)
	}
	return chain.Names, nil
}

// ResolvePathSerialized is ResolvePath rendered in the stable bracketed
// string form.
func (s *Store) ResolvePathSerialized(ctx context.Context, folderID int64) (string, error) {
	names, err := s.ResolvePath(ctx, folderID)
	if err != nil {
		return "", err
	}
	return tree.SerializePath(names), nil
}

// FileDetail returns the denormalized record for one file, or nil when
// the file is missing or its folder chain reaches no course. Joins are
// strict, so a broken link produces absence rather than a partial row.
func (s *Store) FileDetail(ctx context.Context, fileID string) (*domain.FileDetail, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	details, err := tree.Details(snap)
	if err != nil {
		return nil, err
	}
	d, ok := details[fileID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// FileDetails returns the denormalized records of all joinable files.
// With modes given, only files of courses in one of those sync modes
// are returned. Sorted by course, folder path and name.
func (s *Store) FileDetails(ctx context.Context, modes ...domain.SyncMode) ([]domain.FileDetail, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	details, err := tree.Details(snap)
	if err != nil {
		return nil, err
	}

	wanted := make(map[domain.SyncMode]bool, len(modes))
	for _, m := range modes {
		wanted[m] = true
	}

	out := make([]domain.FileDetail, 0, len(details))
	for _, d := range details {
		if len(wanted) > 0 && !wanted[d.Sync] {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CourseName != b.CourseName {
			return a.CourseName < b.CourseName
		}
		ap, bp := tree.SerializePath(a.Path), tree.SerializePath(b.Path)
		if ap != bp {
			return ap < bp
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return out, nil
}

// MaxRemoteTime returns the latest remote modification time of any file
// in the folder's subtree. The second value is false when no file lives
// there, which callers read as "nothing to compare against, sync it".
func (s *Store) MaxRemoteTime(ctx context.Context, folderID int64) (time.Time, bool, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	times, err := tree.MaxTimes(snap)
	if err != nil {
		return time.Time{}, false, err
	}
	t, ok := times[folderID]
	return t, ok, nil
}
