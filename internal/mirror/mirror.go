// Package mirror reconciles the local cache with a snapshot of the
// remote portal state. It owns no network code: a fetcher collaborator
// assembles the Snapshot, Apply makes the cache match it through the
// store's transactional operations and reports what changed.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hoersaal/internal/domain"
	"hoersaal/internal/store"
)

// Snapshot is the remote state to reconcile against: the full term
// list, the full course listing and the file listings of the courses
// the fetcher chose to enumerate.
type Snapshot struct {
	Semesters []domain.Semester
	Courses   []Course
	Files     []File
}

// Course describes one remote course offering. Sync is only the mode
// for newly created courses; an existing course keeps whatever mode was
// chosen locally.
type Course struct {
	ID         string
	Semester   string
	Number     string
	Name       string
	Abbrev     string
	Type       string
	TypeAbbrev string
	Sync       domain.SyncMode
}

// File describes one remote file with its folder path below the course
// root.
type File struct {
	ID          string
	CourseID    string
	Path        []string
	Name        string
	Extension   string
	Author      string
	Description string
	RemoteDate  time.Time
	Copyrighted bool
}

// Stats counts what one Apply pass changed.
type Stats struct {
	CoursesAdded   int
	CoursesUpdated int
	CoursesRemoved int
	CoursesSkipped int
	FilesAdded     int
	FilesUpdated   int
	FilesRemoved   int
	Errors         int
	Pruned         store.PruneStats
}

// Mirror applies remote snapshots to a store.
type Mirror struct {
	store *store.Store
	log   *zap.Logger
}

// New returns a Mirror writing through st. Pass a nil logger to keep it
// quiet.
func New(st *store.Store, log *zap.Logger) *Mirror {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mirror{store: st, log: log}
}

// NeedsSync reports whether a course has remote changes worth fetching:
// true when the newest remote date is ahead of the newest date stored
// anywhere under the course root, or when nothing is stored yet.
// Disabled courses never need syncing.
func (m *Mirror) NeedsSync(ctx context.Context, courseID string, latestRemote time.Time) (bool, error) {
	c, err := m.store.Course(ctx, courseID)
	if err != nil {
		return false, err
	}
	if c.Sync == domain.SyncDisabled {
		return false, nil
	}
	stored, ok, err := m.store.MaxRemoteTime(ctx, c.Root)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return latestRemote.After(stored), nil
}

// Apply reconciles the cache with the remote snapshot: terms are
// upserted, courses added, updated and removed, then each course's
// files are brought in line and orphaned trees pruned. Every compound
// step is atomic on its own; a failing item is logged and counted, and
// reconciliation moves on, the way an interrupted sync would be
// finished by the next run.
func (m *Mirror) Apply(ctx context.Context, remote Snapshot) (Stats, error) {
	var stats Stats

	if err := m.store.UpsertSemesters(ctx, remote.Semesters); err != nil {
		return stats, fmt.Errorf("failed to upsert semesters: %w", err)
	}

	existing, err := m.store.Courses(ctx)
	if err != nil {
		return stats, err
	}
	existingByID := make(map[string]domain.Course, len(existing))
	for _, c := range existing {
		existingByID[c.ID] = c
	}

	// effective holds the post-reconcile course rows, keyed by id, for
	// the file pass below. Courses that failed to apply are absent.
	effective := make(map[string]domain.Course, len(remote.Courses))
	remoteCourseIDs := make(map[string]bool, len(remote.Courses))

	for _, rc := range remote.Courses {
		remoteCourseIDs[rc.ID] = true
		prev, ok := existingByID[rc.ID]
		if !ok {
			course := domain.Course{
				ID:         rc.ID,
				Semester:   rc.Semester,
				Number:     rc.Number,
				Name:       rc.Name,
				Abbrev:     rc.Abbrev,
				Type:       rc.Type,
				TypeAbbrev: rc.TypeAbbrev,
				Sync:       rc.Sync,
			}
			if err := m.store.CreateCourse(ctx, course); err != nil {
				m.log.Warn("failed to add course", zap.String("course", rc.ID), zap.Error(err))
				stats.Errors++
				continue
			}
			created, err := m.store.Course(ctx, rc.ID)
			if err != nil {
				return stats, err
			}
			effective[rc.ID] = created
			stats.CoursesAdded++
			m.log.Info("course added", zap.String("course", rc.ID), zap.String("name", rc.Name))
			continue
		}

		next := prev
		next.Number = rc.Number
		next.Name = rc.Name
		next.Abbrev = rc.Abbrev
		next.Type = rc.Type
		next.TypeAbbrev = rc.TypeAbbrev
		if next != prev {
			if err := m.store.UpdateCourse(ctx, next); err != nil {
				m.log.Warn("failed to update course", zap.String("course", rc.ID), zap.Error(err))
				stats.Errors++
				effective[rc.ID] = prev
				continue
			}
			stats.CoursesUpdated++
			m.log.Info("course updated", zap.String("course", rc.ID), zap.String("name", rc.Name))
		}
		effective[rc.ID] = next
	}

	// Courses the portal no longer lists are dropped; their trees stay
	// until the prune below.
	for id := range existingByID {
		if remoteCourseIDs[id] {
			continue
		}
		if err := m.store.DeleteCourse(ctx, id); err != nil {
			m.log.Warn("failed to remove course", zap.String("course", id), zap.Error(err))
			stats.Errors++
			continue
		}
		stats.CoursesRemoved++
		m.log.Info("course removed", zap.String("course", id))
	}

	if err := m.applyFiles(ctx, remote, effective, &stats); err != nil {
		return stats, err
	}

	stats.Pruned, err = m.store.PruneOrphans(ctx)
	if err != nil {
		return stats, err
	}

	m.log.Info("reconciliation complete",
		zap.Int("courses_added", stats.CoursesAdded),
		zap.Int("courses_updated", stats.CoursesUpdated),
		zap.Int("courses_removed", stats.CoursesRemoved),
		zap.Int("courses_skipped", stats.CoursesSkipped),
		zap.Int("files_added", stats.FilesAdded),
		zap.Int("files_updated", stats.FilesUpdated),
		zap.Int("files_removed", stats.FilesRemoved),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}

func (m *Mirror) applyFiles(ctx context.Context, remote Snapshot, effective map[string]domain.Course, stats *Stats) error {
	details, err := m.store.FileDetails(ctx)
	if err != nil {
		return err
	}
	detailByID := make(map[string]domain.FileDetail, len(details))
	detailsByCourse := make(map[string][]domain.FileDetail)
	for _, d := range details {
		detailByID[d.ID] = d
		detailsByCourse[d.CourseID] = append(detailsByCourse[d.CourseID], d)
	}

	remoteFileIDs := make(map[string]bool, len(remote.Files))
	filesByCourse := make(map[string][]File)
	for _, rf := range remote.Files {
		remoteFileIDs[rf.ID] = true
		filesByCourse[rf.CourseID] = append(filesByCourse[rf.CourseID], rf)
	}

	skipped := make(map[string]bool)
	for id, c := range effective {
		if c.Sync == domain.SyncDisabled {
			skipped[id] = true
			stats.CoursesSkipped++
			m.log.Debug("course disabled, files untouched", zap.String("course", id))
		}
	}

	for courseID, files := range filesByCourse {
		if skipped[courseID] {
			continue
		}
		if _, ok := effective[courseID]; !ok {
			m.log.Warn("course not applied, skipping its files", zap.String("course", courseID), zap.Int("files", len(files)))
			stats.Errors += len(files)
			continue
		}
		for _, rf := range files {
			if err := m.applyFile(ctx, courseID, rf, detailByID, stats); err != nil {
				m.log.Warn("failed to apply file", zap.String("file", rf.ID), zap.Error(err))
				stats.Errors++
			}
		}
	}

	// Files of a still-listed course that its remote listing no longer
	// contains are gone remotely. A file seen under another course was
	// moved, not removed, and has been handled above.
	for courseID, ds := range detailsByCourse {
		if skipped[courseID] {
			continue
		}
		if _, ok := effective[courseID]; !ok {
			continue
		}
		for _, d := range ds {
			if remoteFileIDs[d.ID] {
				continue
			}
			if err := m.store.DeleteFile(ctx, d.ID); err != nil {
				m.log.Warn("failed to remove file", zap.String("file", d.ID), zap.Error(err))
				stats.Errors++
				continue
			}
			stats.FilesRemoved++
			m.log.Info("file removed", zap.String("file", d.ID), zap.String("name", d.Name))
		}
	}
	return nil
}

func (m *Mirror) applyFile(ctx context.Context, courseID string, rf File, detailByID map[string]domain.FileDetail, stats *Stats) error {
	prev, exists := detailByID[rf.ID]
	if exists && fileUnchanged(prev, rf, courseID) {
		return nil
	}

	folder, err := m.store.EnsureFolderPath(ctx, courseID, rf.Path)
	if err != nil {
		return err
	}
	next := domain.File{
		ID:          rf.ID,
		Folder:      folder,
		Name:        rf.Name,
		Extension:   rf.Extension,
		Author:      rf.Author,
		Description: rf.Description,
		RemoteDate:  rf.RemoteDate,
		Copyrighted: rf.Copyrighted,
	}

	if !exists {
		err := m.store.CreateFile(ctx, next)
		if err == nil {
			stats.FilesAdded++
			m.log.Info("file added", zap.String("file", rf.ID), zap.String("name", rf.Name))
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		// The row exists but was unjoinable, typically left in an
		// orphaned tree by a course that has reappeared. Move it
		// into the rebuilt tree instead.
	}

	if err := m.store.UpdateFile(ctx, next); err != nil {
		return err
	}
	stats.FilesUpdated++
	m.log.Info("file updated", zap.String("file", rf.ID), zap.String("name", rf.Name))
	return nil
}

func fileUnchanged(prev domain.FileDetail, rf File, courseID string) bool {
	return prev.CourseID == courseID &&
		prev.Name == rf.Name &&
		prev.Extension == rf.Extension &&
		prev.Author == rf.Author &&
		prev.Description == rf.Description &&
		prev.Copyrighted == rf.Copyrighted &&
		prev.RemoteDate.Equal(rf.RemoteDate) &&
		samePath(prev.Path, rf.Path)
}

func samePath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
