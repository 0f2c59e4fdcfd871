// Package tree computes the derived views of a mirror cache: resolved
// folder paths, denormalized file details and per-subtree modification
// times. All computations run on an immutable Snapshot loaded from one
// read transaction, so results are consistent even while writers queue.
package tree

import "hoersaal/internal/domain"

// Snapshot is a point-in-time copy of the relational tables the derived
// computations read. Maps are keyed by primary key.
type Snapshot struct {
	Semesters map[string]domain.Semester
	Courses   map[string]domain.Course
	Folders   map[int64]domain.Folder
	Files     map[string]domain.File
}

// NewSnapshot returns an empty snapshot with all maps allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Semesters: make(map[string]domain.Semester),
		Courses:   make(map[string]domain.Course),
		Folders:   make(map[int64]domain.Folder),
		Files:     make(map[string]domain.File),
	}
}

// courseByRoot maps each course root folder id to the owning course id.
func (s *Snapshot) courseByRoot() map[int64]string {
	byRoot := make(map[int64]string, len(s.Courses))
	for id, c := range s.Courses {
		byRoot[c.Root] = id
	}
	return byRoot
}
