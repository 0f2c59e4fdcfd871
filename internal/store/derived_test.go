package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hoersaal/internal/domain"
)

func TestResolvePathSerialized(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, root := seedCourse(t, s)

	leaf, err := s.EnsureFolderPath(ctx, courseID, []string{"Math", "HW 1"})
	require.NoError(t, err)

	got, err := s.ResolvePathSerialized(ctx, leaf)
	require.NoError(t, err)
	require.Equal(t, `["Math", "HW 1"]`, got)

	got, err = s.ResolvePathSerialized(ctx, root)
	require.NoError(t, err)
	require.Equal(t, `[]`, got)

	quoted, err := s.EnsureFolderPath(ctx, courseID, []string{`He said "hi"`})
	require.NoError(t, err)
	got, err = s.ResolvePathSerialized(ctx, quoted)
	require.NoError(t, err)
	require.Equal(t, `["He said \"hi\""]`, got)

	_, err = s.ResolvePath(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileDetailJoins(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, _ := seedCourse(t, s)
	leaf, err := s.EnsureFolderPath(ctx, courseID, []string{"Math", "HW 1"})
	require.NoError(t, err)
	require.NoError(t, s.CreateFile(ctx, domain.File{
		ID: "file1", Folder: leaf, Name: "sheet01", Extension: "pdf",
		Author: "R. Dedekind", RemoteDate: someTime(3),
	}))

	d, err := s.FileDetail(ctx, "file1")
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Equal(t, courseID, d.CourseID)
	require.Equal(t, "WS 2025/26", d.Semester)
	require.Equal(t, "Mathematik 1", d.CourseName)
	require.Equal(t, "M1", d.CourseAbbrev, "derived from the name when unset")
	require.Equal(t, "V", d.CourseTypeAbbrev)
	require.Equal(t, []string{"Math", "HW 1"}, d.Path)
	require.Equal(t, "pdf", d.Extension)
	require.Equal(t, domain.SyncFull, d.Sync)
}

func TestFileDetailAbsentForBrokenChain(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, _ := seedCourse(t, s)
	leaf, err := s.EnsureFolderPath(ctx, courseID, []string{"Math"})
	require.NoError(t, err)
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "file1", Folder: leaf, Name: "a", RemoteDate: someTime(1)}))

	// Unknown file: absent, not an error.
	d, err := s.FileDetail(ctx, "ghost")
	require.NoError(t, err)
	require.Nil(t, d)

	// Deleting the course row orphans the tree; the join finds no
	// course and the detail disappears rather than erroring.
	require.NoError(t, s.DeleteCourse(ctx, courseID))
	d, err = s.FileDetail(ctx, "file1")
	require.NoError(t, err)
	require.Nil(t, d)
}

func TestFileDetailsFilterAndOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, _ := seedCourse(t, s)
	require.NoError(t, s.CreateCourse(ctx, domain.Course{
		ID: "paused", Semester: semID("a"), Name: "Archivkunde", Sync: domain.SyncDisabled,
	}))

	leafA, err := s.EnsureFolderPath(ctx, courseID, []string{"A"})
	require.NoError(t, err)
	leafB, err := s.EnsureFolderPath(ctx, courseID, []string{"B"})
	require.NoError(t, err)
	pausedLeaf, err := s.EnsureFolderPath(ctx, "paused", []string{"X"})
	require.NoError(t, err)

	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "f2", Folder: leafB, Name: "two", RemoteDate: someTime(1)}))
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "f1", Folder: leafA, Name: "one", RemoteDate: someTime(1)}))
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "f3", Folder: pausedLeaf, Name: "three", RemoteDate: someTime(1)}))

	all, err := s.FileDetails(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "f3", all[0].ID, "Archivkunde sorts before Mathematik")
	require.Equal(t, "f1", all[1].ID)
	require.Equal(t, "f2", all[2].ID)

	active, err := s.FileDetails(ctx, domain.SyncAutomatic, domain.SyncFull)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, d := range active {
		require.Equal(t, courseID, d.CourseID)
	}
}

func TestMaxRemoteTime(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, root := seedCourse(t, s)
	shallow, err := s.EnsureFolderPath(ctx, courseID, []string{"A"})
	require.NoError(t, err)
	deep, err := s.EnsureFolderPath(ctx, courseID, []string{"A", "B"})
	require.NoError(t, err)

	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "f1", Folder: shallow, Name: "old", RemoteDate: someTime(2)}))
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "f2", Folder: deep, Name: "new", RemoteDate: someTime(8)}))

	got, ok, err := s.MaxRemoteTime(ctx, root)
	require.NoError(t, err)
	require.True(t, ok)
	require.WithinDuration(t, someTime(8), got, time.Second)

	got, ok, err = s.MaxRemoteTime(ctx, shallow)
	require.NoError(t, err)
	require.True(t, ok)
	require.WithinDuration(t, someTime(8), got, time.Second, "deep file counts for its ancestors")

	// An empty sibling branch has no aggregate.
	empty, err := s.EnsureFolderPath(ctx, courseID, []string{"C"})
	require.NoError(t, err)
	_, ok, err = s.MaxRemoteTime(ctx, empty)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.MaxRemoteTime(ctx, 9999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDerivedReadsRefuseCorruptedTree(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, _ := seedCourse(t, s)
	a, err := s.EnsureFolderPath(ctx, courseID, []string{"A"})
	require.NoError(t, err)
	b, err := s.EnsureFolderPath(ctx, courseID, []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "f1", Folder: b, Name: "x", RemoteDate: someTime(1)}))

	// No store operation can produce a cycle, so corrupt the table
	// directly the way an external process could.
	_, err = s.db.ExecContext(ctx, `UPDATE folders SET parent = ? WHERE id = ?`, b, a)
	require.NoError(t, err)

	_, err = s.ResolvePath(ctx, b)
	require.ErrorIs(t, err, domain.ErrCycle)

	_, err = s.FileDetails(ctx)
	require.ErrorIs(t, err, domain.ErrCycle)

	_, _, err = s.MaxRemoteTime(ctx, b)
	require.ErrorIs(t, err, domain.ErrCycle)

	_, err = s.Ancestors(ctx, b)
	require.ErrorIs(t, err, domain.ErrCycle)
}
