package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hoersaal/internal/domain"
)

func TestDetailsJoin(t *testing.T) {
	snap := fixture()
	remote := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	snap.Files["f1"] = domain.File{
		ID: "f1", Folder: 4, Name: "sheet01", Extension: "pdf",
		Author: "R. Dedekind", RemoteDate: remote, Version: 2,
	}

	details, err := Details(snap)
	require.NoError(t, err)
	require.Len(t, details, 1)

	d := details["f1"]
	require.Equal(t, "c1", d.CourseID)
	require.Equal(t, "WS 2025/26", d.Semester)
	require.Equal(t, "Mathematik 1", d.CourseName)
	require.Equal(t, "M1", d.CourseAbbrev)
	require.Equal(t, "Vorlesung", d.CourseType)
	require.Equal(t, "V", d.CourseTypeAbbrev)
	require.Equal(t, domain.SyncFull, d.Sync)
	require.Equal(t, []string{"Homework", "HW 1"}, d.Path)
	require.Equal(t, "sheet01", d.Name)
	require.Equal(t, "pdf", d.Extension)
	require.Equal(t, remote, d.RemoteDate)
	require.Nil(t, d.LocalDate)
	require.Equal(t, 2, d.Version)
}

func TestDetailsFileAtRootHasEmptyPath(t *testing.T) {
	snap := fixture()
	snap.Files["f1"] = domain.File{ID: "f1", Folder: 1, Name: "syllabus", RemoteDate: time.Unix(1700000000, 0)}

	details, err := Details(snap)
	require.NoError(t, err)
	require.Empty(t, details["f1"].Path)
	require.Equal(t, `[]`, SerializePath(details["f1"].Path))
}

func TestDetailsSkipsUnjoinableFiles(t *testing.T) {
	snap := fixture()
	snap.Folders[10] = rootFolder(10)
	snap.Folders[11] = namedFolder(11, "Lost", 10)
	date := time.Unix(1700000000, 0)

	// Folder chain reaches no course root.
	snap.Files["orphanFolder"] = domain.File{ID: "orphanFolder", Folder: 11, Name: "a", RemoteDate: date}
	// Folder reference points at no row at all.
	snap.Files["danglingRef"] = domain.File{ID: "danglingRef", Folder: 999, Name: "b", RemoteDate: date}
	// Joins fine.
	snap.Files["kept"] = domain.File{ID: "kept", Folder: 2, Name: "c", RemoteDate: date}

	details, err := Details(snap)
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Contains(t, details, "kept")
}

func TestDetailsSkipsCourseWithMissingSemester(t *testing.T) {
	snap := fixture()
	delete(snap.Semesters, "s1")
	snap.Files["f1"] = domain.File{ID: "f1", Folder: 2, Name: "a", RemoteDate: time.Unix(1700000000, 0)}

	details, err := Details(snap)
	require.NoError(t, err)
	require.Empty(t, details)
}

func TestDetailsCyclePoisonsComputation(t *testing.T) {
	snap := fixture()
	snap.Folders[30] = namedFolder(30, "a", 31)
	snap.Folders[31] = namedFolder(31, "b", 30)
	snap.Files["f1"] = domain.File{ID: "f1", Folder: 2, Name: "fine", RemoteDate: time.Unix(1700000000, 0)}

	_, err := Details(snap)
	require.ErrorIs(t, err, domain.ErrCycle)
}
