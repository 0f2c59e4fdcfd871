package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hoersaal/internal/domain"
)

func strp(s string) *string { return &s }

func intp(i int64) *int64 { return &i }

func TestCreateFolderShapes(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_, root := seedCourse(t, s)

	id, err := s.CreateFolder(ctx, strp("Slides"), &root)
	require.NoError(t, err)

	f, err := s.Folder(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Slides", *f.Name)
	require.Equal(t, root, *f.Parent)

	_, err = s.CreateFolder(ctx, strp("NoParent"), nil)
	require.ErrorIs(t, err, domain.ErrInvariant)

	_, err = s.CreateFolder(ctx, nil, &root)
	require.ErrorIs(t, err, domain.ErrInvariant)

	_, err = s.CreateFolder(ctx, nil, nil)
	require.ErrorIs(t, err, domain.ErrInvariant)

	missing := int64(9999)
	_, err = s.CreateFolder(ctx, strp("Lost"), &missing)
	require.ErrorIs(t, err, domain.ErrReferential)
}

func TestCreateRoot(t *testing.T) {
	s := newStore(t)
	id, err := s.CreateRoot(context.Background())
	require.NoError(t, err)

	f, err := s.Folder(context.Background(), id)
	require.NoError(t, err)
	require.True(t, f.IsRoot())
}

func TestFolderNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.Folder(context.Background(), 12345)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAncestorsAndSubtree(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_, root := seedCourse(t, s)

	a, err := s.CreateFolder(ctx, strp("Math"), &root)
	require.NoError(t, err)
	b, err := s.CreateFolder(ctx, strp("HW 1"), &a)
	require.NoError(t, err)

	ids, err := s.Ancestors(ctx, b)
	require.NoError(t, err)
	require.Equal(t, []int64{root, a, b}, ids)

	sub, err := s.Subtree(ctx, root)
	require.NoError(t, err)
	require.Equal(t, []int64{root, a, b}, sub)

	_, err = s.Ancestors(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsureFolderPath(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, root := seedCourse(t, s)

	leaf, err := s.EnsureFolderPath(ctx, courseID, []string{"Math", "HW 1"})
	require.NoError(t, err)

	names, err := s.ResolvePath(ctx, leaf)
	require.NoError(t, err)
	require.Equal(t, []string{"Math", "HW 1"}, names)

	// Idempotent: the same walk lands on the same folder.
	again, err := s.EnsureFolderPath(ctx, courseID, []string{"Math", "HW 1"})
	require.NoError(t, err)
	require.Equal(t, leaf, again)

	// A sibling branch reuses the shared prefix.
	sibling, err := s.EnsureFolderPath(ctx, courseID, []string{"Math", "HW 2"})
	require.NoError(t, err)
	require.NotEqual(t, leaf, sibling)

	sub, err := s.Subtree(ctx, root)
	require.NoError(t, err)
	require.Len(t, sub, 4, "root, Math, HW 1, HW 2")

	// Empty path resolves to the root itself.
	got, err := s.EnsureFolderPath(ctx, courseID, nil)
	require.NoError(t, err)
	require.Equal(t, root, got)

	_, err = s.EnsureFolderPath(ctx, "ghost", []string{"Math"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.EnsureFolderPath(ctx, courseID, []string{"Math", ""})
	require.ErrorIs(t, err, domain.ErrInvariant)
}

func TestDeleteFolderGuards(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, root := seedCourse(t, s)

	leaf, err := s.EnsureFolderPath(ctx, courseID, []string{"Math", "HW 1"})
	require.NoError(t, err)
	mid, err := s.EnsureFolderPath(ctx, courseID, []string{"Math"})
	require.NoError(t, err)

	// Parent of a child folder is protected.
	require.ErrorIs(t, s.DeleteFolder(ctx, mid), domain.ErrReferential)

	// A course root is protected even when empty of folders.
	require.ErrorIs(t, s.DeleteFolder(ctx, root), domain.ErrReferential)

	// A folder holding a file is protected.
	require.NoError(t, s.CreateFile(ctx, domain.File{
		ID: "file1", Folder: leaf, Name: "sheet01", RemoteDate: someTime(1),
	}))
	require.ErrorIs(t, s.DeleteFolder(ctx, leaf), domain.ErrReferential)

	require.NoError(t, s.DeleteFile(ctx, "file1"))
	require.NoError(t, s.DeleteFolder(ctx, leaf))
	require.NoError(t, s.DeleteFolder(ctx, mid))

	require.ErrorIs(t, s.DeleteFolder(ctx, leaf), domain.ErrNotFound)
}
