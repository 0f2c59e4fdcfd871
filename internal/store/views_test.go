package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hoersaal/internal/domain"
)

func TestCreateViewValidation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.CreateView(ctx, domain.View{Name: "flat", Base: "flat", Format: "{name}{ext}"})
	require.NoError(t, err)

	v, err := s.View(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "{name}{ext}", v.Format)

	// Empty format falls back to the default layout.
	id, err = s.CreateView(ctx, domain.View{Name: "fallback", Base: "fb"})
	require.NoError(t, err)
	v, err = s.View(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultFormat, v.Format)

	for _, base := range []string{"", ".", ".."} {
		_, err = s.CreateView(ctx, domain.View{Name: "bad", Base: base})
		require.ErrorIs(t, err, domain.ErrInvalidBase, "base %q", base)
	}

	_, err = s.CreateView(ctx, domain.View{Name: "bad", Base: "ok", Escape: domain.EscapeMode(11)})
	require.ErrorIs(t, err, domain.ErrInvalidEnum)

	_, err = s.CreateView(ctx, domain.View{Name: "", Base: "ok"})
	require.ErrorIs(t, err, domain.ErrInvariant)
}

func TestCheckoutIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, _ := seedCourse(t, s)
	leaf, err := s.EnsureFolderPath(ctx, courseID, []string{"Math"})
	require.NoError(t, err)
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "file1", Folder: leaf, Name: "a", RemoteDate: someTime(1)}))

	views, err := s.Views(ctx)
	require.NoError(t, err)
	viewID := views[0].ID

	require.NoError(t, s.Checkout(ctx, viewID, "file1"))
	require.NoError(t, s.Checkout(ctx, viewID, "file1"))

	outs, err := s.Checkouts(ctx, viewID)
	require.NoError(t, err)
	require.Equal(t, []string{"file1"}, outs)
}

func TestCheckoutRequiresBothSides(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, _ := seedCourse(t, s)
	leaf, err := s.EnsureFolderPath(ctx, courseID, []string{"Math"})
	require.NoError(t, err)
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "file1", Folder: leaf, Name: "a", RemoteDate: someTime(1)}))

	views, err := s.Views(ctx)
	require.NoError(t, err)

	require.ErrorIs(t, s.Checkout(ctx, 9999, "file1"), domain.ErrReferential)
	require.ErrorIs(t, s.Checkout(ctx, views[0].ID, "ghost"), domain.ErrReferential)
}

func TestDeleteViewDropsItsCheckoutsOnly(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, _ := seedCourse(t, s)
	leaf, err := s.EnsureFolderPath(ctx, courseID, []string{"Math"})
	require.NoError(t, err)
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "file1", Folder: leaf, Name: "a", RemoteDate: someTime(1)}))

	views, err := s.Views(ctx)
	require.NoError(t, err)
	defaultID := views[0].ID
	otherID, err := s.CreateView(ctx, domain.View{Name: "other", Base: "other"})
	require.NoError(t, err)

	require.NoError(t, s.Checkout(ctx, defaultID, "file1"))
	require.NoError(t, s.Checkout(ctx, otherID, "file1"))

	require.NoError(t, s.DeleteView(ctx, otherID))
	require.ErrorIs(t, s.DeleteView(ctx, otherID), domain.ErrNotFound)

	outs, err := s.Checkouts(ctx, otherID)
	require.NoError(t, err)
	require.Empty(t, outs)

	outs, err = s.Checkouts(ctx, defaultID)
	require.NoError(t, err)
	require.Equal(t, []string{"file1"}, outs, "sibling view keeps its checkouts")

	// The file side is untouched by view deletion.
	_, err = s.File(ctx, "file1")
	require.NoError(t, err)
}

func TestResetCheckouts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	courseID, _ := seedCourse(t, s)
	leaf, err := s.EnsureFolderPath(ctx, courseID, []string{"Math"})
	require.NoError(t, err)
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "file1", Folder: leaf, Name: "a", RemoteDate: someTime(1)}))
	require.NoError(t, s.CreateFile(ctx, domain.File{ID: "file2", Folder: leaf, Name: "b", RemoteDate: someTime(1)}))

	views, err := s.Views(ctx)
	require.NoError(t, err)
	viewID := views[0].ID
	require.NoError(t, s.Checkout(ctx, viewID, "file1"))
	require.NoError(t, s.Checkout(ctx, viewID, "file2"))

	require.NoError(t, s.ResetCheckouts(ctx, viewID))
	outs, err := s.Checkouts(ctx, viewID)
	require.NoError(t, err)
	require.Empty(t, outs)

	// Files themselves survive the reset.
	_, err = s.File(ctx, "file1")
	require.NoError(t, err)
}
