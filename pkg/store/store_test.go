package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoBooth/pkg/project"
)

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func stores(t *testing.T) map[string]ProjectStore {
	mem := NewMemoryStore()
	mem.(*memoryStore).now = tick()

	fs, err := NewFilesystemStore(filepath.Join(t.TempDir(), "projects"))
	require.NoError(t, err)
	fs.(*fsStore).now = tick()

	return map[string]ProjectStore{"memory": mem, "filesystem": fs}
}

func TestProjectStoreCRUD(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := project.New("A").AddPhotos(project.NewPhoto("data:a", "a", "image/png"))
			b := project.New("B")

			ra, err := s.Create(ctx, a)
			require.NoError(t, err)
			assert.Equal(t, ra.CreatedAt, ra.UpdatedAt)
			_, err = s.Create(ctx, b)
			require.NoError(t, err)

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, a.ID, list[0].Project.ID)
			assert.Equal(t, b.ID, list[1].Project.ID)

			got, err := s.Get(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, a, got.Project)

			updated, err := s.Update(ctx, a.ID, func(p project.Project) (project.Project, error) {
				return p.WithLayout("grid-2x2"), nil
			})
			require.NoError(t, err)
			assert.Equal(t, "grid-2x2", updated.Project.LayoutID)
			assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

			boom := errors.New("boom")
			_, err = s.Update(ctx, a.ID, func(p project.Project) (project.Project, error) {
				return p.WithName("lost"), boom
			})
			assert.ErrorIs(t, err, boom)
			got, err = s.Get(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, "A", got.Project.Name)

			// The id cannot be changed through Update.
			updated, err = s.Update(ctx, a.ID, func(p project.Project) (project.Project, error) {
				p.ID = "other"
				return p, nil
			})
			require.NoError(t, err)
			assert.Equal(t, a.ID, updated.Project.ID)

			require.NoError(t, s.Delete(ctx, a.ID))
			_, err = s.Get(ctx, a.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)
			_, err = s.Update(ctx, a.ID, func(p project.Project) (project.Project, error) { return p, nil })
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoredRecordsAreCopies(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := project.New("copy").AddPhotos(project.NewPhoto("data:x", "x", "image/png"))
			r, err := s.Create(ctx, p)
			require.NoError(t, err)

			r.Project.Photos[0].Name = "mutated"
			got, err := s.Get(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, "x", got.Project.Photos[0].Name)
		})
	}
}

func TestInvalidIDs(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p := project.New("bad")
			p.ID = "../escape"
			_, err := s.Create(context.Background(), p)
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func TestFilesystemSkipsJunk(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystemStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	_, err = s.Create(context.Background(), project.New("ok"))
	require.NoError(t, err)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = NewFilesystemStore("")
	assert.Error(t, err)
}

func TestNewSelectsStore(t *testing.T) {
	s, err := New("", "")
	require.NoError(t, err)
	assert.IsType(t, &memoryStore{}, s)

	s, err = New("filesystem", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &fsStore{}, s)
}
