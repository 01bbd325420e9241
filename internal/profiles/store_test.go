package profiles

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-organizer/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "profiles"), nil)
	require.NoError(t, err)
	return s
}

func profile(name string, order int) *model.WorkspaceProfile {
	p := &model.WorkspaceProfile{Name: name, DisplayOrder: order}
	p.Apps = append(p.Apps, model.NewEntry("/usr/bin/editor", "Editor", model.Rect{X: 10, Y: 20, Width: 800, Height: 600}))
	return p
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"work", "Deep Focus", "dev-2"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", " ", ".", "..", "a/b", `a\b`, " padded"} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	p := profile("work", 0)
	vol := 40
	p.Volume = &vol
	p.WallpaperPath = "/tmp/bg.png"
	p.Apps[0].KillOnSwitch = true
	p.Apps[0].MarkStarted(123)
	p.MarkDirty()

	require.NoError(t, s.Save(p))
	assert.False(t, p.IsDirty())

	got, err := s.Load("work")
	require.NoError(t, err)
	assert.Equal(t, "work", got.Name)
	require.Len(t, got.Apps, 1)
	assert.Equal(t, p.Apps[0].SavedRect(), got.Apps[0].SavedRect())
	assert.True(t, got.Apps[0].KillOnSwitch)
	assert.False(t, got.Apps[0].IsLive(), "runtime state is never persisted")
	require.NotNil(t, got.Volume)
	assert.Equal(t, 40, *got.Volume)

	data, err := os.ReadFile(filepath.Join(s.Dir(), "work.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "123")
}

func TestLoadMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFingerprint(t *testing.T) {
	s := newStore(t)
	_, err := s.Fingerprint("work")
	assert.ErrorIs(t, err, ErrNotFound)

	p := profile("work", 0)
	require.NoError(t, s.Save(p))
	a, err := s.Fingerprint("work")
	require.NoError(t, err)
	require.NoError(t, s.Save(p))
	b, err := s.Fingerprint("work")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	p.Apps[0].SetSavedRect(model.Rect{X: 1, Y: 2, Width: 3, Height: 4})
	require.NoError(t, s.Save(p))
	c, err := s.Fingerprint("work")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestLoadAllSortsAndSkipsBadFiles(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(profile("zeta", 0)))
	require.NoError(t, s.Save(profile("alpha", 1)))
	require.NoError(t, s.Save(profile("beta", 0)))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "broken.yaml"), []byte("apps: [unterminated"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("ignored"), 0o644))

	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "zeta", "alpha"}, names)
}

func TestRename(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(profile("old", 0)))
	require.NoError(t, s.Save(profile("taken", 1)))

	assert.ErrorIs(t, s.Rename("missing", "x"), ErrNotFound)
	assert.ErrorIs(t, s.Rename("old", "taken"), ErrExists)

	require.NoError(t, s.Rename("old", "new"))
	_, err := s.Load("old")
	assert.ErrorIs(t, err, ErrNotFound)
	p, err := s.Load("new")
	require.NoError(t, err)
	assert.Equal(t, "new", p.Name)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(profile("gone", 0)))
	require.NoError(t, s.Delete("gone"))
	require.NoError(t, s.Delete("gone"))
	_, err := s.Load("gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorder(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(profile("a", 0)))
	require.NoError(t, s.Save(profile("b", 1)))
	require.NoError(t, s.Save(profile("c", 2)))

	require.NoError(t, s.Reorder([]string{"c", "a"}))
	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, names)

	assert.ErrorIs(t, s.Reorder([]string{"zzz"}), ErrNotFound)
}

func TestWatch(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []string
	require.NoError(t, s.Watch(ctx, 20*time.Millisecond, func(names []string) {
		mu.Lock()
		seen = append(seen, names...)
		mu.Unlock()
	}))

	require.NoError(t, s.Save(profile("watched", 0)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, n := range seen {
			if n == "watched" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}
