package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-organizer/internal/model"
)

type pidSet struct {
	mu   sync.Mutex
	live map[int]bool
}

func newPIDSet(pids ...int) *pidSet {
	s := &pidSet{live: make(map[int]bool)}
	for _, p := range pids {
		s.live[p] = true
	}
	return s
}

func (s *pidSet) IsAlive(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[pid]
}

func (s *pidSet) kill(pid int) {
	s.mu.Lock()
	delete(s.live, pid)
	s.mu.Unlock()
}

type windowMap map[int]model.WindowHandle

func (m windowMap) FindWindowByProcessID(pid int) (model.WindowHandle, bool) {
	h, ok := m[pid]
	return h, ok
}

func running(path string, pid int, h model.WindowHandle) *model.ApplicationEntry {
	e := model.NewEntry(path, "", model.Rect{})
	e.MarkStarted(pid)
	e.MarkRunning(h)
	return e
}

func TestKeyNormalizes(t *testing.T) {
	assert.Equal(t, Key("/usr/bin/Firefox"), Key("/usr/bin/../bin/firefox"))
	assert.Equal(t, "", Key(""))
}

func TestUpdateUpsertsCopy(t *testing.T) {
	r := New(newPIDSet(42), nil)
	e := running("/usr/bin/editor", 42, 0x10)
	r.Update(e)

	got, ok := r.Lookup("/USR/bin/editor")
	require.True(t, ok)
	assert.Equal(t, 42, got.State.ProcessID)
	assert.Equal(t, model.StatusRunning, got.State.Status)

	e.SetWindowHandle(0x20)
	got, _ = r.Lookup("/usr/bin/editor")
	assert.Equal(t, model.WindowHandle(0x10), got.State.WindowHandle, "registry must hold a copy")
}

func TestUpdateNotRunningIsIdempotent(t *testing.T) {
	r := New(newPIDSet(42), nil)
	e := running("/usr/bin/editor", 42, 0x10)
	r.Update(e)
	require.Equal(t, 1, r.Len())

	e.MarkNotRunning()
	r.Update(e)
	r.Update(e)

	assert.Equal(t, 0, r.Len())
	_, ok := r.Lookup("/usr/bin/editor")
	assert.False(t, ok)
}

func TestUpdateWithoutPIDRemoves(t *testing.T) {
	r := New(newPIDSet(), nil)
	e := model.NewEntry("/usr/bin/editor", "", model.Rect{})
	e.MarkLaunching()
	r.Update(e)
	assert.Equal(t, 0, r.Len())
}

func TestUpdateIgnoresEmptyPath(t *testing.T) {
	r := New(newPIDSet(1), nil)
	r.Update(running("", 1, 1))
	r.Update(nil)
	assert.Equal(t, 0, r.Len())
}

func TestRefreshReattachesAcrossProfiles(t *testing.T) {
	alive := newPIDSet(42)
	r := New(alive, nil)

	a := running("/opt/E", 42, 0xabc)
	a.SetObserved(model.Rect{X: 1, Y: 2, Width: 3, Height: 4}, 7)
	r.Update(a)

	b := model.NewEntry("/opt/E", "E in profile B", model.Rect{})
	r.Refresh([]*model.ApplicationEntry{b})

	st := b.State()
	assert.Equal(t, model.StatusRunning, st.Status)
	assert.Equal(t, 42, st.ProcessID)
	assert.Equal(t, model.WindowHandle(0xabc), st.WindowHandle)
	assert.Equal(t, model.Rect{X: 1, Y: 2, Width: 3, Height: 4}, st.LastObservedRect)
	assert.Equal(t, int64(7), st.LastObservedStyle)
}

func TestRefreshDropsDeadRegistryEntry(t *testing.T) {
	alive := newPIDSet(42)
	r := New(alive, nil)
	r.Update(running("/opt/E", 42, 0xabc))
	alive.kill(42)

	b := model.NewEntry("/opt/E", "", model.Rect{})
	r.Refresh([]*model.ApplicationEntry{b})

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, model.StatusNotRunning, b.State().Status)
}

func TestRefreshFallsBackToOwnPID(t *testing.T) {
	alive := newPIDSet(7)
	r := New(alive, windowMap{7: 0x77})

	e := model.NewEntry("/opt/F", "", model.Rect{})
	e.MarkStarted(7)
	r.Refresh([]*model.ApplicationEntry{e})

	st := e.State()
	assert.Equal(t, model.StatusRunning, st.Status)
	assert.Equal(t, model.WindowHandle(0x77), st.WindowHandle)

	got, ok := r.Lookup("/opt/F")
	require.True(t, ok, "fallback hit is published")
	assert.Equal(t, 7, got.State.ProcessID)
}

func TestRefreshClearsDeadOwnPID(t *testing.T) {
	r := New(newPIDSet(), nil)
	e := running("/opt/G", 9, 0x9)
	r.Refresh([]*model.ApplicationEntry{e})

	st := e.State()
	assert.Equal(t, model.StatusNotRunning, st.Status)
	assert.Zero(t, st.ProcessID)
	assert.Zero(t, st.WindowHandle)
}

func TestSnapshotSortedCopies(t *testing.T) {
	r := New(newPIDSet(1, 2), nil)
	r.Update(running("/b", 2, 2))
	r.Update(running("/a", 1, 1))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "/a", snap[0].Key)
	assert.Equal(t, "/b", snap[1].Key)

	r.Remove("/a")
	assert.Equal(t, 1, r.Len())
	assert.Len(t, snap, 2)
}

func TestConcurrentAccess(t *testing.T) {
	r := New(newPIDSet(1), nil)
	e := running("/opt/H", 1, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Update(e)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Refresh([]*model.ApplicationEntry{model.NewEntry("/opt/H", "", model.Rect{})})
				_ = r.Snapshot()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, r.Len())
}
