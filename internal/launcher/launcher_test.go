package launcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/platform/platformtest"
	"github.com/mj1618/desktop-organizer/internal/registry"
)

func newTestLauncher(d *platformtest.Desktop, opts ...Option) (*Launcher, *registry.Registry) {
	reg := registry.New(d.Processes, d.Windows)
	opts = append([]Option{WithPolling(time.Millisecond, 50)}, opts...)
	return New(d.Processes, d.Windows, reg, opts...), reg
}

func TestLaunchOneRunning(t *testing.T) {
	d := platformtest.NewDesktop()
	l, reg := newTestLauncher(d)
	e := model.NewEntry("/usr/bin/editor", "Editor", model.Rect{})

	require.NoError(t, l.LaunchOne(context.Background(), e))

	st := e.State()
	assert.Equal(t, model.StatusRunning, st.Status)
	assert.NotZero(t, st.ProcessID)
	assert.NotZero(t, st.WindowHandle)
	assert.Empty(t, st.LastError)

	got, ok := reg.Lookup("/usr/bin/editor")
	require.True(t, ok)
	assert.Equal(t, st, got.State)
}

func TestLaunchOneWindowAfterPolls(t *testing.T) {
	d := platformtest.NewDesktop()
	d.Processes.Configure("/usr/bin/slow", platformtest.AppBehavior{WindowAfterPolls: 5})
	l, _ := newTestLauncher(d)
	e := model.NewEntry("/usr/bin/slow", "", model.Rect{})

	require.NoError(t, l.LaunchOne(context.Background(), e))
	assert.Equal(t, model.StatusRunning, e.State().Status)
}

func TestLaunchOneSpawnFailure(t *testing.T) {
	d := platformtest.NewDesktop()
	d.Processes.Configure("/missing", platformtest.AppBehavior{StartErr: errors.New("no such file or directory")})
	l, reg := newTestLauncher(d)
	e := model.NewEntry("/missing", "", model.Rect{})

	err := l.LaunchOne(context.Background(), e)
	require.Error(t, err)

	st := e.State()
	assert.Equal(t, model.StatusFailed, st.Status)
	assert.Contains(t, st.LastError, "no such file")
	assert.Zero(t, st.ProcessID)
	assert.Equal(t, 0, reg.Len())
}

func TestLaunchOneWindowNeverAppears(t *testing.T) {
	d := platformtest.NewDesktop()
	d.Processes.Configure("/usr/bin/daemon", platformtest.AppBehavior{NoWindow: true})
	l, reg := newTestLauncher(d)
	e := model.NewEntry("/usr/bin/daemon", "", model.Rect{})

	err := l.LaunchOne(context.Background(), e)
	require.ErrorIs(t, err, ErrWindowNeverAppeared)

	st := e.State()
	assert.Equal(t, model.StatusFailed, st.Status)
	assert.Equal(t, "window never appeared", st.LastError)
	assert.NotZero(t, st.ProcessID)

	got, ok := reg.Lookup("/usr/bin/daemon")
	require.True(t, ok)
	assert.Equal(t, model.StatusFailed, got.State.Status)
}

func TestLaunchManyContinuesAfterFailure(t *testing.T) {
	d := platformtest.NewDesktop()
	d.Processes.Configure("/bad", platformtest.AppBehavior{StartErr: errors.New("boom")})
	l, _ := newTestLauncher(d)

	a := model.NewEntry("/a", "", model.Rect{})
	bad := model.NewEntry("/bad", "", model.Rect{})
	c := model.NewEntry("/c", "", model.Rect{})

	err := l.LaunchMany(context.Background(), []*model.ApplicationEntry{a, bad, c})
	require.Error(t, err)

	assert.Equal(t, []string{"/a", "/bad", "/c"}, d.Processes.Started())
	assert.Equal(t, model.StatusRunning, a.State().Status)
	assert.Equal(t, model.StatusFailed, bad.State().Status)
	assert.Equal(t, model.StatusRunning, c.State().Status)
}

func TestLaunchManyHonoursDelay(t *testing.T) {
	d := platformtest.NewDesktop()
	clock := clockwork.NewFakeClock()
	l, _ := newTestLauncher(d, WithClock(clock))

	a := model.NewEntry("/a", "", model.Rect{})
	b := model.NewEntry("/b", "", model.Rect{})
	b.LaunchDelaySeconds = 5

	done := make(chan error, 1)
	go func() { done <- l.LaunchMany(context.Background(), []*model.ApplicationEntry{a, b}) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, []string{"/a"}, d.Processes.Started(), "b waits for its delay")

	clock.Advance(5 * time.Second)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"/a", "/b"}, d.Processes.Started())
}

func TestLaunchManyCancelledDuringDelay(t *testing.T) {
	d := platformtest.NewDesktop()
	l, _ := newTestLauncher(d, WithClock(clockwork.NewFakeClock()))
	e := model.NewEntry("/a", "", model.Rect{})
	e.LaunchDelaySeconds = 10

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.LaunchMany(ctx, []*model.ApplicationEntry{e})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.Processes.Started())
}
