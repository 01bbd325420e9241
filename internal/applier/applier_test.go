package applier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-organizer/internal/launcher"
	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/monitor"
	"github.com/mj1618/desktop-organizer/internal/platform/platformtest"
	"github.com/mj1618/desktop-organizer/internal/registry"
	"github.com/mj1618/desktop-organizer/internal/stabilize"
)

type stubWallpaper struct {
	calls []string
	ok    bool
	msg   string
}

func (s *stubWallpaper) ApplyIfSafe(path string) (bool, string) {
	s.calls = append(s.calls, path)
	return s.ok, s.msg
}

type harness struct {
	d   *platformtest.Desktop
	reg *registry.Registry
	sup *monitor.Supervisor
	wp  *stubWallpaper
	app *Applier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	d := platformtest.NewDesktop()
	reg := registry.New(d.Processes, d.Windows)
	sup := monitor.NewSupervisor(d.Windows, d.Processes, reg, monitor.WithInterval(time.Millisecond))
	t.Cleanup(sup.StopAll)

	st := stabilize.DefaultSettings()
	st.Interval = time.Millisecond
	wp := &stubWallpaper{ok: true}

	a := New(Deps{
		Windows:   d.Windows,
		Processes: d.Processes,
		Displays:  d.Displays,
		Registry:  reg,
		Launcher:  launcher.New(d.Processes, d.Windows, reg, launcher.WithPolling(time.Millisecond, 50)),
		Enforcer:  stabilize.New(d.Windows, d.Processes, st, nil, nil),
		Monitors:  sup,
		Wallpaper: wp,
	}, Settings{SettleDelay: time.Millisecond, RecenterOffset: 50})

	return &harness{d: d, reg: reg, sup: sup, wp: wp, app: a}
}

func profile(name string, entries ...*model.ApplicationEntry) *model.WorkspaceProfile {
	return &model.WorkspaceProfile{Name: name, Apps: entries}
}

func TestApplyNilProfile(t *testing.T) {
	h := newHarness(t)
	rep, err := h.app.ApplyProfile(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilProfile)
	assert.Nil(t, rep)
}

// One entry without a saved position: launched, never positioned, monitored.
func TestScenarioNoSavedPosition(t *testing.T) {
	h := newHarness(t)
	e := model.NewEntry("/usr/bin/editor", "Editor", model.Rect{})

	rep, err := h.app.ApplyProfile(context.Background(), profile("p", e))
	require.NoError(t, err)

	assert.Equal(t, model.StatusRunning, e.State().Status)
	assert.Zero(t, h.d.Windows.TotalSetPositionCalls())
	require.Len(t, rep.Apps, 1)
	assert.Nil(t, rep.Apps[0].Stabilize)
	assert.True(t, rep.Apps[0].Monitored)
	assert.True(t, h.sup.Active(e.ProcessID()))
	assert.NotEmpty(t, rep.RunID)
	assert.True(t, rep.Minimized)
}

// Saved (100,100,800,600) and the window opens exactly there: converges on
// the minimum number of checks.
func TestScenarioImmediateConvergence(t *testing.T) {
	h := newHarness(t)
	target := model.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	h.d.Processes.Configure("/usr/bin/term", platformtest.AppBehavior{Rect: target})
	e := model.NewEntry("/usr/bin/term", "", target)

	rep, err := h.app.ApplyProfile(context.Background(), profile("p", e))
	require.NoError(t, err)

	res := rep.Apps[0].Stabilize
	require.NotNil(t, res)
	assert.True(t, res.Converged())
	assert.Equal(t, 3, res.Attempts)
	assert.True(t, rep.Apps[0].Monitored)
}

// Two profiles reference E. A launches it; B reattaches instead of launching.
func TestScenarioSharedExecutableAcrossProfiles(t *testing.T) {
	h := newHarness(t)
	a := model.NewEntry("/opt/E", "E", model.Rect{})
	_, err := h.app.ApplyProfile(context.Background(), profile("A", a))
	require.NoError(t, err)
	pid := a.ProcessID()
	require.NotZero(t, pid)

	b := model.NewEntry("/opt/E", "E", model.Rect{})
	h.reg.Refresh([]*model.ApplicationEntry{b})
	assert.Equal(t, model.StatusRunning, b.State().Status)
	assert.Equal(t, pid, b.ProcessID())

	_, err = h.app.ApplyProfile(context.Background(), profile("B", b))
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/E"}, h.d.Processes.Started(), "B must not launch E again")
	assert.Equal(t, pid, b.ProcessID())
}

// Saved on a display that is gone: relaunched fresh and centered on the
// primary display at the window's real size.
func TestScenarioDisabledMonitor(t *testing.T) {
	h := newHarness(t)
	h.d.Processes.Configure("/usr/bin/browser", platformtest.AppBehavior{Rect: model.Rect{X: 0, Y: 0, Width: 1024, Height: 768}})
	e := model.NewEntry("/usr/bin/browser", "", model.Rect{X: 3000, Y: 100, Width: 1200, Height: 900})
	e.AssignedMonitorID = "HDMI-2"
	p := profile("p", e)

	rep, err := h.app.ApplyProfile(context.Background(), p)
	require.NoError(t, err)

	saved := e.SavedRect()
	primary := model.Rect{Width: 1920, Height: 1080}
	assert.True(t, primary.Contains(saved.X, saved.Y))
	assert.Equal(t, model.Rect{X: 448, Y: 156, Width: 1024, Height: 768}, saved)
	assert.Equal(t, "DP-1", e.AssignedMonitorID)
	assert.True(t, rep.Apps[0].Recentered)
	assert.True(t, p.IsDirty())

	win, ok := h.d.Windows.Window(e.State().WindowHandle)
	require.True(t, ok)
	assert.Equal(t, saved, win.Rect)
}

func TestDisabledMonitorKillsLiveProcess(t *testing.T) {
	h := newHarness(t)
	pid, win := h.d.Processes.Spawn("/usr/bin/browser", model.Rect{X: 3000, Y: 0, Width: 800, Height: 600})
	e := model.NewEntry("/usr/bin/browser", "", model.Rect{X: 3000, Y: 0, Width: 800, Height: 600})
	e.MarkStarted(pid)
	e.MarkRunning(win)

	rep, err := h.app.ApplyProfile(context.Background(), profile("p", e))
	require.NoError(t, err)

	assert.Equal(t, []int{pid}, h.d.Processes.Killed())
	assert.NotEqual(t, pid, e.ProcessID())
	assert.True(t, rep.Apps[0].Killed)
	assert.True(t, rep.Apps[0].Launched)
}

func TestWindowLargerThanPrimaryUsesOffset(t *testing.T) {
	h := newHarness(t)
	h.d.Processes.Configure("/big", platformtest.AppBehavior{Rect: model.Rect{Width: 2560, Height: 1440}})
	e := model.NewEntry("/big", "", model.Rect{X: -5000, Y: 0, Width: 2560, Height: 1440})

	_, err := h.app.ApplyProfile(context.Background(), profile("p", e))
	require.NoError(t, err)
	assert.Equal(t, model.Rect{X: 50, Y: 50, Width: 2560, Height: 1440}, e.SavedRect())
}

func TestDisplayQueryFailureSkipsReconciliation(t *testing.T) {
	h := newHarness(t)
	h.d.Displays.Fail(errors.New("xinerama unavailable"))
	offscreen := model.Rect{X: 5000, Y: 0, Width: 400, Height: 300}
	h.d.Processes.Configure("/app", platformtest.AppBehavior{Rect: offscreen})
	e := model.NewEntry("/app", "", offscreen)

	rep, err := h.app.ApplyProfile(context.Background(), profile("p", e))
	require.NoError(t, err)

	assert.Contains(t, rep.DisplayError, "xinerama")
	assert.Equal(t, offscreen, e.SavedRect())
	assert.False(t, rep.Apps[0].Recentered)
}

func TestKillOnSwitch(t *testing.T) {
	h := newHarness(t)
	pid, win := h.d.Processes.Spawn("/usr/bin/chat", model.Rect{Width: 500, Height: 500})
	keep := model.NewEntry("/usr/bin/chat", "", model.Rect{})
	keep.KillOnSwitch = true
	keep.MarkStarted(pid)
	keep.MarkRunning(win)

	rep, err := h.app.ApplyProfile(context.Background(), profile("p", keep))
	require.NoError(t, err)

	assert.Equal(t, []int{pid}, h.d.Processes.Killed())
	assert.True(t, rep.Apps[0].Killed)
	assert.Equal(t, model.StatusRunning, keep.State().Status, "relaunched after the kill")
	assert.NotEqual(t, pid, keep.ProcessID())
}

func TestSnapshotProfileSkipsMinimize(t *testing.T) {
	h := newHarness(t)
	p := profile("snap", model.NewEntry("/a", "", model.Rect{}))
	p.CreatedFromSnapshot = true

	rep, err := h.app.ApplyProfile(context.Background(), p)
	require.NoError(t, err)

	assert.False(t, rep.Minimized)
	assert.Zero(t, h.d.Windows.MinimizeCalls())
	assert.False(t, p.CreatedFromSnapshot, "flag is cleared after the first apply")

	_, err = h.app.ApplyProfile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 1, h.d.Windows.MinimizeCalls())
}

func TestWallpaperFailureDoesNotAbort(t *testing.T) {
	h := newHarness(t)
	h.wp.ok, h.wp.msg = false, "a wallpaper engine is running"
	p := profile("p", model.NewEntry("/a", "", model.Rect{X: 10, Y: 10, Width: 300, Height: 200}))
	p.WallpaperPath = "/walls/forest.png"

	rep, err := h.app.ApplyProfile(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []string{"/walls/forest.png"}, h.wp.calls)
	assert.False(t, rep.WallpaperApplied)
	assert.Equal(t, "a wallpaper engine is running", rep.WallpaperError)
	assert.Equal(t, 1, rep.Running())
	assert.NotNil(t, rep.Apps[0].Stabilize)
}

func TestLaunchFailureIsReportedNotReturned(t *testing.T) {
	h := newHarness(t)
	h.d.Processes.Configure("/missing", platformtest.AppBehavior{StartErr: errors.New("exec: not found")})
	bad := model.NewEntry("/missing", "", model.Rect{X: 10, Y: 10, Width: 300, Height: 200})
	good := model.NewEntry("/ok", "", model.Rect{})

	rep, err := h.app.ApplyProfile(context.Background(), profile("p", bad, good))
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Failed())
	assert.Equal(t, 1, rep.Running())
	assert.Nil(t, rep.Apps[0].Stabilize)
	assert.False(t, rep.Apps[0].Monitored)
}

func TestForceWindowIsOpenedAfterStabilization(t *testing.T) {
	h := newHarness(t)
	h.app.settings.ForceWindow = time.Minute
	target := model.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	e := model.NewEntry("/a", "", target)

	before := time.Now()
	_, err := h.app.ApplyProfile(context.Background(), profile("p", e))
	require.NoError(t, err)
	assert.True(t, e.ForceUntil().After(before.Add(30*time.Second)))
}

func TestAttachFindsOpenWindows(t *testing.T) {
	h := newHarness(t)
	pid, win := h.d.Processes.Spawn("/usr/bin/mail", model.Rect{Width: 600, Height: 400})
	e := model.NewEntry("/usr/bin/mail", "", model.Rect{})
	other := model.NewEntry("/usr/bin/absent", "", model.Rect{})

	n := h.app.Attach(profile("p", e, other))

	assert.Equal(t, 1, n)
	st := e.State()
	assert.Equal(t, model.StatusRunning, st.Status)
	assert.Equal(t, pid, st.ProcessID)
	assert.Equal(t, win, st.WindowHandle)
	assert.Equal(t, model.StatusNotRunning, other.State().Status)

	_, ok := h.reg.Lookup("/usr/bin/mail")
	assert.True(t, ok)
}

func TestKillClearsState(t *testing.T) {
	h := newHarness(t)
	e := model.NewEntry("/a", "", model.Rect{})
	_, err := h.app.ApplyProfile(context.Background(), profile("p", e))
	require.NoError(t, err)
	pid := e.ProcessID()
	require.True(t, h.sup.Active(pid))

	n := h.app.Kill([]*model.ApplicationEntry{e})

	assert.Equal(t, 1, n)
	assert.False(t, h.sup.Active(pid))
	assert.False(t, h.d.Processes.IsAlive(pid))
	assert.Equal(t, model.StatusNotRunning, e.State().Status)
	assert.Equal(t, 0, h.reg.Len())
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	e := model.NewEntry("/a", "Alpha", model.Rect{})
	p := profile("p", e, model.NewEntry("/b", "", model.Rect{}))
	_, err := h.app.ApplyProfile(context.Background(), p)
	require.NoError(t, err)

	st := h.app.Status(p)
	require.Len(t, st, 2)
	assert.Equal(t, "Alpha", st[0].Name)
	assert.True(t, st[0].Monitored)
	assert.NotEmpty(t, st[0].Window)
}

// Windows that resist the first few moves, so each stabilization needs
// several correction cycles.
func stubbornHook(resist int) platformtest.SetPositionHook {
	return func(_ model.WindowHandle, requested, current model.Rect, call int) model.Rect {
		if call <= resist {
			return current
		}
		return requested
	}
}

func TestMonitorsStartOnlyAfterStabilization(t *testing.T) {
	h := newHarness(t)
	var (
		mu           sync.Mutex
		positions    int
		activeDuring int
	)
	resist := stubbornHook(3)
	h.d.Windows.SetHook(func(wh model.WindowHandle, requested, current model.Rect, call int) model.Rect {
		mu.Lock()
		positions++
		activeDuring += h.sup.Count()
		mu.Unlock()
		return resist(wh, requested, current, call)
	})

	a := model.NewEntry("/usr/bin/editor", "", model.Rect{X: 100, Y: 100, Width: 800, Height: 600})
	b := model.NewEntry("/usr/bin/term", "", model.Rect{X: 1000, Y: 100, Width: 600, Height: 400})
	rep, err := h.app.ApplyProfile(context.Background(), profile("p", a, b))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, positions, 0)
	assert.Zero(t, activeDuring, "a monitor was running while windows were being forced")
	for _, app := range rep.Apps {
		require.NotNil(t, app.Stabilize)
		assert.True(t, app.Stabilize.Converged())
		assert.True(t, app.Monitored)
	}
	assert.True(t, h.sup.Active(a.ProcessID()))
	assert.True(t, h.sup.Active(b.ProcessID()))
}

func TestStabilizationRunsConcurrently(t *testing.T) {
	h := newHarness(t)
	var (
		mu    sync.Mutex
		calls []model.WindowHandle
	)
	resist := stubbornHook(10)
	h.d.Windows.SetHook(func(wh model.WindowHandle, requested, current model.Rect, call int) model.Rect {
		mu.Lock()
		calls = append(calls, wh)
		mu.Unlock()
		return resist(wh, requested, current, call)
	})

	a := model.NewEntry("/usr/bin/editor", "", model.Rect{X: 100, Y: 100, Width: 800, Height: 600})
	b := model.NewEntry("/usr/bin/term", "", model.Rect{X: 1000, Y: 100, Width: 600, Height: 400})
	rep, err := h.app.ApplyProfile(context.Background(), profile("p", a, b))
	require.NoError(t, err)
	for _, app := range rep.Apps {
		require.NotNil(t, app.Stabilize)
		assert.True(t, app.Stabilize.Converged())
	}

	// Run one after the other, every call for the first window would come
	// before the first call for the second.
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, calls)
	first := calls[0]
	secondAt := -1
	for i, wh := range calls {
		if wh != first {
			secondAt = i
			break
		}
	}
	require.NotEqual(t, -1, secondAt, "only one window was positioned")
	lastFirst := 0
	for i, wh := range calls {
		if wh == first {
			lastFirst = i
		}
	}
	assert.Greater(t, lastFirst, secondAt, "stabilizations did not overlap")
}
