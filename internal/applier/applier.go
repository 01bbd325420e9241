// Package applier brings the desktop into the state a workspace profile
// describes.
//
// ApplyProfile runs a fixed sequence of phases: minimize, kill-on-switch,
// display reconciliation, launch, wallpaper, settle, re-center, concurrent
// stabilization and finally monitoring. Per-app problems end up in the
// entry state and the Report; only a failure of the sequence itself is
// returned as an error.
package applier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/launcher"
	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/metrics"
	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/monitor"
	"github.com/mj1618/desktop-organizer/internal/platform"
	"github.com/mj1618/desktop-organizer/internal/poll"
	"github.com/mj1618/desktop-organizer/internal/registry"
	"github.com/mj1618/desktop-organizer/internal/stabilize"
)

// ErrNilProfile is returned when ApplyProfile gets no profile.
var ErrNilProfile = errors.New("profile is nil")

// WallpaperApplier applies a wallpaper and reports success with a message.
type WallpaperApplier interface {
	ApplyIfSafe(path string) (bool, string)
}

// Settings tune the applier.
type Settings struct {
	// SettleDelay is waited after launching so windows can materialize.
	SettleDelay time.Duration
	// RecenterOffset pins windows larger than the primary display this far
	// from its corner.
	RecenterOffset int
	// ForceWindow keeps re-applying the saved geometry for this long after
	// stabilization.
	ForceWindow time.Duration
}

// DefaultSettings waits 2s, uses a 50px offset and a 3s force window.
func DefaultSettings() Settings {
	return Settings{
		SettleDelay:    2 * time.Second,
		RecenterOffset: 50,
		ForceWindow:    3 * time.Second,
	}
}

// Deps are the collaborators an Applier drives. Wallpaper may be nil.
type Deps struct {
	Windows   platform.WindowManager
	Processes platform.ProcessManager
	Displays  platform.DisplayProvider
	Registry  *registry.Registry
	Launcher  *launcher.Launcher
	Enforcer  *stabilize.Enforcer
	Monitors  *monitor.Supervisor
	Wallpaper WallpaperApplier
	Clock     clockwork.Clock
	Log       *logging.Logger
}

// Applier orchestrates profile application.
type Applier struct {
	Deps
	settings Settings
}

// New creates an applier.
func New(deps Deps, settings Settings) *Applier {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Log == nil {
		deps.Log = logging.NewNop()
	}
	deps.Log = deps.Log.Named("applier")
	return &Applier{Deps: deps, settings: settings}
}

// applyRun carries per-run bookkeeping.
type applyRun struct {
	profile   *model.WorkspaceProfile
	log       *logging.Logger
	report    *Report
	displays  []model.Display
	recenter  map[*model.ApplicationEntry]bool
	killed    map[*model.ApplicationEntry]bool
	launched  map[*model.ApplicationEntry]bool
	stabilize map[*model.ApplicationEntry]*stabilize.Result
}

// ApplyProfile applies p. Once started it runs to completion: ctx is used
// only for its values, not its cancellation.
func (a *Applier) ApplyProfile(ctx context.Context, p *model.WorkspaceProfile) (report *Report, err error) {
	if p == nil {
		metrics.ProfileAppliesTotal.WithLabelValues("error").Inc()
		return nil, ErrNilProfile
	}
	ctx = context.WithoutCancel(ctx)
	start := a.Clock.Now()

	run := &applyRun{
		profile:   p,
		recenter:  make(map[*model.ApplicationEntry]bool),
		killed:    make(map[*model.ApplicationEntry]bool),
		launched:  make(map[*model.ApplicationEntry]bool),
		stabilize: make(map[*model.ApplicationEntry]*stabilize.Result),
		report: &Report{
			RunID:     uuid.NewString(),
			Profile:   p.Name,
			StartedAt: start,
		},
	}
	run.log = logging.Wrap(a.Log.WithProfile(p.Name).With(zap.String("run_id", run.report.RunID)))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("applying profile %q: %v", p.Name, r)
			report = nil
		}
		result := "ok"
		if err != nil {
			result = "error"
			run.log.Error("profile apply failed", zap.Error(err))
		}
		metrics.ProfileAppliesTotal.WithLabelValues(result).Inc()
		metrics.ProfileApplyDuration.Observe(a.Clock.Since(start).Seconds())
	}()

	run.log.Info("applying profile", zap.Int("apps", len(p.Apps)))

	// Reattach to anything another profile (or an earlier run) left running.
	a.Registry.Refresh(p.Apps)

	a.minimize(run)
	a.killOnSwitch(run)
	a.reconcileDisplays(run)
	a.launch(ctx, run)
	a.applyWallpaper(run)
	a.settle(ctx, run)
	a.recenterFresh(run)
	a.stabilizeAll(ctx, run)
	a.startMonitors(run)

	p.CreatedFromSnapshot = false

	for _, e := range p.Apps {
		s := statusOf(e)
		s.Killed = run.killed[e]
		s.Launched = run.launched[e]
		s.Recentered = run.recenter[e]
		s.Stabilize = run.stabilize[e]
		s.Monitored = a.Monitors.Active(s.PID)
		run.report.Apps = append(run.report.Apps, s)
	}
	run.report.Duration = a.Clock.Since(start)
	run.log.Info("profile applied",
		zap.Int("running", run.report.Running()),
		zap.Int("failed", run.report.Failed()),
		zap.Duration("took", run.report.Duration))
	return run.report, nil
}

// Phase 1. A profile just captured from live windows would minimize the
// very windows it describes.
func (a *Applier) minimize(run *applyRun) {
	if run.profile.CreatedFromSnapshot {
		run.log.Debug("skipping minimize for snapshot profile")
		return
	}
	a.Windows.MinimizeAllUserWindows()
	run.report.Minimized = true
}

// Phase 2.
func (a *Applier) killOnSwitch(run *applyRun) {
	for _, e := range run.profile.Apps {
		if e.KillOnSwitch && e.IsLive() {
			a.killEntry(run.log, e)
			run.killed[e] = true
		}
	}
}

// Phase 3. Entries saved on a display that is gone lose their geometry and
// are relaunched fresh, then re-centered on the primary display.
func (a *Applier) reconcileDisplays(run *applyRun) {
	displays, err := a.Displays.GetActiveDisplays()
	if err != nil {
		run.report.DisplayError = err.Error()
		run.log.Warn("display query failed, skipping reconciliation", zap.Error(err))
		return
	}
	if len(displays) == 0 {
		run.report.DisplayError = "no active displays"
		run.log.Warn("no active displays, skipping reconciliation")
		return
	}
	run.displays = displays

	for _, e := range run.profile.Apps {
		if !e.HasSavedPosition() {
			continue
		}
		saved := e.SavedRect()
		if _, ok := model.DisplayAt(displays, saved.X, saved.Y); ok {
			continue
		}
		run.log.Info("saved display no longer active",
			zap.String("app", e.Name()), zap.Stringer("saved", saved), zap.String("monitor", e.AssignedMonitorID))
		if e.IsLive() {
			a.killEntry(run.log, e)
			run.killed[e] = true
		}
		e.ClearSavedRect()
		run.recenter[e] = true
		run.profile.MarkDirty()
	}
}

// Phase 4. Entries still live after the registry refresh are reattached,
// not relaunched.
func (a *Applier) launch(ctx context.Context, run *applyRun) {
	var pending []*model.ApplicationEntry
	for _, e := range run.profile.Apps {
		if e.IsLive() {
			run.log.Debug("already running", zap.String("app", e.Name()), zap.Int("pid", e.ProcessID()))
			continue
		}
		pending = append(pending, e)
		run.launched[e] = true
	}
	if len(pending) == 0 {
		return
	}
	run.log.Info("launching apps", zap.Int("count", len(pending)))
	if err := a.Launcher.LaunchMany(ctx, pending); err != nil {
		run.log.Warn("some launches failed", zap.Error(err))
	}
}

// Phase 5.
func (a *Applier) applyWallpaper(run *applyRun) {
	path := run.profile.WallpaperPath
	if path == "" || a.Wallpaper == nil {
		return
	}
	ok, msg := a.Wallpaper.ApplyIfSafe(path)
	run.report.WallpaperApplied = ok
	run.report.WallpaperError = msg
}

// Phase 6.
func (a *Applier) settle(ctx context.Context, run *applyRun) {
	if a.settings.SettleDelay <= 0 {
		return
	}
	run.log.Debug("waiting for windows to settle", zap.Duration("delay", a.settings.SettleDelay))
	_ = poll.Sleep(ctx, a.Clock, a.settings.SettleDelay)
}

// Phase 7. The window's actual size is kept: it may differ from what was
// saved when the old display had another scale.
func (a *Applier) recenterFresh(run *applyRun) {
	if len(run.recenter) == 0 {
		return
	}
	primary, ok := model.PrimaryDisplay(run.displays)
	if !ok {
		return
	}
	for _, e := range run.profile.Apps {
		if !run.recenter[e] || !e.IsLive() {
			continue
		}
		h := e.State().WindowHandle
		if h == 0 {
			found, ok := a.Windows.FindWindowByProcessID(e.ProcessID())
			if !ok {
				run.log.Warn("no window to re-center", zap.String("app", e.Name()))
				continue
			}
			h = found
			e.SetWindowHandle(h)
		}
		actual, ok := a.Windows.GetRect(h)
		if !ok || actual.IsEmpty() {
			run.log.Warn("cannot read window size for re-centering", zap.String("app", e.Name()))
			continue
		}
		r := model.CenterOn(primary.Bounds, actual.Width, actual.Height, a.settings.RecenterOffset)
		a.Windows.SetPosition(h, r)
		e.Reposition(r, primary.DeviceID)
		a.Registry.Update(e)
		run.profile.MarkDirty()
		run.log.Info("re-centered on primary display",
			zap.String("app", e.Name()), zap.Stringer("rect", r), zap.String("monitor", primary.DeviceID))
	}
}

// Phase 8. One goroutine per app, joined before monitoring starts.
func (a *Applier) stabilizeAll(ctx context.Context, run *applyRun) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, e := range run.profile.Apps {
		if !e.HasSavedPosition() || !e.IsLive() {
			continue
		}
		wg.Add(1)
		go func(e *model.ApplicationEntry) {
			defer wg.Done()
			res := a.Enforcer.ForceUntilStable(ctx, e)
			if res.Outcome != stabilize.OutcomeExited && a.settings.ForceWindow > 0 {
				e.SetForceUntil(a.Clock.Now().Add(a.settings.ForceWindow))
			}
			mu.Lock()
			run.stabilize[e] = &res
			mu.Unlock()
		}(e)
	}
	wg.Wait()
}

// Phase 9.
func (a *Applier) startMonitors(run *applyRun) {
	for _, e := range run.profile.Apps {
		if e.IsLive() {
			a.Monitors.Start(e)
		}
	}
}

// Kill stops monitoring, terminates and clears every live entry in
// entries. Individual kill failures are logged and otherwise ignored.
func (a *Applier) Kill(entries []*model.ApplicationEntry) int {
	n := 0
	for _, e := range entries {
		if e.IsLive() {
			a.killEntry(a.Log, e)
			n++
		}
	}
	return n
}

func (a *Applier) killEntry(log *logging.Logger, e *model.ApplicationEntry) {
	pid := e.ProcessID()
	a.Monitors.Stop(pid)
	if err := a.Processes.Kill(pid); err != nil {
		log.Warn("kill failed", zap.String("app", e.Name()), zap.Int("pid", pid), zap.Error(err))
	} else {
		log.Info("killed", zap.String("app", e.Name()), zap.Int("pid", pid))
	}
	e.MarkNotRunning()
	e.SetForceUntil(time.Time{})
	a.Registry.Update(e)
}

// Attach refreshes p from the registry and then matches entries that are
// still not live to already open windows by executable path. It returns
// the number of entries attached by path.
func (a *Applier) Attach(p *model.WorkspaceProfile) int {
	if p == nil {
		return 0
	}
	a.Registry.Refresh(p.Apps)
	n := 0
	for _, e := range p.Apps {
		if e.IsLive() || e.ExecutablePath == "" {
			continue
		}
		h, ok := a.Windows.FindWindowByExecutablePath(e.ExecutablePath)
		if !ok {
			continue
		}
		pid := a.Windows.ProcessID(h)
		if pid == 0 {
			continue
		}
		e.MarkStarted(pid)
		e.MarkRunning(h)
		a.Registry.Update(e)
		n++
	}
	return n
}

// Status returns the current state of every entry in p.
func (a *Applier) Status(p *model.WorkspaceProfile) []AppStatus {
	out := make([]AppStatus, 0, len(p.Apps))
	for _, e := range p.Apps {
		s := statusOf(e)
		s.Monitored = s.PID != 0 && a.Monitors.Active(s.PID)
		out = append(out, s)
	}
	return out
}
