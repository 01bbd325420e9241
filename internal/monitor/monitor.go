// Package monitor runs one background loop per tracked process that follows
// its window and records drift.
//
// Loops are detached: nobody waits for their result. The Supervisor keeps
// only what it needs to cancel them, keyed by pid, so restarting a monitor
// for a pid is cancel-old then start-new and at most one loop per pid is ever
// live.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/metrics"
	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/platform"
	"github.com/mj1618/desktop-organizer/internal/poll"
	"github.com/mj1618/desktop-organizer/internal/registry"
)

// LivenessChecker confirms a pid is still running.
type LivenessChecker interface {
	IsAlive(pid int) bool
}

// DriftSink receives every change a loop observes. It is called from the
// loop goroutine and must not block.
type DriftSink func(e *model.ApplicationEntry, ev model.DriftEvent)

type loop struct {
	id     uint64
	pid    int
	entry  *model.ApplicationEntry
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor owns the monitor loops.
type Supervisor struct {
	windows  platform.WindowManager
	alive    LivenessChecker
	registry *registry.Registry
	clock    clockwork.Clock
	log      *logging.Logger

	interval   time.Duration
	trackDrift bool

	mu     sync.Mutex
	loops  map[int]*loop
	nextID uint64
	sinks  []DriftSink
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithClock replaces the real clock.
func WithClock(c clockwork.Clock) Option { return func(s *Supervisor) { s.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option { return func(s *Supervisor) { s.log = l } }

// WithInterval sets the cycle length (default 200ms).
func WithInterval(d time.Duration) Option { return func(s *Supervisor) { s.interval = d } }

// WithDriftTracking turns writing observed geometry back into entries on or
// off. Exit detection and force windows work either way.
func WithDriftTracking(on bool) Option { return func(s *Supervisor) { s.trackDrift = on } }

// NewSupervisor creates a supervisor with no running loops.
func NewSupervisor(windows platform.WindowManager, alive LivenessChecker, reg *registry.Registry, opts ...Option) *Supervisor {
	s := &Supervisor{
		windows:    windows,
		alive:      alive,
		registry:   reg,
		clock:      clockwork.NewRealClock(),
		log:        logging.NewNop(),
		interval:   200 * time.Millisecond,
		trackDrift: true,
		loops:      make(map[int]*loop),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("monitor")
	return s
}

// OnDrift registers a sink for drift and exit events.
func (s *Supervisor) OnDrift(sink DriftSink) {
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
}

// Start begins monitoring e's current pid, replacing any loop already
// watching that pid. It returns false when e has no pid.
func (s *Supervisor) Start(e *model.ApplicationEntry) bool {
	st := e.State()
	pid := st.ProcessID
	if pid == 0 {
		return false
	}

	// Seed the last observation so the first cycle does not report the
	// saved geometry as drift.
	observed := st.LastObservedRect
	if e.HasSavedPosition() {
		observed = e.SavedRect()
	}
	style := st.LastObservedStyle
	if st.WindowHandle != 0 {
		if got := s.windows.GetStyle(st.WindowHandle); got != 0 {
			style = got
		}
	}
	e.SetObserved(observed, style)

	ctx, cancel := context.WithCancel(context.Background())
	l := &loop{pid: pid, entry: e, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.nextID++
	l.id = s.nextID
	prev := s.loops[pid]
	s.loops[pid] = l
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	metrics.MonitorsActive.Inc()
	go s.run(ctx, l)
	s.log.Debug("monitor started", zap.String("app", e.Name()), zap.Int("pid", pid))
	return true
}

// Stop cancels the loop for pid and waits for it to exit.
func (s *Supervisor) Stop(pid int) {
	s.mu.Lock()
	l := s.loops[pid]
	delete(s.loops, pid)
	s.mu.Unlock()
	if l != nil {
		l.cancel()
		<-l.done
	}
}

// StopEntry stops the loop watching e's current pid, if any.
func (s *Supervisor) StopEntry(e *model.ApplicationEntry) {
	if pid := e.ProcessID(); pid != 0 {
		s.Stop(pid)
	}
}

// StopAll cancels every loop and waits for them.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	loops := make([]*loop, 0, len(s.loops))
	for _, l := range s.loops {
		loops = append(loops, l)
	}
	s.loops = make(map[int]*loop)
	s.mu.Unlock()

	for _, l := range loops {
		l.cancel()
	}
	for _, l := range loops {
		<-l.done
	}
}

// Active reports whether a loop is watching pid.
func (s *Supervisor) Active(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loops[pid]
	return ok
}

// Count returns the number of running loops.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loops)
}

// PIDs returns the monitored pids in ascending order.
func (s *Supervisor) PIDs() []int {
	s.mu.Lock()
	pids := make([]int, 0, len(s.loops))
	for pid := range s.loops {
		pids = append(pids, pid)
	}
	s.mu.Unlock()
	sort.Ints(pids)
	return pids
}

func (s *Supervisor) run(ctx context.Context, l *loop) {
	log := s.log.WithApp(l.entry.Name(), l.pid)
	defer func() {
		s.mu.Lock()
		if cur, ok := s.loops[l.pid]; ok && cur.id == l.id {
			delete(s.loops, l.pid)
		}
		s.mu.Unlock()
		metrics.MonitorsActive.Dec()
		close(l.done)
	}()

	for {
		if !s.cycle(ctx, l, log) {
			return
		}
		if poll.Sleep(ctx, s.clock, s.interval) != nil {
			return
		}
	}
}

// cycle runs one observation and reports whether the loop should continue.
func (s *Supervisor) cycle(ctx context.Context, l *loop, log *logging.Logger) bool {
	if ctx.Err() != nil {
		return false
	}
	e := l.entry
	if e.ProcessID() != l.pid {
		// Killed or relaunched under another pid.
		return false
	}
	if !s.alive.IsAlive(l.pid) {
		e.MarkNotRunning()
		s.registry.Update(e)
		log.Info("process exited")
		metrics.DriftEventsTotal.WithLabelValues(string(model.ChangeExited)).Inc()
		s.emit(e, model.DriftEvent{Type: model.ChangeExited, TS: s.clock.Now().Unix(), App: e.Name(), PID: l.pid})
		return false
	}

	h, r, ok := s.observe(e, l.pid)
	if !ok {
		return true
	}
	style := s.windows.GetStyle(h)
	if e.State().Status != model.StatusRunning {
		e.MarkRunning(h)
		s.registry.Update(e)
	}

	if s.clock.Now().Before(e.ForceUntil()) {
		saved := e.SavedRect()
		if !saved.IsEmpty() {
			s.windows.SetPosition(h, saved)
		}
		return true
	}

	last := e.State()
	changes := model.DiffGeometry(last.LastObservedRect, last.LastObservedStyle, r, style)
	if changes == nil {
		return true
	}
	e.SetObserved(r, style)
	if s.trackDrift {
		e.SetSavedRect(r)
	}
	s.registry.Update(e)

	ev := model.NewDriftEvent(e.Name(), l.pid, changes, s.clock.Now())
	metrics.DriftEventsTotal.WithLabelValues(string(ev.Type)).Inc()
	log.Debug("window changed", zap.String("type", string(ev.Type)), zap.Stringer("rect", r))
	s.emit(e, ev)
	return true
}

// observe resolves the window for pid and reads its rectangle. A missing
// window is not an exit; the caller simply tries again next cycle.
func (s *Supervisor) observe(e *model.ApplicationEntry, pid int) (model.WindowHandle, model.Rect, bool) {
	if h := e.State().WindowHandle; h != 0 {
		if r, ok := s.windows.GetRect(h); ok {
			return h, r, true
		}
	}
	h, ok := s.windows.FindWindowByProcessID(pid)
	if !ok {
		e.SetWindowHandle(0)
		return 0, model.Rect{}, false
	}
	e.SetWindowHandle(h)
	r, ok := s.windows.GetRect(h)
	if !ok {
		return 0, model.Rect{}, false
	}
	return h, r, true
}

func (s *Supervisor) emit(e *model.ApplicationEntry, ev model.DriftEvent) {
	s.mu.Lock()
	sinks := append([]DriftSink(nil), s.sinks...)
	s.mu.Unlock()
	for _, sink := range sinks {
		sink(e, ev)
	}
}
