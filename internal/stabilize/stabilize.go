// Package stabilize forces a window onto its saved rectangle until the
// position holds.
//
// Some windows settle asynchronously after a move (they animate, or the
// application restores its own geometry a moment later), so a single
// matching read is not proof. The enforcer requires several consecutive
// matches within a pixel tolerance and gives up quietly after a bounded
// number of attempts.
package stabilize

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/metrics"
	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/platform"
	"github.com/mj1618/desktop-organizer/internal/poll"
)

// Outcome names how a stabilization run ended.
type Outcome string

const (
	OutcomeConverged Outcome = "converged"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeExited    Outcome = "exited"
)

// Result describes one ForceUntilStable run.
type Result struct {
	Outcome  Outcome    `yaml:"outcome"         json:"outcome"`
	Attempts int        `yaml:"attempts"        json:"attempts"`
	Final    model.Rect `yaml:"final,omitempty" json:"final,omitempty"`
}

// Converged reports whether the window held its target.
func (r Result) Converged() bool { return r.Outcome == OutcomeConverged }

// LivenessChecker confirms a pid is still running.
type LivenessChecker interface {
	IsAlive(pid int) bool
}

// Settings tune the loop.
type Settings struct {
	Interval        time.Duration
	MaxAttempts     int
	Tolerance       int
	RequiredMatches int
}

// DefaultSettings is 30 attempts at 200ms, 2px tolerance, 3 matches.
func DefaultSettings() Settings {
	return Settings{
		Interval:        200 * time.Millisecond,
		MaxAttempts:     30,
		Tolerance:       2,
		RequiredMatches: 3,
	}
}

// Enforcer runs stabilization loops. It holds no per-window state and is
// safe for concurrent use.
type Enforcer struct {
	windows  platform.WindowManager
	alive    LivenessChecker
	clock    clockwork.Clock
	log      *logging.Logger
	settings Settings
}

// New creates an enforcer. A nil log discards output; a nil clock uses the
// real one.
func New(windows platform.WindowManager, alive LivenessChecker, settings Settings, clock clockwork.Clock, log *logging.Logger) *Enforcer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Enforcer{
		windows:  windows,
		alive:    alive,
		clock:    clock,
		log:      log.Named("stabilize"),
		settings: settings,
	}
}

// ForceUntilStable moves e's window to its saved rectangle until it is
// observed there RequiredMatches times in a row. It is a no-op without a
// saved position or a live pid. Exhausting the attempts is logged, not
// returned: the window keeps whatever position it last took.
func (s *Enforcer) ForceUntilStable(ctx context.Context, e *model.ApplicationEntry) Result {
	if !e.HasSavedPosition() || !e.IsLive() {
		metrics.StabilizeResults.WithLabelValues(string(OutcomeSkipped)).Inc()
		return Result{Outcome: OutcomeSkipped}
	}

	target := e.SavedRect()
	log := s.log.With(zap.String("app", e.Name()), zap.Stringer("target", target))
	res := Result{Outcome: OutcomeExhausted}
	matches := 0

	for attempt := 1; attempt <= s.settings.MaxAttempts; attempt++ {
		res.Attempts = attempt

		pid := e.ProcessID()
		if pid == 0 || !s.alive.IsAlive(pid) {
			res.Outcome = OutcomeExited
			break
		}

		h := s.resolve(e, pid)
		if h == 0 {
			matches = 0
			if poll.Sleep(ctx, s.clock, s.settings.Interval) != nil {
				break
			}
			continue
		}

		s.windows.SetPosition(h, target)
		if poll.Sleep(ctx, s.clock, s.settings.Interval) != nil {
			break
		}

		r, ok := s.windows.GetRect(h)
		if !ok {
			// Stale handle; look it up again next time.
			e.SetWindowHandle(0)
			matches = 0
			continue
		}
		res.Final = r

		if !r.Within(target, s.settings.Tolerance) {
			log.Debug("window off target", zap.Int("attempt", attempt), zap.Stringer("observed", r))
			matches = 0
			continue
		}
		matches++
		if matches >= s.settings.RequiredMatches {
			res.Outcome = OutcomeConverged
			break
		}
	}

	metrics.StabilizeAttempts.Observe(float64(res.Attempts))
	metrics.StabilizeResults.WithLabelValues(string(res.Outcome)).Inc()

	switch res.Outcome {
	case OutcomeConverged:
		log.Info("window stable", zap.Int("attempts", res.Attempts))
	case OutcomeExited:
		log.Info("process exited during stabilization", zap.Int("attempts", res.Attempts))
	default:
		log.Warn("window did not stabilize", zap.Int("attempts", res.Attempts), zap.Stringer("last", res.Final))
	}
	return res
}

// resolve prefers the tracked handle and falls back to a pid lookup.
func (s *Enforcer) resolve(e *model.ApplicationEntry, pid int) model.WindowHandle {
	if h := e.State().WindowHandle; h != 0 {
		return h
	}
	h, ok := s.windows.FindWindowByProcessID(pid)
	if !ok {
		return 0
	}
	e.SetWindowHandle(h)
	return h
}
