// Package launcher starts application processes and waits for their main
// window.
package launcher

import (
	"context"
	"errors"
	"fmt"
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

// ErrWindowNeverAppeared is recorded when a process starts but shows no
// window within the discovery bound.
var ErrWindowNeverAppeared = errors.New("window never appeared")

// Launcher spawns processes for application entries. Every state transition
// is published to the registry as soon as it happens.
type Launcher struct {
	processes platform.ProcessManager
	windows   platform.WindowManager
	registry  *registry.Registry
	clock     clockwork.Clock
	log       *logging.Logger

	pollInterval time.Duration
	maxAttempts  int
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithClock replaces the real clock.
func WithClock(c clockwork.Clock) Option { return func(l *Launcher) { l.clock = c } }

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option { return func(l *Launcher) { l.log = log } }

// WithPolling sets how often and how many times to look for the main window.
func WithPolling(interval time.Duration, attempts int) Option {
	return func(l *Launcher) {
		l.pollInterval = interval
		l.maxAttempts = attempts
	}
}

// New creates a launcher polling every 100ms for up to 50 attempts.
func New(processes platform.ProcessManager, windows platform.WindowManager, reg *registry.Registry, opts ...Option) *Launcher {
	l := &Launcher{
		processes:    processes,
		windows:      windows,
		registry:     reg,
		clock:        clockwork.NewRealClock(),
		log:          logging.NewNop(),
		pollInterval: 100 * time.Millisecond,
		maxAttempts:  50,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.Named("launcher")
	return l
}

// LaunchOne starts e and waits for its main window. Failures are recorded on
// the entry (Failed + LastError) and also returned for logging; they are
// never fatal to the caller.
func (l *Launcher) LaunchOne(ctx context.Context, e *model.ApplicationEntry) error {
	log := l.log.With(zap.String("app", e.Name()), zap.String("path", e.ExecutablePath))
	log.Info("launching")

	e.MarkLaunching()
	l.registry.Update(e)

	pid, err := l.processes.Start(e.ExecutablePath)
	if err != nil {
		e.MarkFailed(err.Error())
		l.registry.Update(e)
		metrics.LaunchesTotal.WithLabelValues("failed").Inc()
		log.Error("launch failed", zap.Error(err))
		return fmt.Errorf("launching %s: %w", e.Name(), err)
	}

	e.MarkStarted(pid)
	l.registry.Update(e)
	log = log.With(zap.Int("pid", pid))
	log.Info("process started")

	start := l.clock.Now()
	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		if h, ok := l.windows.FindWindowByProcessID(pid); ok {
			e.MarkRunning(h)
			l.registry.Update(e)
			metrics.LaunchesTotal.WithLabelValues("running").Inc()
			metrics.LaunchWindowWait.Observe(l.clock.Since(start).Seconds())
			log.Info("window found", zap.Stringer("window", h))
			return nil
		}
		if err := poll.Sleep(ctx, l.clock, l.pollInterval); err != nil {
			break
		}
	}

	e.MarkFailed(ErrWindowNeverAppeared.Error())
	l.registry.Update(e)
	metrics.LaunchesTotal.WithLabelValues("no_window").Inc()
	log.Warn("window never appeared", zap.Int("attempts", l.maxAttempts))
	return fmt.Errorf("launching %s: %w", e.Name(), ErrWindowNeverAppeared)
}

// LaunchMany launches entries strictly in order, sleeping each entry's
// launch delay before it. One failure never stops the batch; the joined
// failures are returned. A cancelled ctx stops before the next entry.
func (l *Launcher) LaunchMany(ctx context.Context, entries []*model.ApplicationEntry) error {
	var errs []error
	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.LaunchDelaySeconds > 0 {
			l.log.Debug("launch delay", zap.String("app", e.Name()), zap.Int("seconds", e.LaunchDelaySeconds))
			if err := poll.Sleep(ctx, l.clock, time.Duration(e.LaunchDelaySeconds)*time.Second); err != nil {
				return errors.Join(append(errs, err)...)
			}
		}
		if err := l.LaunchOne(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
