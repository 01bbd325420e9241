// Package app wires configuration and a platform provider into the profile
// engine and exposes the operations the CLI and MCP server call.
package app

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/applier"
	"github.com/mj1618/desktop-organizer/internal/capture"
	"github.com/mj1618/desktop-organizer/internal/config"
	"github.com/mj1618/desktop-organizer/internal/launcher"
	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/monitor"
	"github.com/mj1618/desktop-organizer/internal/platform"
	"github.com/mj1618/desktop-organizer/internal/poll"
	"github.com/mj1618/desktop-organizer/internal/profiles"
	"github.com/mj1618/desktop-organizer/internal/registry"
	"github.com/mj1618/desktop-organizer/internal/stabilize"
	"github.com/mj1618/desktop-organizer/internal/wallpaper"
)

// Runtime owns one registry and one monitor supervisor for the life of the
// process. Profiles applied through it share that state.
type Runtime struct {
	Config   *config.Config
	Provider *platform.Provider
	Store    *profiles.Store

	Registry  *registry.Registry
	Launcher  *launcher.Launcher
	Enforcer  *stabilize.Enforcer
	Monitors  *monitor.Supervisor
	Wallpaper *wallpaper.Applier
	Applier   *applier.Applier

	clock clockwork.Clock
	log   *logging.Logger
}

// Option customizes a Runtime.
type Option func(*Runtime)

// WithClock replaces the real clock in every polling loop.
func WithClock(c clockwork.Clock) Option { return func(r *Runtime) { r.clock = c } }

// WithStore uses s instead of opening the configured profiles directory.
func WithStore(s *profiles.Store) Option { return func(r *Runtime) { r.Store = s } }

// New builds a runtime from cfg and prov.
func New(cfg *config.Config, prov *platform.Provider, log *logging.Logger, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if prov == nil || prov.Windows == nil || prov.Processes == nil {
		return nil, fmt.Errorf("platform provider is incomplete")
	}
	if log == nil {
		log = logging.NewNop()
	}
	r := &Runtime{Config: cfg, Provider: prov, clock: clockwork.NewRealClock(), log: log}
	for _, o := range opts {
		o(r)
	}
	if r.Store == nil {
		s, err := profiles.NewStore(cfg.ResolveProfilesDir(), log)
		if err != nil {
			return nil, err
		}
		r.Store = s
	}

	r.Registry = registry.New(prov.Processes, prov.Windows)
	r.Launcher = launcher.New(prov.Processes, prov.Windows, r.Registry,
		launcher.WithClock(r.clock),
		launcher.WithLogger(log),
		launcher.WithPolling(cfg.Launch.PollInterval(), cfg.Launch.MaxPollAttempts),
	)
	r.Enforcer = stabilize.New(prov.Windows, prov.Processes, stabilize.Settings{
		Interval:        cfg.Stabilize.Interval(),
		MaxAttempts:     cfg.Stabilize.MaxAttempts,
		Tolerance:       cfg.Stabilize.TolerancePx,
		RequiredMatches: cfg.Stabilize.RequiredMatches,
	}, r.clock, log)
	r.Monitors = monitor.NewSupervisor(prov.Windows, prov.Processes, r.Registry,
		monitor.WithClock(r.clock),
		monitor.WithLogger(log),
		monitor.WithInterval(cfg.Monitor.Interval()),
		monitor.WithDriftTracking(!cfg.Features.DisableLiveTracking),
	)

	deps := applier.Deps{
		Windows:   prov.Windows,
		Processes: prov.Processes,
		Displays:  prov.Displays,
		Registry:  r.Registry,
		Launcher:  r.Launcher,
		Enforcer:  r.Enforcer,
		Monitors:  r.Monitors,
		Clock:     r.clock,
		Log:       log,
	}
	if !cfg.Features.DisableWallpaper && prov.Wallpaper != nil {
		r.Wallpaper = wallpaper.NewApplier(prov.Wallpaper, prov.Processes, cfg.Wallpaper.BlockingProcesses, log)
		deps.Wallpaper = r.Wallpaper
	}
	r.Applier = applier.New(deps, applier.Settings{
		SettleDelay:    cfg.Apply.SettleDelay(),
		RecenterOffset: cfg.Apply.RecenterOffsetPx,
		ForceWindow:    cfg.Monitor.ForceWindow(),
	})
	return r, nil
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *logging.Logger { return r.log }

// Activation is the result of Activate: the applier report plus the desktop
// collaborators that run around it.
type Activation struct {
	applier.Report `yaml:",inline"`

	Desktop      string `yaml:"desktop,omitempty"       json:"desktop,omitempty"`
	DesktopError string `yaml:"desktop_error,omitempty" json:"desktop_error,omitempty"`
	Volume       *int   `yaml:"volume,omitempty"        json:"volume,omitempty"`
	VolumeError  string `yaml:"volume_error,omitempty"  json:"volume_error,omitempty"`
}

// Activate switches to the profile's virtual desktop, sets the volume and
// then applies the profile. Desktop and volume failures are recorded and do
// not stop the apply.
func (r *Runtime) Activate(ctx context.Context, p *model.WorkspaceProfile) (*Activation, error) {
	if p == nil {
		return nil, applier.ErrNilProfile
	}
	act := &Activation{}
	log := r.log.WithProfile(p.Name)

	if id := p.VirtualDesktopID; id != "" && !r.Config.Features.DisableVirtualDesktop && r.Provider.Desktops != nil {
		if err := r.switchDesktop(ctx, p); err != nil {
			act.DesktopError = err.Error()
			log.Warn("virtual desktop switch failed, applying on the current desktop", zap.String("desktop", id), zap.Error(err))
		} else {
			act.Desktop = id
		}
	}

	if p.Volume != nil && !r.Config.Features.DisableVolume && r.Provider.Volume != nil {
		if err := r.Provider.Volume.SetVolume(*p.Volume); err != nil {
			act.VolumeError = err.Error()
			log.Warn("volume not set", zap.Int("volume", *p.Volume), zap.Error(err))
		} else {
			v := *p.Volume
			act.Volume = &v
		}
	}

	report, err := r.Applier.ApplyProfile(ctx, p)
	if err != nil {
		return nil, err
	}
	act.Report = *report
	return act, nil
}

func (r *Runtime) switchDesktop(ctx context.Context, p *model.WorkspaceProfile) error {
	d := r.Provider.Desktops
	if err := d.SwitchTo(p.VirtualDesktopID); err != nil {
		return err
	}
	if p.RenameVirtualDesktop {
		if err := d.Rename(p.VirtualDesktopID, p.Name); err != nil {
			r.log.Warn("virtual desktop rename failed", zap.String("desktop", p.VirtualDesktopID), zap.Error(err))
		}
	}
	return poll.Sleep(ctx, r.clock, r.Config.Apply.DesktopSwitchDelay())
}

// ActivateByName loads a profile from the store and activates it.
func (r *Runtime) ActivateByName(ctx context.Context, name string) (*model.WorkspaceProfile, *Activation, error) {
	p, err := r.Store.Load(name)
	if err != nil {
		return nil, nil, err
	}
	act, err := r.Activate(ctx, p)
	return p, act, err
}

// Capture snapshots the live windows into a profile. It is not saved.
func (r *Runtime) Capture(name string, opts capture.Options) (*model.WorkspaceProfile, error) {
	if err := profiles.ValidateName(name); err != nil {
		return nil, err
	}
	p, err := capture.Capture(name, r.Provider.Windows, r.Provider.Processes, r.Provider.Displays, opts)
	if err != nil {
		return nil, fmt.Errorf("capturing windows: %w", err)
	}
	for _, e := range p.Apps {
		r.Registry.Update(e)
	}
	return p, nil
}

// Status attaches p to running processes and reports every entry.
func (r *Runtime) Status(p *model.WorkspaceProfile) []applier.AppStatus {
	r.Applier.Attach(p)
	return r.Applier.Status(p)
}

// Kill terminates every live app in p.
func (r *Runtime) Kill(p *model.WorkspaceProfile) int {
	r.Applier.Attach(p)
	return r.Applier.Kill(p.Apps)
}

// Shutdown stops all monitor loops.
func (r *Runtime) Shutdown() {
	r.Monitors.StopAll()
}
