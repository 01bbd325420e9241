package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mj1618/desktop-organizer/internal/app"
	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/profiles"
)

// openStore opens the configured profiles directory without touching the
// display server.
func openStore() (*profiles.Store, error) {
	return profiles.NewStore(cfg.ResolveProfilesDir(), logger)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// markDirtyOnDrift flags p as changed whenever one of its windows moves.
func markDirtyOnDrift(rt *app.Runtime, p *model.WorkspaceProfile) {
	rt.Monitors.OnDrift(func(e *model.ApplicationEntry, ev model.DriftEvent) {
		if ev.Type == model.ChangeExited {
			return
		}
		for _, a := range p.Apps {
			if a == e {
				p.MarkDirty()
				return
			}
		}
	})
}
