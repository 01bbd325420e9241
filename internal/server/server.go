// Package server exposes the profile engine as Model Context Protocol tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/app"
	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/profiles"
	"github.com/mj1618/desktop-organizer/internal/version"
)

// Server wraps the MCP server with the runtime, the window cache and the
// profiles applied during this session.
type Server struct {
	rt    *app.Runtime
	cache *WindowCache
	log   *logging.Logger
	mcp   *mcpserver.MCPServer

	// opMu serializes tools that drive the desktop.
	opMu sync.Mutex

	mu     sync.Mutex
	active map[string]*model.WorkspaceProfile

	// written maps a profile name to the fingerprint of the file this
	// server last wrote for it. Guarded by mu.
	written map[string]string
}

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
	Clock     clockwork.Clock
}

// New creates a server with every tool registered.
func New(rt *app.Runtime, cfg Config) *Server {
	s := &Server{
		rt:      rt,
		cache:   NewWindowCache(cfg.CacheTTL, cfg.Clock),
		log:     rt.Logger().Named("mcp"),
		active:  make(map[string]*model.WorkspaceProfile),
		written: make(map[string]string),
	}
	s.mcp = mcpserver.NewMCPServer("desktop-organizer", version.Version)
	s.registerTools()
	rt.Monitors.OnDrift(s.onDrift)
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve runs the configured transport until ctx is done or the transport
// fails.
func (s *Server) Serve(ctx context.Context, cfg Config) error {
	switch cfg.Transport {
	case "", "stdio":
		s.log.Info("serving MCP over stdio")
		return mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	case "http", "streamable-http":
		addr := fmt.Sprintf(":%d", cfg.Port)
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(addr) }()
		s.log.Info("serving MCP over streamable HTTP", zap.String("addr", addr))
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or http)", cfg.Transport)
	}
}

// ApplyStartup activates a stored profile before serving.
func (s *Server) ApplyStartup(ctx context.Context, name string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	p, act, err := s.rt.ActivateByName(ctx, name)
	if err != nil {
		return err
	}
	s.setActive(p)
	s.cache.Invalidate()
	s.log.Info("startup profile applied", zap.String("profile", name),
		zap.Int("running", act.Running()), zap.Int("failed", act.Failed()))
	return nil
}

// Active returns the in-memory profile applied under name.
func (s *Server) Active(name string) (*model.WorkspaceProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.active[name]
	return p, ok
}

func (s *Server) setActive(p *model.WorkspaceProfile) {
	s.mu.Lock()
	s.active[p.Name] = p
	s.mu.Unlock()
}

// profile returns the active copy of name, else loads it from the store.
func (s *Server) profile(name string) (*model.WorkspaceProfile, error) {
	if p, ok := s.Active(name); ok {
		return p, nil
	}
	return s.rt.Store.Load(name)
}

// save writes p and remembers the file it produced, so the watcher event
// caused by this write does not reload the profile.
func (s *Server) save(p *model.WorkspaceProfile) error {
	if err := s.rt.Store.Save(p); err != nil {
		return err
	}
	fp, err := s.rt.Store.Fingerprint(p.Name)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	s.written[p.Name] = fp
	s.mu.Unlock()
	return nil
}

// ownWrite reports whether the file for name is still the one this server
// last saved.
func (s *Server) ownWrite(name string) bool {
	fp, err := s.rt.Store.Fingerprint(name)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written[name] == fp
}

// ProfilesChanged reloads active profiles whose files changed on disk,
// moves running windows to the new geometry and points the monitors at the
// reloaded entries. Profiles with unsaved drift are left alone, and so are
// files this server wrote itself.
func (s *Server) ProfilesChanged(names []string) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	for _, name := range names {
		old, ok := s.Active(name)
		if !ok {
			continue
		}
		log := s.log.WithProfile(name)
		if s.ownWrite(name) {
			log.Debug("profile file matches the last save; not reloading")
			continue
		}
		if old.IsDirty() {
			log.Warn("profile changed on disk while it has unsaved changes; keeping the in-memory copy")
			continue
		}
		fresh, err := s.rt.Store.Load(name)
		if errors.Is(err, profiles.ErrNotFound) {
			s.mu.Lock()
			delete(s.active, name)
			delete(s.written, name)
			s.mu.Unlock()
			log.Info("active profile deleted on disk; its apps keep running")
			continue
		}
		if err != nil {
			log.Warn("reloading profile", zap.Error(err))
			continue
		}
		for _, e := range old.Apps {
			s.rt.Monitors.StopEntry(e)
		}
		s.rt.Applier.Attach(fresh)
		s.restabilize(fresh)
		s.setActive(fresh)
		log.Info("reloaded profile from disk")
	}
}

// restabilize forces every live entry of p to its saved geometry, one
// goroutine per entry, and starts each monitor once that entry settles.
func (s *Server) restabilize(p *model.WorkspaceProfile) {
	var wg sync.WaitGroup
	for _, e := range p.Apps {
		if !e.IsLive() {
			continue
		}
		wg.Add(1)
		go func(e *model.ApplicationEntry) {
			defer wg.Done()
			s.rt.Enforcer.ForceUntilStable(context.Background(), e)
			s.rt.Monitors.Start(e)
		}(e)
	}
	wg.Wait()
}

// onDrift marks the owning active profile dirty.
func (s *Server) onDrift(e *model.ApplicationEntry, ev model.DriftEvent) {
	s.cache.Invalidate()
	s.mu.Lock()
	var owner *model.WorkspaceProfile
	for _, p := range s.active {
		for _, a := range p.Apps {
			if a == e {
				owner = p
			}
		}
	}
	s.mu.Unlock()
	if owner != nil && ev.Type != model.ChangeExited {
		owner.MarkDirty()
	}
}
