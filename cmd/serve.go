package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/metrics"
	"github.com/mj1618/desktop-organizer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing desktop-organizer tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes profiles as
tools. The server owns window tracking for every profile applied through it,
reloads applied profiles when their files change and can apply a startup
profile.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  desktop-organizer serve
  desktop-organizer serve --transport streamable-http --port 8090
  desktop-organizer serve --startup work --metrics-addr :9464`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: stdio, streamable-http (default server.transport)")
	serveCmd.Flags().Int("port", 0, "HTTP port for streamable-http transport (default server.port)")
	serveCmd.Flags().Int("cache-ttl", -1, "Window list cache TTL in milliseconds, 0 to disable (default server.cache_ttl_ms)")
	serveCmd.Flags().String("startup", "", "Profile to apply before serving (default startup_profile)")
	serveCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address (default server.metrics_addr)")
	serveCmd.Flags().Bool("no-watch", false, "Do not reload applied profiles when their files change")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTLMs, _ := cmd.Flags().GetInt("cache-ttl")
	startup, _ := cmd.Flags().GetString("startup")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	noWatch, _ := cmd.Flags().GetBool("no-watch")

	srvCfg := server.Config{
		Transport: cfg.Server.Transport,
		Port:      cfg.Server.Port,
		CacheTTL:  cfg.Server.CacheTTL(),
	}
	if transport != "" {
		srvCfg.Transport = transport
	}
	if port != 0 {
		srvCfg.Port = port
	}
	if cacheTTLMs >= 0 {
		srvCfg.CacheTTL = time.Duration(cacheTTLMs) * time.Millisecond
	}
	if startup == "" {
		startup = cfg.StartupProfile
	}
	if metricsAddr == "" {
		metricsAddr = cfg.Server.MetricsAddr
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	ctx, stop := signalContext()
	defer stop()

	srv := server.New(rt, srvCfg)

	if metricsAddr != "" {
		go func() {
			if err := metrics.ListenAndServe(ctx, metricsAddr); err != nil {
				logger.Error("metrics endpoint failed", zap.String("addr", metricsAddr), zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", metricsAddr))
	}

	if !noWatch {
		if err := rt.Store.Watch(ctx, 500*time.Millisecond, srv.ProfilesChanged); err != nil {
			logger.Warn("profile watcher unavailable", zap.Error(err))
		}
	}

	if startup != "" {
		if err := srv.ApplyStartup(ctx, startup); err != nil {
			logger.Error("startup profile failed", zap.String("profile", startup), zap.Error(err))
		}
	}

	if err := srv.Serve(ctx, srvCfg); err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}
