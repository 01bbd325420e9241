// Package metrics holds the Prometheus collectors exported by `serve`.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Launch metrics
var (
	// LaunchesTotal tracks launches by outcome (running, failed, no_window)
	LaunchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskorg_launches_total",
			Help: "Application launches by outcome",
		},
		[]string{"outcome"},
	)

	// LaunchWindowWait tracks seconds from spawn until the main window appeared
	LaunchWindowWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskorg_launch_window_wait_seconds",
			Help:    "Time from process start until its main window was found",
			Buckets: []float64{.1, .25, .5, 1, 2, 3, 5},
		},
	)
)

// Stabilization metrics
var (
	// StabilizeAttempts tracks positioning attempts per stabilization run
	StabilizeAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskorg_stabilize_attempts",
			Help:    "SetPosition attempts per stabilization run",
			Buckets: []float64{1, 3, 5, 10, 20, 30},
		},
	)

	// StabilizeResults tracks stabilization outcomes (converged, exhausted, skipped, exited)
	StabilizeResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskorg_stabilize_results_total",
			Help: "Stabilization runs by result",
		},
		[]string{"result"},
	)
)

// Monitor metrics
var (
	// MonitorsActive tracks running monitor loops
	MonitorsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deskorg_monitors_active",
			Help: "Number of running window monitor loops",
		},
	)

	// DriftEventsTotal tracks geometry changes written back by monitors
	DriftEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskorg_drift_events_total",
			Help: "Window changes observed by monitors, by type",
		},
		[]string{"type"},
	)
)

// Profile metrics
var (
	// ProfileApplyDuration tracks end-to-end apply latency
	ProfileApplyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskorg_profile_apply_duration_seconds",
			Help:    "Duration of a full profile apply",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// ProfileAppliesTotal tracks applies by result (ok, error)
	ProfileAppliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskorg_profile_applies_total",
			Help: "Profile applies by result",
		},
		[]string{"result"},
	)

	// RegistryEntries tracks executables currently known to the registry
	RegistryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deskorg_registry_entries",
			Help: "Executables with live state in the window registry",
		},
	)
)

// Server metrics
var (
	// WindowCacheRequests tracks window-list cache lookups by result (hit, miss)
	WindowCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskorg_window_cache_requests_total",
			Help: "Window list cache lookups by result",
		},
		[]string{"result"},
	)
)
