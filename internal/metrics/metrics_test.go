package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		LaunchesTotal,
		LaunchWindowWait,
		StabilizeAttempts,
		StabilizeResults,
		MonitorsActive,
		DriftEventsTotal,
		ProfileApplyDuration,
		ProfileAppliesTotal,
		RegistryEntries,
		WindowCacheRequests,
	}
	for _, c := range collectors {
		desc := make(chan *prometheus.Desc, 1)
		c.Describe(desc)
		close(desc)
		require.NotNil(t, <-desc)
	}
}

func TestCounterMetrics(t *testing.T) {
	tests := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"launch running", LaunchesTotal.WithLabelValues("running")},
		{"stabilize converged", StabilizeResults.WithLabelValues("converged")},
		{"drift moved", DriftEventsTotal.WithLabelValues("moved")},
		{"cache hit", WindowCacheRequests.WithLabelValues("hit")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(tt.counter)
			tt.counter.Inc()
			assert.Equal(t, before+1, testutil.ToFloat64(tt.counter))
		})
	}
}

func TestGaugeMetrics(t *testing.T) {
	MonitorsActive.Set(0)
	MonitorsActive.Inc()
	MonitorsActive.Inc()
	MonitorsActive.Dec()
	assert.Equal(t, float64(1), testutil.ToFloat64(MonitorsActive))
}
