package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
)

func TestObserveSweep(t *testing.T) {
	okBefore := testutil.ToFloat64(StreakSweeps.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(StreakSweeps.WithLabelValues("error"))
	updatedBefore := testutil.ToFloat64(StreakSweepUpdated)

	ObserveSweep(workers.SweepResult{Updated: 3, Duration: 20 * time.Millisecond})
	ObserveSweep(workers.SweepResult{Updated: 1, Err: errors.New("db down")})

	assert.Equal(t, okBefore+1, testutil.ToFloat64(StreakSweeps.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(StreakSweeps.WithLabelValues("error")))
	assert.Equal(t, updatedBefore+4, testutil.ToFloat64(StreakSweepUpdated))
}

func TestObserveCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(CacheLookups.WithLabelValues("miss"))

	ObserveCacheLookup(true)
	ObserveCacheLookup(false)
	ObserveCacheLookup(false)

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(CacheLookups.WithLabelValues("miss")))
}

func TestRegistered(t *testing.T) {
	HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()
	HTTPDuration.WithLabelValues("GET", "/health").Observe(0.01)
	RateLimited.Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, name := range []string{
		"kanso_http_requests_total",
		"kanso_http_request_duration_seconds",
		"kanso_rate_limited_total",
		"kanso_streak_sweeps_total",
		"kanso_habit_cache_lookups_total",
	} {
		assert.True(t, names[name], "metric %q not found", name)
	}
}
