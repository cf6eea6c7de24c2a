// Package metrics exposes Prometheus metrics for the API and the streak engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
)

const namespace = "kanso"

// HTTPRequests counts handled requests by method, route template and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_requests_total",
	Help:      "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
})

var StreakSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "streak_sweeps_total",
	Help:      "Streak sweeps run, by result.",
}, []string{"result"})

var StreakSweepUpdated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "streak_sweep_updated_habits_total",
	Help:      "Habits whose cached streak counters a sweep changed.",
})

var StreakSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "streak_sweep_duration_seconds",
	Help:      "Duration of a full streak sweep.",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
})

var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "habit_cache_lookups_total",
	Help:      "Habit list cache lookups, by result.",
}, []string{"result"})

// ObserveSweep records a finished streak sweep.
func ObserveSweep(r workers.SweepResult) {
	result := "ok"
	if r.Err != nil {
		result = "error"
	}
	StreakSweeps.WithLabelValues(result).Inc()
	StreakSweepUpdated.Add(float64(r.Updated))
	StreakSweepDuration.Observe(r.Duration.Seconds())
}

func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(result).Inc()
}
