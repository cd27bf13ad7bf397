// Package telemetry provides application-level observability for the back office.
//
// All metrics are registered against the default Prometheus registry and served
// on a side-channel HTTP server started by cmd/server (default port 9090) at
// GET /metrics. The endpoint is not part of the Gin router, which keeps the
// scrape path off the public ingress and outside the rate-limiting middleware.
//
// HTTP metrics use c.FullPath() (route template such as /properties/:id) rather
// than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments.
package telemetry

import (
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route template, and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// EntityMutationsTotal counts successful create/update/delete operations per
	// entity. Useful for spotting runaway frontend write loops.
	EntityMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_mutations_total",
			Help: "Total number of successful entity mutations, by entity label and action.",
		},
		[]string{"entity", "action"},
	)

	// AuditWriteFailuresTotal counts audit log inserts that failed. Audit writes
	// are best-effort and never block the primary mutation, so this counter is
	// the only signal that the audit trail is incomplete.
	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Total number of failed audit log writes (best-effort, non-blocking).",
		},
	)

	// DBConnectionsInUse reports the number of connections currently checked out
	// of the pool. Polled every 30 s by StartDBPoolMetrics.
	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of database connections currently in use.",
		},
	)

	// DBConnectionsIdle reports the number of idle connections in the pool.
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections in the pool.",
		},
	)
)

// StartDBPoolMetrics polls the connection pool stats every interval and
// exports them as gauges. It returns a stop function that terminates the
// polling goroutine.
func StartDBPoolMetrics(db *sqlx.DB, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats := db.Stats()
				DBConnectionsInUse.Set(float64(stats.InUse))
				DBConnectionsIdle.Set(float64(stats.Idle))
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		slog.Debug("db pool metrics poller stopped")
	}
}
