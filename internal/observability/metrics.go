package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PageCacheLookups counts index page cache lookups by result (hit, miss, error).
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_page_cache_lookups_total",
		Help: "Index page cache lookups by result",
	}, []string{"result"})

	// PostsWritten counts successful post mutations by action.
	PostsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_posts_written_total",
		Help: "Post create, edit and delete operations",
	}, []string{"action"})

	// FollowEdges counts follow graph changes by action.
	FollowEdges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_follow_edges_total",
		Help: "Follow and unfollow operations that changed the graph",
	}, []string{"action"})

	// ContactMessages counts contact form submissions by outcome.
	ContactMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_contact_messages_total",
		Help: "Contact form messages by outcome",
	}, []string{"outcome"})
)

// DatabaseMetrics records query latency per table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a DatabaseMetrics bound to table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}
