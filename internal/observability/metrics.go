// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WSClients           *prometheus.GaugeVec

	// Price cache metrics
	PriceCacheHits   *prometheus.CounterVec
	PriceCacheMisses *prometheus.CounterVec

	// Era poller metrics
	EraPollRuns *prometheus.CounterVec
	CurrentEra  *prometheus.GaugeVec

	// Reward collector metrics
	CollectorRuns     *prometheus.CounterVec
	CollectorDuration prometheus.Histogram

	// Snapshot cache metrics
	SnapshotMisses *prometheus.CounterVec

	// Health metrics
	JoinMisses *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "validator_explorer"
	}

	return &Metrics{
		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		WSClients: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "era_ws_clients",
			Help:      "Connected era feed websocket clients",
		}, []string{"chain"}),

		// Price cache metrics
		PriceCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price_cache",
			Name:      "hits_total",
			Help:      "Total number of daily price cache hits",
		}, []string{"chain"}),
		PriceCacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price_cache",
			Name:      "misses_total",
			Help:      "Total number of daily price cache misses",
		}, []string{"chain"}),

		// Era poller metrics
		EraPollRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "era_poller",
			Name:      "runs_total",
			Help:      "Total number of era polls by status",
		}, []string{"chain", "status"}),
		CurrentEra: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "era_poller",
			Name:      "current_era",
			Help:      "Last active era read per chain",
		}, []string{"chain"}),

		// Reward collector metrics
		CollectorRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "runs_total",
			Help:      "Total number of reward collector runs by status",
		}, []string{"status"}),
		CollectorDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "duration_seconds",
			Help:      "Reward collector run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		// Snapshot cache metrics
		SnapshotMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "misses_total",
			Help:      "Total number of snapshot cache misses by key",
		}, []string{"chain", "key"}),

		// Health metrics
		JoinMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "join_misses_total",
			Help:      "Nomination rows whose validator metadata was missing",
		}, []string{"chain"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, status).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// AddWSClients adjusts the era feed client gauge.
func AddWSClients(chain string, delta float64) {
	DefaultMetrics.WSClients.WithLabelValues(chain).Add(delta)
}

// RecordPriceCache records a price cache lookup.
func RecordPriceCache(chain string, hit bool) {
	if hit {
		DefaultMetrics.PriceCacheHits.WithLabelValues(chain).Inc()
		return
	}
	DefaultMetrics.PriceCacheMisses.WithLabelValues(chain).Inc()
}

// RecordEraPoll records an era poll and, on success, the era read.
func RecordEraPoll(chain string, era uint32, err error) {
	if err != nil {
		DefaultMetrics.EraPollRuns.WithLabelValues(chain, "error").Inc()
		return
	}
	DefaultMetrics.EraPollRuns.WithLabelValues(chain, "ok").Inc()
	DefaultMetrics.CurrentEra.WithLabelValues(chain).Set(float64(era))
}

// RecordCollectorRun records a reward collector run.
func RecordCollectorRun(status string, durationSeconds float64) {
	DefaultMetrics.CollectorRuns.WithLabelValues(status).Inc()
	DefaultMetrics.CollectorDuration.Observe(durationSeconds)
}

// RecordSnapshotMiss increments the snapshot miss counter.
func RecordSnapshotMiss(chain, key string) {
	DefaultMetrics.SnapshotMisses.WithLabelValues(chain, key).Inc()
}

// RecordJoinMiss counts a validator metadata join miss.
func RecordJoinMiss(chain string) {
	DefaultMetrics.JoinMisses.WithLabelValues(chain).Inc()
}
