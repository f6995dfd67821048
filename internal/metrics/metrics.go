package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MarketWatcher/internal/model"
)

const namespace = "marketwatcher"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Price fetches by symbol and outcome.",
		},
		[]string{"symbol", "status"},
	)

	snapshotsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_saved_total",
			Help:      "Snapshot writes by outcome.",
		},
		[]string{"status"},
	)

	cleanupDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_deleted_total",
			Help:      "Snapshots removed by the cleanup cycle.",
		},
	)

	cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of ingestion and cleanup cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"cycle"},
	)

	trendInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trend_info",
			Help:      "Latest trend per symbol, 1 for the active label.",
		},
		[]string{"symbol", "trend"},
	)
)

func init() {
	Registry.MustRegister(
		fetchTotal,
		snapshotsSaved,
		cleanupDeleted,
		cycleDuration,
		trendInfo,
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordFetch(symbol string, err error) {
	fetchTotal.WithLabelValues(symbol, status(err)).Inc()
}

func RecordSave(err error) {
	snapshotsSaved.WithLabelValues(status(err)).Inc()
}

func RecordCleanup(deleted int64) {
	if deleted > 0 {
		cleanupDeleted.Add(float64(deleted))
	}
}

func ObserveCycle(cycle string, started time.Time) {
	cycleDuration.WithLabelValues(cycle).Observe(time.Since(started).Seconds())
}

// SetTrend marks trend as the active label for symbol.
func SetTrend(symbol string, trend model.Trend) {
	for _, t := range model.AllTrends {
		v := 0.0
		if t == trend {
			v = 1
		}
		trendInfo.WithLabelValues(symbol, string(t)).Set(v)
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
