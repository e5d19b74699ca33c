package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "eco2mix_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	datasetLoadTotal   *prometheus.CounterVec
	datasetLoadLatency *prometheus.HistogramVec
	datasetRows        *prometheus.GaugeVec
	datasetVersion     prometheus.Gauge

	queryTotal   *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	snapshotTotal   *prometheus.CounterVec
	snapshotLatency *prometheus.HistogramVec
	snapshotRows    prometheus.Counter
)

// Init registers the service metrics on the default registry.
func Init() {
	registerOnce.Do(func() {
		datasetLoadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dataset_load_total",
				Help: "Total dataset loads by source and result",
			},
			[]string{"source", "result"},
		)
		datasetLoadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dataset_load_latency_seconds",
				Help:    "Dataset load latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"source", "result"},
		)
		datasetRows = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "dataset_rows",
				Help: "Rows held by the current dataset by table",
			},
			[]string{"table"},
		)
		datasetVersion = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "dataset_version",
				Help: "Version of the dataset currently served",
			},
		)

		queryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_total",
				Help: "Total queries by operation and result",
			},
			[]string{"operation", "result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		)
		cacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_cache_lookups_total",
				Help: "Query cache lookups by outcome",
			},
			[]string{"outcome"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		snapshotTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_publish_total",
				Help: "Total daily snapshot publications by result",
			},
			[]string{"result"},
		)
		snapshotLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "snapshot_publish_latency_seconds",
				Help:    "Daily snapshot publication latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		snapshotRows = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_rows_total",
				Help: "Total daily rows written to the snapshot store",
			},
		)

		prometheus.MustRegister(
			datasetLoadTotal,
			datasetLoadLatency,
			datasetRows,
			datasetVersion,
			queryTotal,
			queryLatency,
			cacheLookups,
			exportTotal,
			exportLatency,
			snapshotTotal,
			snapshotLatency,
			snapshotRows,
		)
	})
}

// ObserveDatasetLoad records a dataset load from a source.
func ObserveDatasetLoad(source, result string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if datasetLoadTotal != nil {
		datasetLoadTotal.WithLabelValues(source, result).Inc()
	}
	if datasetLoadLatency != nil {
		datasetLoadLatency.WithLabelValues(source, result).Observe(duration.Seconds())
	}
}

// SetDataset publishes the shape of the dataset being served.
func SetDataset(version uint64, hourlyRows, dailyRows int) {
	if datasetRows != nil {
		datasetRows.WithLabelValues("hourly").Set(float64(hourlyRows))
		datasetRows.WithLabelValues("daily").Set(float64(dailyRows))
	}
	if datasetVersion != nil {
		datasetVersion.Set(float64(version))
	}
}

// ObserveQuery records query latency and result.
func ObserveQuery(operation, result string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if queryTotal != nil {
		queryTotal.WithLabelValues(operation, result).Inc()
	}
	if queryLatency != nil {
		queryLatency.WithLabelValues(operation, result).Observe(duration.Seconds())
	}
}

// IncCacheLookup increments the cache lookup counter.
func IncCacheLookup(hit bool) {
	if cacheLookups == nil {
		return
	}
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveSnapshot records a snapshot publication.
func ObserveSnapshot(result string, rows int, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if snapshotTotal != nil {
		snapshotTotal.WithLabelValues(result).Inc()
	}
	if snapshotLatency != nil {
		snapshotLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if snapshotRows != nil && rows > 0 {
		snapshotRows.Add(float64(rows))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
