package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "market_reports_"

	resultSuccess = "success"
	resultError   = "error"
	resultEmpty   = "empty"

	sourceCache  = "cache"
	sourceRemote = "remote"
)

var (
	registerOnce sync.Once

	fetchTotal   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec

	cacheWriteErrors prometheus.Counter

	convertTotal *prometheus.CounterVec

	assembleTotal   *prometheus.CounterVec
	assembleLatency *prometheus.HistogramVec
	assembleRows    *prometheus.HistogramVec

	exportTotal *prometheus.CounterVec
)

// Init registers market report metrics.
func Init() {
	registerOnce.Do(func() {
		fetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_total",
				Help: "Total report fetches by source and result",
			},
			[]string{"source", "result"},
		)
		fetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fetch_latency_seconds",
				Help:    "Report fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source", "result"},
		)

		cacheWriteErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_write_errors_total",
				Help: "Total failed cache writes",
			},
		)

		convertTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "convert_total",
				Help: "Total spreadsheet conversions by dataset and result",
			},
			[]string{"dataset", "result"},
		)

		assembleTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "assemble_total",
				Help: "Total series assemblies by variant and result",
			},
			[]string{"variant", "result"},
		)
		assembleLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "assemble_latency_seconds",
				Help:    "Series assembly latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"variant"},
		)
		assembleRows = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "assemble_rows",
				Help:    "Rows in assembled series",
				Buckets: prometheus.ExponentialBuckets(10, 4, 8),
			},
			[]string{"variant"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total series exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			fetchTotal,
			fetchLatency,
			cacheWriteErrors,
			convertTotal,
			assembleTotal,
			assembleLatency,
			assembleRows,
			exportTotal,
		)
	})
}

// ObserveFetch records fetch latency by source and result.
func ObserveFetch(source, result string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if fetchTotal != nil {
		fetchTotal.WithLabelValues(source, result).Inc()
	}
	if fetchLatency != nil {
		fetchLatency.WithLabelValues(source, result).Observe(duration.Seconds())
	}
}

// IncCacheWriteError increments the failed cache write counter.
func IncCacheWriteError() {
	if cacheWriteErrors != nil {
		cacheWriteErrors.Inc()
	}
}

// ObserveConvert records a spreadsheet conversion.
func ObserveConvert(dataset, result string) {
	if dataset == "" {
		dataset = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if convertTotal != nil {
		convertTotal.WithLabelValues(dataset, result).Inc()
	}
}

// ObserveAssemble records an assembly with its latency and row count.
func ObserveAssemble(variant, result string, duration time.Duration, rows int) {
	if variant == "" {
		variant = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if assembleTotal != nil {
		assembleTotal.WithLabelValues(variant, result).Inc()
	}
	if assembleLatency != nil {
		assembleLatency.WithLabelValues(variant).Observe(duration.Seconds())
	}
	if assembleRows != nil && result == resultSuccess {
		assembleRows.WithLabelValues(variant).Observe(float64(rows))
	}
}

// ObserveExport records a series export by format.
func ObserveExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultEmpty   = resultEmpty

	SourceCache  = sourceCache
	SourceRemote = sourceRemote
)
