// Package metrics implements types.Metrics on top of the Prometheus client.
package metrics

import (
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics keeps one set of collectors per component. Metric names are
// prefixed with the sanitized component name, e.g. operation_processed_total.
type PrometheusMetrics struct {
	prefix string

	processedTotal  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	fileSizeBytes   *prometheus.HistogramVec
	inProgress      *prometheus.GaugeVec
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeName turns an arbitrary component name into a valid metric prefix.
func SanitizeName(name string) string {
	s := invalidNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if s == "" {
		return "component"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// New registers the component's collectors with prometheus.DefaultRegisterer.
// It panics on duplicate registration; Provider guarantees one call per component.
func New(component string) *PrometheusMetrics {
	return NewWithRegisterer(component, prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the component's collectors with reg.
func NewWithRegisterer(component string, reg prometheus.Registerer) *PrometheusMetrics {
	prefix := SanitizeName(component)
	m := &PrometheusMetrics{prefix: prefix}

	m.processedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_processed_total",
			Help: "Operations finished by " + component + ", by status and type.",
		},
		[]string{"status", "type"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_errors_total",
			Help: "Errors raised in " + component + ", by error kind and operation.",
		},
		[]string{"error_type", "operation"},
	)

	// Remote jobs are polled for minutes, so the buckets reach well past the defaults.
	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_duration_seconds",
			Help:    "Operation duration in " + component + ".",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"operation"},
	)

	m.fileSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_file_size_bytes",
			Help:    "Size of files produced by " + component + ".",
			Buckets: prometheus.ExponentialBuckets(1024, 10, 7),
		},
		[]string{"file_type"},
	)

	m.inProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_in_progress",
			Help: "Operations currently running in " + component + ".",
		},
		[]string{"operation"},
	)

	reg.MustRegister(
		m.processedTotal,
		m.errorsTotal,
		m.durationSeconds,
		m.fileSizeBytes,
		m.inProgress,
	)

	return m
}

func (m *PrometheusMetrics) RecordSuccess(operationType string) {
	m.processedTotal.WithLabelValues("success", operationType).Inc()
}

// RecordError counts the failure in both the processed and the error counters.
func (m *PrometheusMetrics) RecordError(operationType string, errorType string) {
	m.processedTotal.WithLabelValues("error", operationType).Inc()
	m.errorsTotal.WithLabelValues(errorType, operationType).Inc()
}

func (m *PrometheusMetrics) RecordDuration(operation string, duration float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(duration)
}

func (m *PrometheusMetrics) RecordFileSize(fileType string, bytes int64) {
	m.fileSizeBytes.WithLabelValues(fileType).Observe(float64(bytes))
}

func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}
