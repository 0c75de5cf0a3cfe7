// Package types holds the observability contracts shared by every component
// of the extractor.
package types

import (
	"context"
	"io"
)

// Logger writes structured, context-aware log entries.
type Logger interface {
	// Info logs an operational event that needs no action.
	Info(ctx context.Context, msg string, fields Fields)

	// Error logs a failure together with the error that caused it.
	Error(ctx context.Context, msg string, err error, fields Fields)

	// Warn logs a condition that was handled but deserves attention,
	// such as an incremental cutoff being dropped.
	Warn(ctx context.Context, msg string, fields Fields)

	// Debug logs detail useful while troubleshooting a run.
	Debug(ctx context.Context, msg string, fields Fields)

	// WithFields returns a Logger that adds fields to every entry.
	WithFields(fields Fields) Logger
}

// Metrics records Prometheus-style counters, histograms and gauges for a
// single component.
type Metrics interface {
	// RecordSuccess counts a successful operation.
	RecordSuccess(operationType string)

	// RecordError counts a failed operation under an error category
	// (for example "configuration" or "transient_network").
	RecordError(operationType string, errorType string)

	// RecordDuration observes an operation duration in seconds.
	RecordDuration(operation string, duration float64)

	// RecordFileSize observes the size of a produced file in bytes.
	RecordFileSize(fileType string, bytes int64)

	// StartOperation increments the in-progress gauge. Pair it with EndOperation.
	StartOperation(operation string)

	// EndOperation decrements the in-progress gauge.
	EndOperation(operation string)
}

// Fields are structured key-value pairs attached to log entries.
type Fields map[string]interface{}

// Config configures a Provider.
type Config struct {
	// ServiceName prefixes logger service names.
	ServiceName string

	// Environment is copied into every entry as "env".
	Environment string

	// LogLevel is the minimum level written: debug, info, warn or error.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stdout.
	LogOutput io.Writer

	// AdditionalFields are included in every entry, e.g. version or config id.
	AdditionalFields Fields
}

// Provider hands out component-scoped loggers and metrics and releases their
// resources on Close.
type Provider interface {
	// Logger returns the logger for component, creating it on first use.
	Logger(component string) Logger

	// Metrics returns the metrics collector for component, creating it on first use.
	Metrics(component string) Metrics

	// Close releases the log output if it is closable.
	Close() error
}
