// Package logger writes JSON log lines with a stable field layout so that a
// log aggregator (Loki, the orchestration host's job log) can index them.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"bingads-extractor/shared/observability/types"
)

// LogLevel is the severity of an entry. Higher is more severe.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps a level name to a LogLevel. Matching ignores case and
// unknown names fall back to InfoLevel.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// LokiLogger implements types.Logger. Loggers derived through WithFields share
// the parent's writer and its lock, so concurrent entries never interleave.
type LokiLogger struct {
	out              *syncWriter
	serviceName      string
	environment      string
	hostname         string
	minLevel         LogLevel
	persistentFields types.Fields
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(line)
}

// New creates a LokiLogger. A nil output writes to os.Stdout.
func New(serviceName, environment, logLevel string, output io.Writer, additionalFields types.Fields) *LokiLogger {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	if output == nil {
		output = os.Stdout
	}

	fields := make(types.Fields, len(additionalFields))
	for k, v := range additionalFields {
		fields[k] = v
	}

	return &LokiLogger{
		out:              &syncWriter{w: output},
		serviceName:      serviceName,
		environment:      environment,
		hostname:         hostname,
		minLevel:         ParseLevel(logLevel),
		persistentFields: fields,
	}
}

func (l *LokiLogger) Info(ctx context.Context, msg string, fields types.Fields) {
	l.log(ctx, InfoLevel, msg, nil, fields)
}

func (l *LokiLogger) Error(ctx context.Context, msg string, err error, fields types.Fields) {
	l.log(ctx, ErrorLevel, msg, err, fields)
}

func (l *LokiLogger) Warn(ctx context.Context, msg string, fields types.Fields) {
	l.log(ctx, WarnLevel, msg, nil, fields)
}

func (l *LokiLogger) Debug(ctx context.Context, msg string, fields types.Fields) {
	l.log(ctx, DebugLevel, msg, nil, fields)
}

// WithFields returns a child logger carrying fields in addition to the
// parent's persistent fields. Child values win on key collisions.
func (l *LokiLogger) WithFields(fields types.Fields) types.Logger {
	merged := make(types.Fields, len(l.persistentFields)+len(fields))
	for k, v := range l.persistentFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	child := *l
	child.persistentFields = merged
	return &child
}

// log assembles one entry. Precedence, lowest first: standard fields,
// context values, persistent fields, call fields.
func (l *LokiLogger) log(ctx context.Context, level LogLevel, msg string, err error, fields types.Fields) {
	if level < l.minLevel {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	entry := types.Fields{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level.String(),
		"service":   l.serviceName,
		"env":       l.environment,
		"hostname":  l.hostname,
		"message":   msg,
	}

	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			entry[string(key)] = v
		}
	}

	if err != nil {
		entry["error"] = err.Error()
		entry["error_type"] = fmt.Sprintf("%T", err)
	}

	for k, v := range l.persistentFields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}

	line, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		line, _ = json.Marshal(types.Fields{
			"timestamp": entry["timestamp"],
			"level":     entry["level"],
			"service":   l.serviceName,
			"message":   msg,
			"log_error": marshalErr.Error(),
		})
	}
	l.out.write(append(line, '\n'))
}
