// Package observability wires component-scoped loggers and metrics for the
// extractor. Each component asks the provider once and reuses what it gets.
package observability

import (
	"io"
	"os"
	"sync"

	"bingads-extractor/shared/observability/logger"
	"bingads-extractor/shared/observability/metrics"
	"bingads-extractor/shared/observability/types"

	"github.com/prometheus/client_golang/prometheus"
)

type (
	Logger   = types.Logger
	Metrics  = types.Metrics
	Fields   = types.Fields
	Config   = types.Config
	Provider = types.Provider
)

// DefaultProvider lazily creates one logger and one metrics set per component.
type DefaultProvider struct {
	config     *Config
	registerer prometheus.Registerer
	loggers    map[string]Logger
	metrics    map[string]Metrics
	mu         sync.Mutex
}

// Option customizes a DefaultProvider.
type Option func(*DefaultProvider)

// WithRegisterer registers component metrics with reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *DefaultProvider) {
		p.registerer = reg
	}
}

// NewProvider builds a provider. A nil LogOutput writes to os.Stdout.
func NewProvider(config *Config, opts ...Option) *DefaultProvider {
	if config.LogOutput == nil {
		config.LogOutput = os.Stdout
	}

	p := &DefaultProvider{
		config:     config,
		registerer: prometheus.DefaultRegisterer,
		loggers:    make(map[string]Logger),
		metrics:    make(map[string]Metrics),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Logger returns the component logger. Its service name is
// "{ServiceName}.{component}" and every entry carries a "component" field.
func (p *DefaultProvider) Logger(component string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.loggers[component]; ok {
		return l
	}

	fields := make(Fields, len(p.config.AdditionalFields)+1)
	for k, v := range p.config.AdditionalFields {
		fields[k] = v
	}
	fields["component"] = component

	l := logger.New(
		p.config.ServiceName+"."+component,
		p.config.Environment,
		p.config.LogLevel,
		p.config.LogOutput,
		fields,
	)
	p.loggers[component] = l
	return l
}

// Metrics returns the component metrics set.
func (p *DefaultProvider) Metrics(component string) Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.metrics[component]; ok {
		return m
	}

	m := metrics.NewWithRegisterer(component, p.registerer)
	p.metrics[component] = m
	return m
}

// Close closes LogOutput when it is a closable writer other than stdout or stderr.
func (p *DefaultProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if closer, ok := p.config.LogOutput.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}
