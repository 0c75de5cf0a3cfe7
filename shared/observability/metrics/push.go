package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Pusher ships gathered metrics to a Prometheus Pushgateway at the end of a
// batch run, since a one-shot process is gone before any scrape happens.
type Pusher struct {
	url      string
	job      string
	gatherer prometheus.Gatherer
	grouping map[string]string
}

// NewPusher returns a Pusher for url. A nil gatherer uses prometheus.DefaultGatherer.
func NewPusher(url, job string, gatherer prometheus.Gatherer, grouping map[string]string) *Pusher {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Pusher{url: url, job: SanitizeName(job), gatherer: gatherer, grouping: grouping}
}

// Enabled reports whether a Pushgateway URL is configured.
func (p *Pusher) Enabled() bool {
	return p != nil && p.url != ""
}

// Push replaces the job's metric group on the gateway. It is a no-op when no
// URL is configured.
func (p *Pusher) Push(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}

	pusher := push.New(p.url, p.job).Gatherer(p.gatherer)
	for name, value := range p.grouping {
		pusher = pusher.Grouping(name, value)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", p.url, err)
	}
	return nil
}
