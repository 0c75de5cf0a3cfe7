// Package bingads talks to the bulk, reporting and customer management
// services of the advertising API over their JSON endpoints.
package bingads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"bingads-extractor/shared/config"
	"bingads-extractor/shared/observability"
	"bingads-extractor/workers/extractor/internal/auth"
	"bingads-extractor/workers/extractor/internal/domain"
	"bingads-extractor/workers/extractor/internal/fault"
)

// Endpoints are the service base URLs.
type Endpoints struct {
	Bulk      string
	Reporting string
	Customer  string
}

// DefaultEndpoints returns the production or sandbox service URLs.
func DefaultEndpoints(sandbox bool) Endpoints {
	if sandbox {
		return Endpoints{
			Bulk:      "https://bulk.api.sandbox.bingads.microsoft.com/Bulk/v13",
			Reporting: "https://reporting.api.sandbox.bingads.microsoft.com/Reporting/v13",
			Customer:  "https://clientcenter.api.sandbox.bingads.microsoft.com/CustomerManagement/v13",
		}
	}
	return Endpoints{
		Bulk:      "https://bulk.api.bingads.microsoft.com/Bulk/v13",
		Reporting: "https://reporting.api.bingads.microsoft.com/Reporting/v13",
		Customer:  "https://clientcenter.api.bingads.microsoft.com/CustomerManagement/v13",
	}
}

// WithOverrides replaces every endpoint set in api.
func (e Endpoints) WithOverrides(api config.APIConfig) Endpoints {
	if api.BulkURL != "" {
		e.Bulk = api.BulkURL
	}
	if api.ReportingURL != "" {
		e.Reporting = api.ReportingURL
	}
	if api.CustomerURL != "" {
		e.Customer = api.CustomerURL
	}
	return e
}

// ClientConfig tunes a Client.
type ClientConfig struct {
	Endpoints        Endpoints
	Timeout          time.Duration
	DownloadTimeout  time.Duration
	UserAgent        string
	RateLimit        float64
	RateBurst        int
	BreakerFailures  uint32
	BreakerOpenDelay time.Duration

	// Transport replaces the default transport, for tests.
	Transport http.RoundTripper
}

// ConfigFromEnv derives the client settings from the runtime configuration.
func ConfigFromEnv(cfg *config.Config, sandbox bool) ClientConfig {
	return ClientConfig{
		Endpoints:        DefaultEndpoints(sandbox).WithOverrides(cfg.API),
		Timeout:          cfg.HTTP.Timeout,
		DownloadTimeout:  cfg.Polling.DownloadTimeout,
		UserAgent:        cfg.HTTP.UserAgent,
		RateLimit:        cfg.HTTP.RateLimit,
		RateBurst:        cfg.HTTP.RateBurst,
		BreakerFailures:  cfg.HTTP.BreakerFailures,
		BreakerOpenDelay: cfg.HTTP.BreakerOpenDelay,
	}
}

// Client is a rate-limited client guarded by a circuit breaker that opens
// after consecutive transient failures.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     observability.Logger
	metrics    observability.Metrics
}

func NewClient(cfg ClientConfig, logger observability.Logger, metrics observability.Metrics) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.DownloadTimeout == 0 {
		cfg.DownloadTimeout = 60 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "bingads-extractor/1.0"
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 5
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenDelay == 0 {
		cfg.BreakerOpenDelay = 30 * time.Second
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "bingads-api",
		Timeout: cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Vendor faults are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil || !domain.IsKind(err, domain.TransientNetwork)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "Circuit breaker state changed", observability.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		breaker: breaker,
		logger:  logger,
		metrics: metrics,
	}
}

// call posts in as JSON to base+path and decodes the response into out.
func (c *Client) call(ctx context.Context, ac *auth.Context, operation, base, path string, in, out interface{}) error {
	start := time.Now()
	c.metrics.StartOperation(operation)
	defer c.metrics.EndOperation(operation)

	err := c.limiter.Wait(ctx)
	if err == nil {
		_, err = c.breaker.Execute(func() (interface{}, error) {
			return nil, c.post(ctx, ac, base, path, in, out)
		})
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = domain.TransientError("advertising API circuit breaker is open", err)
	}

	c.metrics.RecordDuration(operation, time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordError(operation, domain.KindOf(err).String())
		c.logger.Debug(ctx, "API call failed", observability.Fields{
			"operation": operation,
			"error":     err.Error(),
		})
		return err
	}
	c.metrics.RecordSuccess(operation)
	return nil
}

func (c *Client) post(ctx context.Context, ac *auth.Context, base, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	token, err := ac.AccessToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("DeveloperToken", ac.DeveloperToken())
	if id := ac.CustomerID(); id != "" {
		req.Header.Set("CustomerId", id)
	}
	if id := ac.AccountID(); id != "" {
		req.Header.Set("CustomerAccountId", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.TransientError("request to "+path+" failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.TransientError("reading response of "+path+" failed", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	}

	return classifyResponse(resp.StatusCode, payload)
}

// faultBody is the error document the services return with a non-2xx status.
type faultBody struct {
	FaultString string                 `json:"FaultString"`
	Detail      map[string]interface{} `json:"Detail"`
}

func classifyResponse(status int, payload []byte) error {
	var fb faultBody
	if json.Unmarshal(payload, &fb) == nil && (fb.FaultString != "" || len(fb.Detail) > 0) {
		return fault.Translate(fault.Fault{String: fb.FaultString, Detail: fb.Detail})
	}

	text := strings.TrimSpace(string(payload))
	if len(text) > 512 {
		text = text[:512]
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return domain.TransientError(fmt.Sprintf("HTTP %d", status), errors.New(text))
	}
	return domain.NewError(domain.VendorFault, fmt.Sprintf("HTTP %d: %s", status, text), nil)
}
