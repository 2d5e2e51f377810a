package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"yqhp/automation-engine/pkg/types"
)

// WebhookConfig holds configuration for the webhook reporter.
type WebhookConfig struct {
	// URL is the webhook endpoint.
	URL string
	// Method is the HTTP method (default POST).
	Method string
	// Headers are added to every request.
	Headers map[string]string
	// RetryAttempts is the number of attempts on failure (default 3).
	RetryAttempts int
	// RetryDelay is the delay between attempts (default 1s).
	RetryDelay time.Duration
	// Timeout bounds each request (default 10s).
	Timeout time.Duration
}

// WebhookReporter POSTs the run result as JSON to an HTTP endpoint.
type WebhookReporter struct {
	config *WebhookConfig
	client *http.Client
}

// NewWebhookReporter creates a webhook reporter.
func NewWebhookReporter(config *WebhookConfig) (Reporter, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("webhook reporter requires a URL, e.g. webhook=https://example.com/hook")
	}
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &WebhookReporter{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Name implements Reporter.
func (r *WebhookReporter) Name() string {
	return "webhook"
}

// Report implements Reporter. Failed deliveries are retried with a fixed
// delay; a non-2xx response counts as a failure.
func (r *WebhookReporter) Report(ctx context.Context, result *types.ExecutionResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= r.config.RetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.RetryDelay):
			}
		}
		if lastErr = r.send(ctx, body); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("delivery failed after %d attempts: %w", r.config.RetryAttempts, lastErr)
}

func (r *WebhookReporter) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, r.config.Method, r.config.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Close implements Reporter.
func (r *WebhookReporter) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
