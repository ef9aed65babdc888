package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scenario-gateway/internal/upstream/metrics"
)

// DefaultTimeout bounds a single payment-service call. Calls are never
// retried: the operator watching a scenario run needs bounded latency over
// completeness.
const DefaultTimeout = 9 * time.Second

// Error codes for failed calls. Configuration codes are detected before
// any network attempt; transport codes classify the failed attempt itself.
const (
	ErrCodeURLInvalid    = "service_url_invalid"
	ErrCodeNotConfigured = "service_not_configured"
	ErrCodeTimeout       = "service_timeout"
	ErrCodeUnreachable   = "service_unreachable"
	ErrCodeAPIError      = "service_api_error"
)

// CallResult is the one outcome envelope every call normalizes into. A
// non-2xx response is a failure (OK false, ErrCodeAPIError), not a success
// with an error payload.
type CallResult struct {
	OK        bool
	Status    int
	Data      map[string]any
	Elapsed   time.Duration
	ErrorCode string
	Detail    string
}

// Client performs single-attempt, timeboxed calls against the payment
// service. Configuration is resolved fresh per call.
type Client struct {
	resolver *Resolver
	http     *http.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewClient builds a Client. The metrics argument may be nil in tests.
func NewClient(resolver *Resolver, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		resolver: resolver,
		http:     &http.Client{},
		logger:   logger,
		metrics:  m,
	}
}

// Call issues one HTTP request against the configured service. A zero
// timeout selects DefaultTimeout. The call is not retried; every failure
// mode is folded into the returned CallResult and never into an error.
func (c *Client) Call(ctx context.Context, method, path string, body any, timeout time.Duration) CallResult {
	cfg := c.resolver.Resolve()
	if cfg.Invalid {
		return c.finish(path, CallResult{
			Status:    http.StatusServiceUnavailable,
			ErrorCode: ErrCodeURLInvalid,
			Detail:    "payment service URL is not a valid absolute URL",
		})
	}
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return c.finish(path, CallResult{
			Status:    http.StatusServiceUnavailable,
			ErrorCode: ErrCodeNotConfigured,
			Detail:    "payment service URL or API key is not configured",
		})
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	// The deadline timer is released on every exit path.
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return c.finish(path, CallResult{
				Status:    http.StatusInternalServerError,
				ErrorCode: ErrCodeAPIError,
				Detail:    fmt.Sprintf("encode request body: %v", err),
			})
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.BaseURL+path, reader)
	if err != nil {
		return c.finish(path, CallResult{
			Status:    http.StatusBadGateway,
			ErrorCode: ErrCodeUnreachable,
			Detail:    fmt.Sprintf("build request: %v", err),
		})
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		// The cancellation signal distinguishes a deadline from an
		// ordinary network failure.
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return c.finish(path, CallResult{
				Status:    http.StatusGatewayTimeout,
				Elapsed:   elapsed,
				ErrorCode: ErrCodeTimeout,
				Detail:    fmt.Sprintf("call exceeded %s budget", timeout),
			})
		}
		return c.finish(path, CallResult{
			Status:    http.StatusBadGateway,
			Elapsed:   elapsed,
			ErrorCode: ErrCodeUnreachable,
			Detail:    err.Error(),
		})
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.finish(path, CallResult{
			Status:    resp.StatusCode,
			Elapsed:   elapsed,
			ErrorCode: ErrCodeUnreachable,
			Detail:    fmt.Sprintf("read response body: %v", err),
		})
	}

	var data map[string]any
	if err := json.Unmarshal(text, &data); err != nil || data == nil {
		// Keep undecodable bodies instead of discarding them.
		data = map[string]any{"raw": string(text)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.finish(path, CallResult{
			Status:    resp.StatusCode,
			Data:      data,
			Elapsed:   elapsed,
			ErrorCode: ErrCodeAPIError,
			Detail:    upstreamDetail(data, resp.StatusCode),
		})
	}

	return c.finish(path, CallResult{
		OK:      true,
		Status:  resp.StatusCode,
		Data:    data,
		Elapsed: elapsed,
	})
}

func (c *Client) finish(path string, res CallResult) CallResult {
	code := "ok"
	if !res.OK {
		code = res.ErrorCode
		c.logger.Warn("payment service call failed",
			"path", path,
			"status", res.Status,
			"code", res.ErrorCode,
			"detail", res.Detail,
			"duration_ms", res.Elapsed.Milliseconds(),
		)
	}
	c.metrics.ObserveCall(path, code, res.Elapsed)
	return res
}

// upstreamDetail folds the service's own error and detail fields into one
// human-readable string for the stage trail.
func upstreamDetail(data map[string]any, status int) string {
	parts := make([]string, 0, 2)
	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := data[key].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("payment service returned status %d", status)
	}
	return strings.Join(parts, ": ")
}
