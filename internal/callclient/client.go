package callclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"openlabel-backend/internal/shared/metrics"
	"openlabel-backend/internal/shared/telemetry"
	"openlabel-backend/internal/usage"
)

// Request is a replayable outbound HTTP call.
type Request struct {
	Category string
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
}

// Response is the buffered result of a successful call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// QuotaGate decides whether a category may make another call today.
type QuotaGate interface {
	Allow(ctx context.Context, category string) error
	Record(ctx context.Context, category string) (usage.Counter, error)
}

// Client wraps every outbound provider call with quota and retry handling.
type Client struct {
	HTTP  *http.Client
	Gate  QuotaGate
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Client. A nil gate disables quota checks.
func New(httpClient *http.Client, gate QuotaGate) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{HTTP: httpClient, Gate: gate, sleep: sleepContext}
}

// Invoke performs req under policy. Successful calls are counted against the category quota.
func (c *Client) Invoke(ctx context.Context, req Request, policy Policy) (Response, error) {
	if c.Gate != nil {
		if err := c.Gate.Allow(ctx, req.Category); err != nil {
			if errors.Is(err, usage.ErrLimitReached) {
				metrics.IncQuotaRejected(req.Category)
				telemetry.Warn("external.quota_exceeded", map[string]any{"category": req.Category})
				return Response{}, fmt.Errorf("%w: %s", ErrQuotaExceeded, req.Category)
			}
			return Response{}, err
		}
	}

	maxAttempts := policy.attempts()
	var lastStatus int
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.IncExternalRetry(req.Category)
			if err := c.sleep(ctx, policy.delayFor(attempt-1)); err != nil {
				return Response{}, err
			}
		}

		metrics.IncExternalCall(req.Category)
		started := time.Now()
		resp, err := c.do(ctx, req)
		fields := map[string]any{
			"category":    req.Category,
			"method":      req.Method,
			"attempt":     attempt,
			"duration_ms": time.Since(started).Milliseconds(),
		}
		if err != nil {
			fields["error"] = err
			if isTimeout(err) && ctx.Err() == nil {
				telemetry.Warn("external.attempt", fields)
				lastErr, lastStatus = err, 0
				continue
			}
			telemetry.Error("external.attempt", fields)
			return Response{}, fmt.Errorf("%s request: %w", req.Category, err)
		}
		fields["status"] = resp.Status

		if policy.isTransient(resp.Status) {
			telemetry.Warn("external.attempt", fields)
			lastErr, lastStatus = nil, resp.Status
			continue
		}
		if resp.Status >= 400 {
			telemetry.Error("external.attempt", fields)
			return Response{}, &UpstreamError{Category: req.Category, Status: resp.Status, Body: resp.Body}
		}

		telemetry.Info("external.attempt", fields)
		c.record(ctx, req.Category)
		return resp, nil
	}

	return Response{}, &RetriesExhaustedError{
		Category:   req.Category,
		Attempts:   maxAttempts,
		LastStatus: lastStatus,
		Last:       lastErr,
	}
}

func (c *Client) do(ctx context.Context, req Request) (Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Response{}, err
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// record counts a success. A failure here is logged; the provider already did the work.
func (c *Client) record(ctx context.Context, category string) {
	if c.Gate == nil {
		return
	}
	if _, err := c.Gate.Record(ctx, category); err != nil {
		telemetry.Error("external.usage_record_failed", map[string]any{"category": category, "error": err})
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
