// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package ais

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/harborlog/seatimed/internal/config"
)

// maxErrorBodySize limits how much of a response body is kept for
// error reporting and auditing.
const maxErrorBodySize = 64 * 1024 // 64KB

// redactedKey replaces the API key in any URL that is logged or stored.
const redactedKey = "REDACTED"

// Client talks to the AIS position provider over HTTP.
//
// Thread safety: all methods are safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter

	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a provider client from configuration.
func NewClient(cfg *config.AISConfig) *Client {
	rps := cfg.RateLimitPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries:     5,               // Allow up to 5 retries for rate limiting
		retryBaseDelay: 1 * time.Second, // Doubles each retry
	}
}

// FetchPositions requests recent position reports for a vessel by MMSI.
// The returned CallResult is populated even on HTTP-level failures so
// the caller can audit the attempt; it is nil only when no request was
// sent at all.
func (c *Client) FetchPositions(ctx context.Context, mmsi string) (*CallResult, error) {
	params := url.Values{}
	params.Set("mmsi", mmsi)
	params.Set("apiKey", c.apiKey)
	reqURL := fmt.Sprintf("%s/positions?%s", c.baseURL, params.Encode())

	result := &CallResult{URL: c.redactURL(mmsi)}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode
	result.Body = readBodyLimited(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("provider request failed with status %d: %s", resp.StatusCode, string(result.Body))
	}

	var envelope positionResponse
	if err := json.Unmarshal(result.Body, &envelope); err != nil {
		return result, fmt.Errorf("failed to decode provider response: %w", err)
	}

	result.Positions = envelope.Data
	return result, nil
}

// doRequestWithRateLimit performs an HTTP request with automatic rate
// limit handling. Implements exponential backoff for HTTP 429 responses
// (1s, 2s, 4s, 8s, 16s), honoring a Retry-After header when present.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// redactURL rebuilds the request URL with the API key removed, for
// logging and the audit trail.
func (c *Client) redactURL(mmsi string) string {
	params := url.Values{}
	params.Set("mmsi", mmsi)
	params.Set("apiKey", redactedKey)
	return fmt.Sprintf("%s/positions?%s", c.baseURL, params.Encode())
}

// readBodyLimited reads at most maxErrorBodySize bytes of a response body.
func readBodyLimited(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
