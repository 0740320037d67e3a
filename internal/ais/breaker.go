// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package ais

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/harborlog/seatimed/internal/logging"
	"github.com/harborlog/seatimed/internal/metrics"
)

// BreakerClient wraps Client with a circuit breaker so a failing or
// slow provider does not stall every scheduler tick.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should mock the underlying client rather than the breaker.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[*CallResult]
}

// NewBreakerClient creates a provider client with circuit breaker.
// Breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewBreakerClient(client *Client) *BreakerClient {
	metrics.CircuitBreakerState.Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[*CallResult](gobreaker.Settings{
		Name:        "ais-provider",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(_ string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{client: client, cb: cb}
}

// FetchPositions fetches positions through the circuit breaker.
func (b *BreakerClient) FetchPositions(ctx context.Context, mmsi string) (*CallResult, error) {
	start := time.Now()
	result, err := b.cb.Execute(func() (*CallResult, error) {
		return b.client.FetchPositions(ctx, mmsi)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ObserveProviderRequest("breaker_open", start)
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.ObserveProviderRequest("error", start)
		}
		return result, err
	}
	metrics.ObserveProviderRequest("success", start)
	return result, nil
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
