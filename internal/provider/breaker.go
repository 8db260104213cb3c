// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/geo"
	"github.com/tomtom215/wayfinder/internal/metrics"
)

// Breaker is a circuit breaker around one collaborator. While open it fails
// calls immediately with gobreaker.ErrOpenState; it never retries.
//
// The breaker uses real time for its interval and timeout. Tests that need
// to trip it do so with a low MinRequests rather than by faking the clock.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
	logger zerolog.Logger
}

// NewBreaker creates a breaker named after the collaborator it protects.
// The circuit opens once at least MinRequests calls were made in the current
// interval and the failure ratio reaches FailureRatio. A missing place and a
// caller cancellation do not count as failures.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreaker(name string, cfg *config.BreakerConfig, logger zerolog.Logger) *Breaker {
	b := &Breaker{
		name:   name,
		logger: logger.With().Str("component", "circuit_breaker").Str("breaker", name).Logger(),
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	b.cb = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				b.logger.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: isSuccessful,

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			b.logger.Info().Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return b
}

// isSuccessful reports whether err says nothing about the collaborator's health.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, ErrPlaceNotFound) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, context.Canceled)
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current breaker state as "closed", "half-open" or "open".
func (b *Breaker) State() string { return stateToString(b.cb.State()) }

// execute runs fn under the breaker and records the outcome.
func (b *Breaker) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			b.logger.Warn().Err(err).Msg("Request rejected by open circuit")
		case isSuccessful(err):
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		default:
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
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

// BreakerEmbedder guards an Embedder with a circuit breaker.
type BreakerEmbedder struct {
	next    Embedder
	breaker *Breaker
}

// NewBreakerEmbedder wraps next.
func NewBreakerEmbedder(next Embedder, breaker *Breaker) *BreakerEmbedder {
	return &BreakerEmbedder{next: next, breaker: breaker}
}

// Embed implements Embedder.
func (e *BreakerEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return castResult[[]float32](e.breaker.execute(func() (interface{}, error) {
		return e.next.Embed(ctx, text)
	}))
}

// BreakerGeocoder guards a Geocoder with a circuit breaker.
type BreakerGeocoder struct {
	next    Geocoder
	breaker *Breaker
}

// NewBreakerGeocoder wraps next.
func NewBreakerGeocoder(next Geocoder, breaker *Breaker) *BreakerGeocoder {
	return &BreakerGeocoder{next: next, breaker: breaker}
}

// Geocode implements Geocoder.
func (g *BreakerGeocoder) Geocode(ctx context.Context, place string) (geo.Point, error) {
	p, err := castResult[geo.Point](g.breaker.execute(func() (interface{}, error) {
		return g.next.Geocode(ctx, place)
	}))
	if err != nil {
		return geo.Missing(), err
	}
	return p, nil
}

// BreakerGenerator guards a TextGenerator with a circuit breaker.
type BreakerGenerator struct {
	next    TextGenerator
	breaker *Breaker
}

// NewBreakerGenerator wraps next.
func NewBreakerGenerator(next TextGenerator, breaker *Breaker) *BreakerGenerator {
	return &BreakerGenerator{next: next, breaker: breaker}
}

// Complete implements TextGenerator.
func (g *BreakerGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	return castResult[string](g.breaker.execute(func() (interface{}, error) {
		return g.next.Complete(ctx, prompt)
	}))
}
