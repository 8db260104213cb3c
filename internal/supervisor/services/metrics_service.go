// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServer matches the lifecycle methods of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// NewMetricsServer returns an http.Server exposing the default Prometheus
// registry at /metrics.
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// MetricsServerService runs the metrics listener under supervision.
//
// ListenAndServe runs in a goroutine; on context cancellation the server is
// shut down within shutdownTimeout. http.ErrServerClosed is not an error.
type MetricsServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewMetricsServerService wraps server.
func NewMetricsServerService(server HTTPServer, shutdownTimeout time.Duration) *MetricsServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return &MetricsServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "metrics-server",
	}
}

// Serve implements suture.Service.
func (m *MetricsServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// ctx is already canceled; shut down on a fresh one.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
		defer cancel()

		if err := m.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String returns the service name for suture's logs.
func (m *MetricsServerService) String() string {
	return m.name
}
