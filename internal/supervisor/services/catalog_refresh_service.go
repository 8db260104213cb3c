// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/catalog"
)

// CatalogRefresher rebuilds and swaps the live catalog snapshot.
// Satisfied by *catalog.Refresher.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (catalog.BuildStats, error)
}

// CatalogRefreshConfig controls the refresh loop.
type CatalogRefreshConfig struct {
	// Interval between refreshes. Default: 1h
	Interval time.Duration

	// RefreshOnStartup refreshes as soon as the service starts.
	RefreshOnStartup bool

	// Timeout bounds a single refresh. Default: 5m
	Timeout time.Duration
}

// CatalogRefreshService periodically rebuilds the catalog from its source.
// A failed refresh leaves the previous snapshot live and is retried on the
// next tick; it never stops the service.
type CatalogRefreshService struct {
	refresher CatalogRefresher
	config    CatalogRefreshConfig
	logger    zerolog.Logger
	name      string
}

// NewCatalogRefreshService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCatalogRefreshService(refresher CatalogRefresher, cfg CatalogRefreshConfig, logger zerolog.Logger) *CatalogRefreshService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &CatalogRefreshService{
		refresher: refresher,
		config:    cfg,
		logger:    logger.With().Str("service", "catalog-refresh").Logger(),
		name:      "catalog-refresh-service",
	}
}

// Serve implements suture.Service.
func (s *CatalogRefreshService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("refresh_on_startup", s.config.RefreshOnStartup).
		Dur("interval", s.config.Interval).
		Msg("Catalog refresh service starting")

	if s.config.RefreshOnStartup {
		s.refresh(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Catalog refresh service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *CatalogRefreshService) refresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	stats, err := s.refresher.Refresh(refreshCtx)
	if err != nil {
		s.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Catalog refresh failed, keeping previous snapshot")
		return
	}
	s.logger.Debug().
		Int("records", stats.Indexed).
		Dur("duration", time.Since(start)).
		Msg("Catalog refresh complete")
}

// String returns the service name for suture's logs.
func (s *CatalogRefreshService) String() string {
	return s.name
}
