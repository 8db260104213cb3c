// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package services provides suture.Service wrappers for Wayfinder's background
components.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

and returns ctx.Err() once its context is canceled, so the supervisor can tell
a clean stop from a failure.

# Available Services

Catalog refresh (CatalogRefreshService):
  - Rebuilds the catalog index on an interval and swaps it in atomically
  - A failed refresh is logged and the previous snapshot stays live

Metrics endpoint (MetricsServerService):
  - Serves the Prometheus registry on /metrics
  - Shuts the listener down gracefully on cancellation
*/
package services
