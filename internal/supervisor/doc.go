// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package supervisor runs Wayfinder's background services under a suture v4
tree.

	Root ("wayfinder")
	├── data-layer
	│   └── CatalogRefreshService
	└── observability-layer
	    └── MetricsServerService (when metrics.addr is set)

Supervisor events are logged through sutureslog, which writes to the
process zerolog logger via logging.NewSlogLogger.

# Usage

	tree := supervisor.NewTree(logging.NewSlogLogger(logger), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewCatalogRefreshService(refresher, cfg, logger))
	errCh := tree.ServeBackground(ctx)

Sessions themselves are not supervised: a conversation runs on the caller's
goroutine and only reads the catalog snapshot the refresh service swaps in.
*/
package supervisor
