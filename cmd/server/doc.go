// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

/*
Package main is the entry point for the Docent server.

Docent sits in front of a museum website. It proxies every page to the
origin, remembers which collection objects a visitor has viewed in a
cookie, injects a recommendation widget into navigated HTML documents and
serves the widget's suggestions from an external recommender and the
public collection API.

# Application Architecture

	RootSupervisor ("docent")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── cache-janitor (CACHE_SWEEP_SCHEDULE)
	└── APISupervisor ("api-layer")
	    ├── proxy-server (HTTP_PORT, default 8080)
	    └── admin-server (ADMIN_PORT, default 9090: /health/live, /health/ready, /metrics)

Initialization order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog with JSON or console output
 3. Catalog cache: in-memory LRU or BadgerDB
 4. Upstream clients: recommender and catalog, each behind a circuit breaker
 5. Origin proxy with the streaming HTML rewriter
 6. Supervisor tree: suture v4

# Public Routes

	GET /fastly/script      widget JavaScript
	GET /fastly/style       widget stylesheet
	GET /fastly/logo        widget logo
	GET /fastly/recommend   suggestions JSON (?offset=N)
	*   /*                  origin (GET, HEAD and PURGE; anything else is 405)

# Example Usage

	export ORIGIN_URL=https://www.metmuseum.org
	export RECOMMENDER_URL=https://recommender.example.com
	export CATALOG_URL=https://collectionapi.metmuseum.org
	export FASTLY_SERVICE_VERSION=42
	./docent

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. Listeners stop accepting
connections and drain in-flight requests for SHUTDOWN_TIMEOUT.
*/
package main
