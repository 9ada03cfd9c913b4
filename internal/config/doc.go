// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

/*
Package config loads and validates Docent's configuration.

Configuration is layered with Koanf v2, lowest priority first:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: CONFIG_PATH, else ./config.yaml, else /etc/docent/config.yaml
 3. Environment variables, through an explicit name map (envTransformFunc)

Environment variables not in the map are ignored.

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT: proxy listener (default 0.0.0.0:8080)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT
  - SHUTDOWN_TIMEOUT: graceful drain window (default 10s)
  - ADMIN_ENABLED, ADMIN_HOST, ADMIN_PORT: health and metrics listener (default :9090)
  - FASTLY_SERVICE_VERSION or SERVICE_VERSION: version reported in the diagnostic header

Origin:
  - ORIGIN_URL: the proxied site (default https://www.metmuseum.org)
  - ORIGIN_TIMEOUT: response header timeout

Session:
  - SESSION_COOKIE_NAME (default fastly), SESSION_HISTORY_LENGTH (default 5)
  - SESSION_MAX_AGE (default 0, browser session), SESSION_SECURE

Rewriter:
  - REWRITER_MARKER (default </body>), REWRITER_FRAGMENT
  - REWRITER_CARRY_OVERLAP: detect markers split across chunks (default false)

Upstreams:
  - RECOMMENDER_URL, RECOMMENDER_COUNT (default 10), RECOMMENDER_TIMEOUT
  - CATALOG_URL, CATALOG_TIMEOUT, CATALOG_RATE_LIMIT, CATALOG_FRESH_TTL, CATALOG_STALE_TTL
  - CACHE_BACKEND (memory or badger), CACHE_CAPACITY, CACHE_PATH, CACHE_SWEEP_SCHEDULE

Security and logging:
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT, CORS_ORIGINS
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("invalid configuration")
	}
*/
package config
