// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

/*
Package metrics holds Docent's Prometheus collectors.

All collectors are registered with the default registry through promauto and
exposed on the admin listener:

	curl http://localhost:9090/metrics

# Available Metrics

HTTP:
  - http_requests_total{method, route, status_code}
  - http_request_duration_seconds{method, route}
  - http_active_requests

Upstreams (origin, recommender, catalog):
  - upstream_requests_total{upstream, outcome}
  - upstream_request_duration_seconds{upstream}
  - upstream_retries_total{upstream}

Circuit breakers:
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name, result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name, from_state, to_state}

Catalog:
  - catalog_cache_results_total{result}: fresh, stale, miss
  - catalog_cache_entries
  - catalog_cache_sweeps_total
  - catalog_objects_dropped_total

Personalization:
  - recommender_latency_seconds
  - suggestions_returned
  - rewriter_documents_total{result}: injected, straddled, no_marker
  - sessions_created_total
  - session_cookies_issued_total

# Example Alerts

	- alert: RecommenderBreakerOpen
	  expr: circuit_breaker_state{name="recommender"} == 2
	  for: 5m

	- alert: MarkerStraddling
	  expr: rate(rewriter_documents_total{result="straddled"}[15m]) > 0
	  annotations:
	    summary: "Consider REWRITER_CARRY_OVERLAP=true"
*/
package metrics
