// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

/*
Package api is the HTTP layer of Docent: the public proxy router and the admin
router.

Request flow on the public listener:

 1. RequestID, RealIP, AccessLog, PrometheusMetrics and Recoverer
 2. MethodFilter: anything but GET, HEAD and PURGE gets 405 and nothing else
 3. SessionMiddleware: decode the visitor cookie, record object page views,
    and finalize response headers (Set-Cookie, diagnostic header, stripped
    origin headers) just before they are written
 4. Dispatch:
    - /fastly/script, /fastly/style, /fastly/logo: embedded widget assets
    - /fastly/recommend: personalized suggestions as JSON
    - everything else: the origin proxy

The /fastly group carries CORS and security headers; /fastly/recommend is
also rate limited per client IP and gzip compressed.

Error responses use the standard envelope:

	{"status":"error","error":{"code":"VALIDATION_ERROR","message":"offset must be an integer"}}

The admin router serves /health/live, /health/ready and /metrics on its own
listener so that no public path is shadowed.
*/
package api
