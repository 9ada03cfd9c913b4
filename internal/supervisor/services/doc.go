// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

/*
Package services provides suture.Service wrappers for Docent components.

Each wrapper translates a component's lifecycle into suture's
context-aware Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTPServerService wraps an *http.Server. It is used twice: once for the
public proxy listener and once for the admin listener.

SchedulerService wraps a non-blocking Start/Stop component. The catalog
cache janitor (cache.Janitor) runs under it.

# Error Handling

Serve returns ctx.Err() after a requested shutdown. Any other error makes
suture restart the service, subject to the tree's failure threshold and
backoff.
*/
package services
