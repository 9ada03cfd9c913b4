// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

/*
Package supervisor provides process supervision for Docent using suture v4.

Long-running components are organized into a two-layer tree:

	RootSupervisor ("docent")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── SchedulerService ("cache-janitor")
	└── APISupervisor ("api-layer")
	    ├── HTTPServerService ("proxy-server")
	    └── HTTPServerService ("admin-server", if ADMIN_ENABLED)

A failing janitor is restarted without touching the listeners, and a
listener that cannot bind is retried with backoff without stopping the
janitor.

Supervisor events (service panics, terminations, backoff) are logged through
sutureslog into the zerolog-backed slog handler from the logging package.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMaintenanceService(services.NewSchedulerService("cache-janitor", janitor))
	tree.AddAPIService(services.NewHTTPServerService("proxy-server", server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

# Testing

MockService implements suture.Service with controllable failures for
supervisor tests.
*/
package supervisor
