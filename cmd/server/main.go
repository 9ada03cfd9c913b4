// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/docent/internal/aggregator"
	"github.com/tomtom215/docent/internal/api"
	"github.com/tomtom215/docent/internal/cache"
	"github.com/tomtom215/docent/internal/catalog"
	"github.com/tomtom215/docent/internal/config"
	"github.com/tomtom215/docent/internal/logging"
	"github.com/tomtom215/docent/internal/origin"
	"github.com/tomtom215/docent/internal/recommender"
	"github.com/tomtom215/docent/internal/rewriter"
	"github.com/tomtom215/docent/internal/supervisor"
	"github.com/tomtom215/docent/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Server.Environment).
		Str("config", cfg.String()).
		Msg("Starting Docent")

	watchConfig()

	// ========================
	// Upstreams
	// ========================
	store, err := cache.NewStore(cache.Config{
		Backend:  cache.Backend(cfg.Cache.Backend),
		Capacity: cfg.Cache.Capacity,
		Path:     cfg.Cache.Path,
	})
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Cache.Backend).Msg("Failed to open catalog cache")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing catalog cache")
		}
	}()

	catalogClient := catalog.New(cfg.Catalog, store, nil)
	recommenderClient := recommender.New(cfg.Recommender, nil)
	agg := aggregator.New(recommenderClient, catalogClient)

	proxy, err := origin.New(origin.Options{
		URL:                   cfg.Origin.URL,
		DialTimeout:           cfg.Origin.DialTimeout,
		ResponseHeaderTimeout: cfg.Origin.ResponseHeaderTimeout,
		MaxIdleConnsPerHost:   cfg.Origin.MaxIdleConnsPerHost,
		Rewriter: rewriter.Options{
			Marker:       cfg.Rewriter.Marker,
			Fragment:     cfg.Rewriter.Fragment,
			CarryOverlap: cfg.Rewriter.CarryOverlap,
		},
		BufferSize:   cfg.Rewriter.BufferSize,
		ErrorHandler: api.OriginErrorHandler,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create origin proxy")
	}

	// ========================
	// Supervisor Tree
	// ========================
	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), treeConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Cache.SweepSchedule != "" {
		janitor, err := cache.NewJanitor(store, cfg.Cache.SweepSchedule)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create cache janitor")
		}
		tree.AddMaintenanceService(services.NewSchedulerService("cache-janitor", janitor))
	}

	handler := api.NewHandler(agg, cfg.Recommender.Count)
	publicServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg, handler, proxy).SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     logging.NewSlogLogLogger("http-server"),
	}
	tree.AddAPIService(services.NewHTTPServerService("proxy-server", publicServer, cfg.Server.ShutdownTimeout))

	if cfg.Admin.Enabled {
		health := api.NewHealthHandler(cfg.Service.Version, catalogClient.Breaker(), recommenderClient.Breaker())
		adminServer := &http.Server{
			Addr:        cfg.Admin.Addr(),
			Handler:     api.SetupAdmin(health),
			ReadTimeout: cfg.Server.ReadTimeout,
			IdleTimeout: cfg.Server.IdleTimeout,
			ErrorLog:    logging.NewSlogLogLogger("admin-server"),
		}
		tree.AddAPIService(services.NewHTTPServerService("admin-server", adminServer, cfg.Server.ShutdownTimeout))
	}

	// ========================
	// Run
	// ========================
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("listen", cfg.Server.Addr()).
		Bool("admin", cfg.Admin.Enabled).
		Str("origin", cfg.Origin.URL).
		Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Docent stopped")
}

// watchConfig reloads the log level when the config file changes. Every
// other setting needs a restart.
func watchConfig() {
	path := config.FindConfigFile()
	if path == "" {
		return
	}

	err := config.WatchConfigFile(path, func() {
		newCfg, err := config.Load()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config reload failed")
			return
		}
		logging.SetLevelString(newCfg.Logging.Level)
		logging.Info().Str("level", newCfg.Logging.Level).Msg("Config file changed, log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch disabled")
	}
}
