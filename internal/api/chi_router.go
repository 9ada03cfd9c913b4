// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/docent/internal/assets"
	"github.com/tomtom215/docent/internal/config"
	"github.com/tomtom215/docent/internal/middleware"
	"github.com/tomtom215/docent/internal/session"
)

// RecommendPath is the suggestions endpoint polled by the widget.
const RecommendPath = "/fastly/recommend"

//nolint:gochecknoinits // chi rejects unregistered methods before routing
func init() {
	chi.RegisterMethod("PURGE")
}

// Router wires handlers and middleware for the public listener.
type Router struct {
	handler       *Handler
	proxy         http.Handler
	chiMiddleware *ChiMiddleware
	session       SessionConfig
}

// NewRouter creates the public router. proxy handles every path that is not
// a /fastly endpoint.
func NewRouter(cfg *config.Config, handler *Handler, proxy http.Handler) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled

	return &Router{
		handler:       handler,
		proxy:         proxy,
		chiMiddleware: NewChiMiddleware(mwConfig),
		session: SessionConfig{
			Session: session.Options{
				CookieName:    cfg.Session.CookieName,
				HistoryLength: cfg.Session.HistoryLength,
				MaxAge:        cfg.Session.MaxAge,
				Secure:        cfg.Session.Secure,
			},
			DiagnosticHeader: cfg.Diagnostics.Header,
			ServiceVersion:   cfg.Service.Version,
			StripHeaders:     cfg.Diagnostics.StripHeaders,
		},
	}
}

// SetupChi configures all public routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(MethodFilter) // before sessions: a 405 carries no session headers
	r.Use(SessionMiddleware(router.session))

	// ========================
	// Widget Endpoints
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.CORS())
		r.Use(APISecurityHeaders())

		for _, path := range assets.Paths() {
			r.Handle(path, http.HandlerFunc(router.handler.Asset))
		}

		r.With(
			router.chiMiddleware.RateLimit(),
			middleware.Compression,
		).Handle(RecommendPath, http.HandlerFunc(router.handler.Recommend))
	})

	// ========================
	// Origin
	// ========================
	r.Handle("/*", router.proxy)
	r.NotFound(router.proxy.ServeHTTP)

	return r
}

// SetupAdmin configures the admin listener: health probes and metrics.
func SetupAdmin(health *HealthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", health.HealthLive)
		r.Get("/ready", health.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
