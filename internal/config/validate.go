// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var validCacheBackends = map[string]bool{
	"memory": true,
	"badger": true,
}

// Validate checks the loaded configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateUpstreams(); err != nil {
		return err
	}

	if err := c.validateSession(); err != nil {
		return err
	}

	if err := c.validateRewriter(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Admin.Enabled {
		if c.Admin.Port < 1 || c.Admin.Port > 65535 {
			return fmt.Errorf("ADMIN_PORT must be between 1 and 65535")
		}
		if c.Admin.Port == c.Server.Port && c.Admin.Host == c.Server.Host {
			return fmt.Errorf("ADMIN_PORT must differ from HTTP_PORT")
		}
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateUpstreams() error {
	if c.Origin.URL == "" {
		return fmt.Errorf("ORIGIN_URL is required")
	}
	if err := validateHTTPURL(c.Origin.URL, "ORIGIN_URL"); err != nil {
		return err
	}

	if c.Recommender.URL == "" {
		return fmt.Errorf("RECOMMENDER_URL is required")
	}
	if err := validateServiceURL(c.Recommender.URL, "RECOMMENDER_URL"); err != nil {
		return err
	}
	if c.Recommender.Count < 1 {
		return fmt.Errorf("RECOMMENDER_COUNT must be at least 1")
	}
	if c.Recommender.MaxRetries < 0 {
		return fmt.Errorf("RECOMMENDER_MAX_RETRIES must not be negative")
	}

	if c.Catalog.URL == "" {
		return fmt.Errorf("CATALOG_URL is required")
	}
	if err := validateHTTPURL(c.Catalog.URL, "CATALOG_URL"); err != nil {
		return err
	}
	if c.Catalog.RateLimit <= 0 {
		return fmt.Errorf("CATALOG_RATE_LIMIT must be positive")
	}
	if c.Catalog.RateBurst < 1 {
		return fmt.Errorf("CATALOG_RATE_BURST must be at least 1")
	}
	if c.Catalog.FreshTTL <= 0 {
		return fmt.Errorf("CATALOG_FRESH_TTL must be positive")
	}
	if c.Catalog.StaleTTL < 0 {
		return fmt.Errorf("CATALOG_STALE_TTL must not be negative")
	}
	if c.Catalog.MaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.CookieName == "" || strings.ContainsAny(c.Session.CookieName, "=; \t") {
		return fmt.Errorf("SESSION_COOKIE_NAME must be a non-empty cookie token")
	}
	if c.Session.HistoryLength < 1 {
		return fmt.Errorf("SESSION_HISTORY_LENGTH must be at least 1")
	}
	if c.Session.MaxAge < 0 {
		return fmt.Errorf("SESSION_MAX_AGE must not be negative")
	}
	return nil
}

func (c *Config) validateRewriter() error {
	if c.Rewriter.Marker == "" {
		return fmt.Errorf("REWRITER_MARKER is required")
	}
	if c.Rewriter.BufferSize < len(c.Rewriter.Marker) {
		return fmt.Errorf("REWRITER_BUFFER_SIZE must be at least the marker length")
	}
	return nil
}

func (c *Config) validateCache() error {
	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, badger")
	}
	if c.Cache.Backend == "memory" && c.Cache.Capacity < 1 {
		return fmt.Errorf("CACHE_CAPACITY must be at least 1")
	}
	if c.Cache.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.Cache.SweepSchedule); err != nil {
			return fmt.Errorf("CACHE_SWEEP_SCHEDULE is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	// go-chi/cors allows every origin when the list is empty.
	if len(c.Security.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" && c.IsProduction() {
			return fmt.Errorf("CORS_ORIGINS must not be * in production")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL accepts a base URL: http(s) scheme, a host, and no path
// beyond "/".
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := validateServiceURLParts(rawURL, fieldName)
	if err != nil {
		return err
	}

	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}
	return nil
}

// validateServiceURL accepts an http(s) URL that may carry a path, as the
// recommender endpoint does.
func validateServiceURL(rawURL, fieldName string) error {
	_, err := validateServiceURLParts(rawURL, fieldName)
	return err
}

func validateServiceURLParts(rawURL, fieldName string) (*url.URL, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return nil, fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return nil, fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return parsedURL, nil
}
