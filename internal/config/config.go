// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Admin       AdminConfig       `koanf:"admin"`
	Service     ServiceConfig     `koanf:"service"`
	Origin      OriginConfig      `koanf:"origin"`
	Session     SessionConfig     `koanf:"session"`
	Rewriter    RewriterConfig    `koanf:"rewriter"`
	Recommender RecommenderConfig `koanf:"recommender"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Cache       CacheConfig       `koanf:"cache"`
	Diagnostics DiagnosticsConfig `koanf:"diagnostics"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig is the public proxy listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"` // 0 disables; streamed documents may be slow
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AdminConfig is the health and metrics listener. It is kept off the public
// port so that every public path other than /fastly/* reaches the origin.
type AdminConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
}

// Addr returns host:port for net.Listen.
func (a AdminConfig) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ServiceConfig identifies the running build.
type ServiceConfig struct {
	Version string `koanf:"version"`
}

// OriginConfig is the single proxied site.
type OriginConfig struct {
	URL                   string        `koanf:"url"`
	DialTimeout           time.Duration `koanf:"dial_timeout"`
	ResponseHeaderTimeout time.Duration `koanf:"response_header_timeout"`
	MaxIdleConnsPerHost   int           `koanf:"max_idle_conns_per_host"`
}

// SessionConfig controls the visitor cookie.
type SessionConfig struct {
	CookieName    string `koanf:"cookie_name"`
	HistoryLength int    `koanf:"history_length"`
	MaxAge        int    `koanf:"max_age"` // seconds; 0 keeps a browser-session cookie
	Secure        bool   `koanf:"secure"`
}

// RewriterConfig controls HTML injection.
type RewriterConfig struct {
	Marker       string `koanf:"marker"`
	Fragment     string `koanf:"fragment"`
	CarryOverlap bool   `koanf:"carry_overlap"`
	BufferSize   int    `koanf:"buffer_size"`
}

// RecommenderConfig is the external recommendation service.
type RecommenderConfig struct {
	URL            string        `koanf:"url"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	Count          int           `koanf:"count"`
}

// CatalogConfig is the external object metadata service.
type CatalogConfig struct {
	URL              string        `koanf:"url"`
	Timeout          time.Duration `koanf:"timeout"`
	MaxRetries       int           `koanf:"max_retries"`
	RetryBaseDelay   time.Duration `koanf:"retry_base_delay"`
	RateLimit        float64       `koanf:"rate_limit"` // requests per second
	RateBurst        int           `koanf:"rate_burst"`
	FreshTTL         time.Duration `koanf:"fresh_ttl"`
	StaleTTL         time.Duration `koanf:"stale_ttl"`
	PlaceholderImage string        `koanf:"placeholder_image"`
}

// CacheConfig selects the catalog cache backend.
type CacheConfig struct {
	Backend       string `koanf:"backend"` // memory or badger
	Capacity      int    `koanf:"capacity"`
	Path          string `koanf:"path"` // badger directory; empty runs badger in memory
	SweepSchedule string `koanf:"sweep_schedule"`
}

// DiagnosticsConfig controls response header post-processing.
type DiagnosticsConfig struct {
	Header       string   `koanf:"header"`
	StripHeaders []string `koanf:"strip_headers"`
}

// SecurityConfig controls the /fastly API group.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// String summarizes the effective endpoints for the startup log.
func (c *Config) String() string {
	return fmt.Sprintf("listen=%s origin=%s recommender=%s catalog=%s cache=%s",
		c.Server.Addr(), c.Origin.URL, c.Recommender.URL, c.Catalog.URL, c.Cache.Backend)
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
