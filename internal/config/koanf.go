// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/docent/config.yaml",
	"/etc/docent/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultFragment is injected before the closing body tag of navigated pages.
const DefaultFragment = `<link rel='stylesheet' href="/fastly/style" /><script src="/fastly/script" async defer></script>`

// DefaultStripHeaders are removed from every response before it leaves the proxy.
var DefaultStripHeaders = []string{
	"server",
	"x-cdn",
	"x-linfo",
	"x-powered-by",
	"x-vercel-id",
	"permissions-policy",
	"link",
}

// defaultConfig returns the built-in defaults. The config file and the
// environment are layered on top.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Admin: AdminConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    9090,
		},
		Service: ServiceConfig{
			Version: "dev",
		},
		Origin: OriginConfig{
			URL:                   "https://www.metmuseum.org",
			DialTimeout:           5 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			MaxIdleConnsPerHost:   64,
		},
		Session: SessionConfig{
			CookieName:    "fastly",
			HistoryLength: 5,
			MaxAge:        0,
			Secure:        false,
		},
		Rewriter: RewriterConfig{
			Marker:       "</body>",
			Fragment:     DefaultFragment,
			CarryOverlap: false,
			BufferSize:   32 * 1024,
		},
		Recommender: RecommenderConfig{
			URL:            "https://wholly-proven-reindeer.edgecompute.app",
			Timeout:        5 * time.Second,
			MaxRetries:     2,
			RetryBaseDelay: 200 * time.Millisecond,
			Count:          10,
		},
		Catalog: CatalogConfig{
			URL:              "https://collectionapi.metmuseum.org",
			Timeout:          5 * time.Second,
			MaxRetries:       2,
			RetryBaseDelay:   200 * time.Millisecond,
			RateLimit:        80,
			RateBurst:        10,
			FreshTTL:         24 * time.Hour,
			StaleTTL:         time.Hour,
			PlaceholderImage: "/Rodan/dist/svg/no-image-image-related.svg",
		},
		Cache: CacheConfig{
			Backend:       "memory",
			Capacity:      10000,
			Path:          "",
			SweepSchedule: "@every 5m",
		},
		Diagnostics: DiagnosticsConfig{
			Header:       "fastly-debug",
			StripHeaders: append([]string(nil), DefaultStripHeaders...),
		},
		Security: SecurityConfig{
			RateLimitReqs:     120,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"https://www.metmuseum.org"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration in three layers, lowest priority first:
//
//  1. Defaults
//  2. Config file, if one exists
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := FindConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// ORIGIN_URL -> origin.url, CATALOG_FRESH_TTL -> catalog.fresh_ttl
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile returns the first config file that exists, or "".
func FindConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from the environment.
var sliceConfigPaths = []string{
	"diagnostics.strip_headers",
	"security.cors_origins",
}

// processSliceFields splits comma-separated strings for the known slice paths.
// Values that already are slices (from YAML) are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"http_idle_timeout":  "server.idle_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",
	"environment":        "server.environment",

	// Admin listener
	"admin_enabled": "admin.enabled",
	"admin_host":    "admin.host",
	"admin_port":    "admin.port",

	// Both names are accepted; the edge platform exports the first.
	"fastly_service_version": "service.version",
	"service_version":        "service.version",

	// Origin
	"origin_url":                     "origin.url",
	"origin_dial_timeout":            "origin.dial_timeout",
	"origin_timeout":                 "origin.response_header_timeout",
	"origin_max_idle_conns_per_host": "origin.max_idle_conns_per_host",

	// Session
	"session_cookie_name":    "session.cookie_name",
	"session_history_length": "session.history_length",
	"session_max_age":        "session.max_age",
	"session_secure":         "session.secure",

	// Rewriter
	"rewriter_marker":        "rewriter.marker",
	"rewriter_fragment":      "rewriter.fragment",
	"rewriter_carry_overlap": "rewriter.carry_overlap",
	"rewriter_buffer_size":   "rewriter.buffer_size",

	// Recommender
	"recommender_url":              "recommender.url",
	"recommender_timeout":          "recommender.timeout",
	"recommender_max_retries":      "recommender.max_retries",
	"recommender_retry_base_delay": "recommender.retry_base_delay",
	"recommender_count":            "recommender.count",

	// Catalog
	"catalog_url":               "catalog.url",
	"catalog_timeout":           "catalog.timeout",
	"catalog_max_retries":       "catalog.max_retries",
	"catalog_retry_base_delay":  "catalog.retry_base_delay",
	"catalog_rate_limit":        "catalog.rate_limit",
	"catalog_rate_burst":        "catalog.rate_burst",
	"catalog_fresh_ttl":         "catalog.fresh_ttl",
	"catalog_stale_ttl":         "catalog.stale_ttl",
	"catalog_placeholder_image": "catalog.placeholder_image",

	// Cache
	"cache_backend":        "cache.backend",
	"cache_capacity":       "cache.capacity",
	"cache_path":           "cache.path",
	"cache_sweep_schedule": "cache.sweep_schedule",

	// Diagnostics
	"diagnostics_header": "diagnostics.header",
	"strip_headers":      "diagnostics.strip_headers",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unknown names return "" so that unrelated variables are skipped.
//
//   - ORIGIN_URL -> origin.url
//   - FASTLY_SERVICE_VERSION -> service.version
//   - DISABLE_RATE_LIMIT -> security.rate_limit_disabled
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller owns any locking around the reloaded configuration.
//
//	err := config.WatchConfigFile(path, func() {
//	    newCfg, err := config.Load()
//	    if err != nil {
//	        logging.Warn().Err(err).Msg("config reload failed")
//	        return
//	    }
//	    logging.SetLevelString(newCfg.Logging.Level)
//	})
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
