// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the page tree admin configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"PAGETREE_DB_PATH" envDefault:"./data/pagetree.db"`
	SessionSecret string `env:"PAGETREE_SESSION_SECRET,required"`
	ServerHost    string `env:"PAGETREE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"PAGETREE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"PAGETREE_ENV" envDefault:"development"`
	LogLevel      string `env:"PAGETREE_LOG_LEVEL" envDefault:"info"`

	// AdminMedia is the URL path the admin static assets are served under.
	AdminMedia string `env:"PAGETREE_ADMIN_MEDIA" envDefault:"/media/sys/feincms/"`

	// Cache configuration
	RedisURL     string `env:"PAGETREE_REDIS_URL"`                           // Optional Redis URL for distributed caching
	CachePrefix  string `env:"PAGETREE_CACHE_PREFIX" envDefault:"pagetree:"` // Redis key prefix
	CacheTTL     int    `env:"PAGETREE_CACHE_TTL" envDefault:"3600"`         // Default cache TTL in seconds
	CacheMaxSize int    `env:"PAGETREE_CACHE_MAX_SIZE" envDefault:"1000"`    // Max memory cache entries

	// EventRetentionDays is how long event log rows are kept (0 disables pruning).
	EventRetentionDays int `env:"PAGETREE_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed bool `env:"PAGETREE_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// AdminMediaPath returns AdminMedia normalised to start and end with a slash.
func (c Config) AdminMediaPath() string {
	p := strings.Trim(c.AdminMedia, "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("PAGETREE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("PAGETREE_SESSION_SECRET is a known default value and must not be used")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("PAGETREE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.EventRetentionDays < 0 {
		return nil, fmt.Errorf("PAGETREE_EVENT_RETENTION_DAYS must not be negative, got %d", cfg.EventRetentionDays)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes.
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
