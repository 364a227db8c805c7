// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Options selects and configures a backend.
type Options struct {
	// RedisURL selects the Redis backend when set.
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
	MaxSize    int
}

// New returns a Redis cache when opts.RedisURL is set and reachable, and a
// memory cache otherwise. The returned string names the backend in use.
func New(opts Options) (Cacher, string) {
	if opts.RedisURL != "" {
		rc, err := NewRedisCache(RedisCacheOptions{
			URL:        opts.RedisURL,
			Prefix:     opts.Prefix,
			DefaultTTL: opts.DefaultTTL,
		})
		if err == nil {
			return rc, "redis"
		}
		slog.Warn("redis unavailable, falling back to memory cache", "error", err)
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL: opts.DefaultTTL,
		MaxSize:    opts.MaxSize,
	}), "memory"
}
