// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/store"
)

// Keys used by ReferenceCache.
const (
	KeyRegions   = "reference:regions"
	KeyTemplates = "reference:templates"
)

// ReferenceCache caches the region and template lists shown in every page
// form. Rows are stored as JSON so any backend can hold them.
type ReferenceCache struct {
	backend Cacher
	queries *store.Queries
	ttl     time.Duration
}

// NewReferenceCache creates a reference cache over backend.
func NewReferenceCache(backend Cacher, queries *store.Queries, ttl time.Duration) *ReferenceCache {
	return &ReferenceCache{backend: backend, queries: queries, ttl: ttl}
}

// Regions returns all regions ordered by position.
func (c *ReferenceCache) Regions(ctx context.Context) ([]store.Region, error) {
	return getOrLoad(ctx, c, KeyRegions, c.queries.ListRegions)
}

// Templates returns all templates ordered by title.
func (c *ReferenceCache) Templates(ctx context.Context) ([]store.Template, error) {
	return getOrLoad(ctx, c, KeyTemplates, c.queries.ListTemplates)
}

// InvalidateRegions drops the cached region list.
func (c *ReferenceCache) InvalidateRegions(ctx context.Context) {
	c.invalidate(ctx, KeyRegions)
}

// InvalidateTemplates drops the cached template list.
func (c *ReferenceCache) InvalidateTemplates(ctx context.Context) {
	c.invalidate(ctx, KeyTemplates)
}

// Clear drops every cached entry.
func (c *ReferenceCache) Clear(ctx context.Context) error {
	return c.backend.Clear(ctx)
}

func (c *ReferenceCache) invalidate(ctx context.Context, key string) {
	if err := c.backend.Delete(ctx, key); err != nil {
		slog.Warn("cache invalidation failed", "key", key, "error", err)
	}
}

// getOrLoad serves key from the backend, or loads and stores it. Backend
// failures fall through to the loader.
func getOrLoad[T any](ctx context.Context, c *ReferenceCache, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	data, err := c.backend.Get(ctx, key)
	if err == nil {
		var items []T
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		slog.Warn("discarding undecodable cache entry", "key", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("cache get failed", "key", key, "error", err)
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
			slog.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return items, nil
}

// Stats returns the counters of the backend, if it keeps any.
func (c *ReferenceCache) Stats() (Stats, bool) {
	sp, ok := c.backend.(StatsProvider)
	if !ok {
		return Stats{}, false
	}
	return sp.Stats(), true
}
