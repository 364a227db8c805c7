// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/cache"
	"github.com/olegiv/ocms-pagetree/internal/forms"
	"github.com/olegiv/ocms-pagetree/internal/store"
)

// ErrDuplicate is returned when a region key or template path is taken.
var ErrDuplicate = errors.New("already exists")

// ReferenceService manages regions and templates. Reads go through the
// reference cache; writes invalidate it.
type ReferenceService struct {
	queries *store.Queries
	cache   *cache.ReferenceCache
}

// NewReferenceService creates a ReferenceService. The cache must be built
// over the same database.
func NewReferenceService(db *sql.DB, rc *cache.ReferenceCache) *ReferenceService {
	return &ReferenceService{queries: store.New(db), cache: rc}
}

// Regions returns every region ordered by position.
func (s *ReferenceService) Regions(ctx context.Context) ([]store.Region, error) {
	return s.cache.Regions(ctx)
}

// Templates returns every template ordered by title.
func (s *ReferenceService) Templates(ctx context.Context) ([]store.Template, error) {
	return s.cache.Templates(ctx)
}

// CreateRegion adds a region. A taken key fails with ErrDuplicate.
func (s *ReferenceService) CreateRegion(ctx context.Context, d forms.RegionData) (store.Region, error) {
	n, err := s.queries.RegionKeyExists(ctx, d.Key)
	if err != nil {
		return store.Region{}, fmt.Errorf("checking region key: %w", err)
	}
	if n > 0 {
		return store.Region{}, fmt.Errorf("region %q: %w", d.Key, ErrDuplicate)
	}

	r, err := s.queries.CreateRegion(ctx, store.CreateRegionParams{
		Key:       d.Key,
		Title:     d.Title,
		Inherited: d.Inherited,
		Position:  d.Position,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return store.Region{}, fmt.Errorf("creating region: %w", err)
	}
	s.cache.InvalidateRegions(ctx)
	return r, nil
}

// CreateTemplate adds a template. A taken path fails with ErrDuplicate.
func (s *ReferenceService) CreateTemplate(ctx context.Context, d forms.TemplateData) (store.Template, error) {
	n, err := s.queries.TemplatePathExists(ctx, d.Path)
	if err != nil {
		return store.Template{}, fmt.Errorf("checking template path: %w", err)
	}
	if n > 0 {
		return store.Template{}, fmt.Errorf("template %q: %w", d.Path, ErrDuplicate)
	}

	now := time.Now()
	t, err := s.queries.CreateTemplate(ctx, store.CreateTemplateParams{
		Title:     d.Title,
		Path:      d.Path,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.Template{}, fmt.Errorf("creating template: %w", err)
	}
	s.cache.InvalidateTemplates(ctx)
	return t, nil
}
