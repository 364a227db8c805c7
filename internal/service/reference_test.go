// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pagetree/internal/cache"
	"github.com/olegiv/ocms-pagetree/internal/forms"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/testutil"
)

func setupReferenceService(t *testing.T) *ReferenceService {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	testutil.SeedFixture(t, db)
	rc := cache.NewReferenceCache(cache.NewMemoryCache(cache.MemoryCacheOptions{}), store.New(db), time.Minute)
	return NewReferenceService(db, rc)
}

func TestCreateRegion_InvalidatesCache(t *testing.T) {
	s := setupReferenceService(t)
	ctx := context.Background()

	regions, err := s.Regions(ctx)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	r, err := s.CreateRegion(ctx, forms.RegionData{Key: "footer", Title: "Footer", Position: 5})
	require.NoError(t, err)
	assert.Equal(t, "footer", r.Key)

	regions, err = s.Regions(ctx)
	require.NoError(t, err)
	assert.Len(t, regions, 3)

	_, err = s.CreateRegion(ctx, forms.RegionData{Key: "footer", Title: "Again"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateTemplate_InvalidatesCache(t *testing.T) {
	s := setupReferenceService(t)
	ctx := context.Background()

	templates, err := s.Templates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)

	_, err = s.CreateTemplate(ctx, forms.TemplateData{Title: "Article", Path: "article.html"})
	require.NoError(t, err)

	templates, err = s.Templates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Article", templates[0].Title, "ordered by title")

	_, err = s.CreateTemplate(ctx, forms.TemplateData{Title: "Dup", Path: "base.html"})
	assert.ErrorIs(t, err, ErrDuplicate)
}
