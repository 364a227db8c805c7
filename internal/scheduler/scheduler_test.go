// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/content"
	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/testutil"
)

func newTestScheduler(t *testing.T, retentionDays int) (*Scheduler, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	s := New(testutil.TestLoggerSilent(), service.NewEventService(db), service.NewPageService(db, content.Default()), retentionDays)
	return s, store.New(db)
}

func TestScheduler_StartStop(t *testing.T) {
	s, _ := newTestScheduler(t, 30)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if n := len(s.cron.Entries()); n != 2 {
		t.Errorf("jobs = %d, want 2", n)
	}
	s.Stop()
}

func TestScheduler_NoPruneJobWithoutRetention(t *testing.T) {
	s, _ := newTestScheduler(t, 0)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("jobs = %d, want 1", n)
	}
}

func TestPruneEvents(t *testing.T) {
	s, q := newTestScheduler(t, 1)
	ctx := context.Background()

	for _, age := range []time.Duration{72 * time.Hour, time.Hour} {
		if _, err := q.CreateEvent(ctx, store.CreateEventParams{
			Level:     model.EventLevelInfo,
			Category:  model.EventCategorySystem,
			Message:   "tick",
			Metadata:  "{}",
			CreatedAt: time.Now().Add(-age),
		}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	n, err := s.PruneEvents(ctx)
	if err != nil {
		t.Fatalf("PruneEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
}

func TestCheckTree(t *testing.T) {
	s, _ := newTestScheduler(t, 0)
	if err := s.CheckTree(context.Background()); err != nil {
		t.Errorf("empty forest should be consistent: %v", err)
	}
}
