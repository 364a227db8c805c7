// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: event log pruning
// and the page tree consistency check.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/service"
)

// Job schedules in cron syntax.
const (
	PruneEventsSpec = "@daily"
	CheckTreeSpec   = "@hourly"
)

// Scheduler runs the maintenance jobs.
type Scheduler struct {
	cron      *cron.Cron
	logger    *slog.Logger
	events    *service.EventService
	pages     *service.PageService
	retention time.Duration
}

// New creates a new scheduler instance. retentionDays 0 disables event
// pruning.
func New(logger *slog.Logger, events *service.EventService, pages *service.PageService, retentionDays int) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		logger:    logger,
		events:    events,
		pages:     pages,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.retention > 0 {
		if _, err := s.cron.AddFunc(PruneEventsSpec, func() {
			if _, err := s.PruneEvents(context.Background()); err != nil {
				s.logger.Error("failed to prune event log", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	if _, err := s.cron.AddFunc(CheckTreeSpec, func() {
		_ = s.CheckTree(context.Background())
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// PruneEvents deletes events older than the retention period.
func (s *Scheduler) PruneEvents(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	n, err := s.events.DeleteOldEvents(ctx, s.retention)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned event log", "deleted", n, "retention", s.retention)
	}
	return n, nil
}

// CheckTree validates the stored page forest and logs a warning when the
// encoding is inconsistent, which the event log handler records.
func (s *Scheduler) CheckTree(ctx context.Context) error {
	err := s.pages.Verify(ctx)
	if err != nil {
		s.logger.Warn("page tree encoding is inconsistent", "category", model.EventCategoryTree, "error", err)
	}
	return err
}
