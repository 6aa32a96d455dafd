// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic purge of unverified accounts.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/accounts-go/internal/service"
)

// Scheduler periodically removes accounts that registered but never
// verified. It is off unless a cron schedule is configured.
type Scheduler struct {
	accounts *service.AccountService
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger
}

// New creates a new scheduler instance. schedule is a standard 5-field
// cron expression; an empty schedule produces a scheduler whose Start
// is a no-op.
func New(accounts *service.AccountService, schedule string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		accounts: accounts,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the purge job and begins the cron loop.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("purge scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.purgeUnverified(); err != nil {
			s.logger.Error("scheduled purge failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("purge scheduler started", "schedule", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("purge scheduler stopped")
}

func (s *Scheduler) purgeUnverified() error {
	deleted, err := s.accounts.PurgeUnverified(context.Background())
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("scheduled purge removed unverified accounts", "count", deleted)
	}
	return nil
}
