// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package services

import (
	"context"
	"fmt"
)

// Scheduler is a component with a non-blocking Start/Stop lifecycle.
//
// Satisfied by *cache.Janitor.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService adapts a Scheduler to suture's Serve pattern:
//  1. Start(ctx)
//  2. wait for cancellation
//  3. Stop()
//
// A failing Start is returned so that suture restarts the service with
// backoff.
type SchedulerService struct {
	scheduler Scheduler
	name      string
}

// NewSchedulerService wraps scheduler.
//
//	janitor, err := cache.NewJanitor(store, cfg.Cache.SweepSchedule)
//	tree.AddMaintenanceService(services.NewSchedulerService("cache-janitor", janitor))
func NewSchedulerService(name string, scheduler Scheduler) *SchedulerService {
	return &SchedulerService{
		scheduler: scheduler,
		name:      name,
	}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *SchedulerService) String() string {
	return s.name
}
