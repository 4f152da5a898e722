package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/seemyown/StockController/pkg/logger"
	"github.com/seemyown/StockController/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service executes registered cron jobs on a fixed cadence.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Interval reports the cadence the loop ticks at.
func (s *Service) Interval() time.Duration {
	return s.interval
}

// Run starts the cron loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.logg.Info(s.logg.WithField(ctx, "jobs", s.registry.Names()), "cron loop started")
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

// RunOnce executes a single locked cycle; the worker's -once flag uses it.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runCycle(ctx)
}

// RunJob executes one registered job by name under the cron lock.
func (s *Service) RunJob(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown job %q (registered: %s)", name, strings.Join(s.registry.Names(), ", "))
	}
	return s.withLock(ctx, func(ctx context.Context) error {
		return s.runJob(ctx, job)
	})
}

// runCycle runs every job even when one fails and returns the combined job errors.
func (s *Service) runCycle(ctx context.Context) error {
	return s.withLock(ctx, func(ctx context.Context) error {
		s.logg.Info(ctx, "scheduled run starting")
		var errs error
		for _, job := range s.registry.Jobs() {
			if err := s.runJob(ctx, job); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
			}
		}
		s.logg.Info(ctx, "scheduled run complete")
		return errs
	})
}

// withLock runs fn only when this instance holds the cron lock; a held lock skips fn.
func (s *Service) withLock(ctx context.Context, fn func(ctx context.Context) error) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()
	return fn(ctx)
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveRun(job.Name(), duration, err)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return err
	}
	s.logg.Info(jobCtx, "job completed")
	return nil
}
