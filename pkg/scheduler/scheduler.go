// Package scheduler triggers the sync pipeline once a day at a fixed local time.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/syncer"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrSchedulerAlreadyRunning is returned when trying to start an already running scheduler
var ErrSchedulerAlreadyRunning = errors.New("scheduler already running")

// DefaultRunHour is the local hour of day the daily sync fires at.
const DefaultRunHour = 2

// Config holds configuration for the scheduler
type Config struct {
	// RunHour is the local hour (0-23) of the daily trigger
	RunHour int

	// Interval between runs. Defaults to 24h; shorter values are for tests.
	Interval time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		RunHour:  DefaultRunHour,
		Interval: 24 * time.Hour,
	}
}

// Scheduler fires the sync orchestrator on a daily timer. Every tick
// unconditionally attempts a run; the orchestrator's single-flight check
// rejects the tick when a run is still active.
type Scheduler struct {
	orchestrator *syncer.Orchestrator
	config       Config
	logger       ectologger.Logger

	// Coordination
	stopCh   chan struct{}
	stoppedC chan struct{}
	running  bool
	mu       sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler(orchestrator *syncer.Orchestrator, config Config, logger ectologger.Logger) *Scheduler {
	// Apply defaults
	if config.RunHour < 0 || config.RunHour > 23 {
		config.RunHour = DefaultRunHour
	}
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}

	return &Scheduler{
		orchestrator: orchestrator,
		config:       config,
		logger:       logger,
		stopCh:       make(chan struct{}),
		stoppedC:     make(chan struct{}),
	}
}

// NextRunAfter returns the next scheduled trigger time strictly after now.
func (s *Scheduler) NextRunAfter(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.RunHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	next := s.NextRunAfter(time.Now())
	s.logger.WithContext(ctx).Infof("Starting sync scheduler: next run at %s", next.Format("2006-01-02 15:04:05"))

	go s.loop(ctx, time.Until(next))

	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.WithContext(ctx).Info("Stopping sync scheduler...")

	close(s.stopCh)

	select {
	case <-s.stoppedC:
		s.logger.WithContext(ctx).Info("Sync scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WithContext(ctx).Warn("Sync scheduler shutdown timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// loop waits for the first trigger time, then repeats at the configured interval.
func (s *Scheduler) loop(ctx context.Context, initialDelay time.Duration) {
	defer close(s.stoppedC)

	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	select {
	case <-s.stopCh:
		return
	case <-timer.C:
		s.trigger(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			s.logger.WithContext(ctx).Debug("Sync scheduler loop stopping")
			return
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

// trigger attempts a scheduled sync run
func (s *Scheduler) trigger(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "scheduler.Scheduler.trigger")
	defer span.End()

	s.logger.WithContext(ctx).Info("Running scheduled sync")

	err := s.orchestrator.Run(ctx)
	if errors.Is(err, syncer.ErrSyncAlreadyRunning) {
		s.logger.WithContext(ctx).Warn("Scheduled sync skipped: a run is already in progress")
		return
	}
	if err != nil {
		// Already recorded in the sync status; no automatic retry.
		s.logger.WithContext(ctx).WithError(err).Error("Scheduled sync failed")
		return
	}

	s.logger.WithContext(ctx).Info("Scheduled sync completed")
}
