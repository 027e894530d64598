// Package events handles event emission for sync run lifecycle changes
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Emitter publishes sync run lifecycle events for downstream consumers (the
// analytics refresh jobs subscribe to these).
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitSyncStarted emits a sync.started event
func (e *Emitter) EmitSyncStarted(ctx context.Context, runID string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSyncStarted")
	defer span.End()

	event := &kafka.SyncEvent{
		EventType: "sync.started",
		RunID:     runID,
	}

	if err := e.producer.PublishSyncEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit sync.started event")
		return err
	}

	return nil
}

// EmitSyncCompleted emits a sync.completed event with per-phase row counts
func (e *Emitter) EmitSyncCompleted(ctx context.Context, runID string, phases []kafka.PhaseCount, duration time.Duration) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSyncCompleted")
	defer span.End()

	event := &kafka.SyncEvent{
		EventType:       "sync.completed",
		RunID:           runID,
		Phases:          phases,
		DurationSeconds: duration.Seconds(),
	}

	if err := e.producer.PublishSyncEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit sync.completed event")
		return err
	}

	return nil
}

// EmitSyncFailed emits a sync.failed event naming the phase that aborted the run
func (e *Emitter) EmitSyncFailed(ctx context.Context, runID string, failedPhase string, cause string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSyncFailed")
	defer span.End()

	event := &kafka.SyncEvent{
		EventType:   "sync.failed",
		RunID:       runID,
		FailedPhase: failedPhase,
		Error:       cause,
	}

	if err := e.producer.PublishSyncEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit sync.failed event")
		return err
	}

	return nil
}
