package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrSyncAlreadyRunning is returned when a trigger arrives while a run is
// active. It signals rejection, not failure.
var ErrSyncAlreadyRunning = errors.New("a sync is already in progress")

// DefaultBatchSize bounds destination writes per flush.
const DefaultBatchSize = 1000

// Phase names as surfaced through the status endpoint.
const (
	PhaseCustomers    = "customers"
	PhaseStudents     = "students"
	PhaseLocations    = "locations"
	PhaseTransactions = "transactions"
	PhaseDiagnostics  = "diagnostics"
)

// PhaseResult carries the per-phase row counts for logging and events.
type PhaseResult struct {
	Phase    string
	Inserted int
	Updated  int
	Skipped  int
}

// EventEmitter publishes run lifecycle events. A nil emitter disables emission.
type EventEmitter interface {
	EmitSyncStarted(ctx context.Context, runID string) error
	EmitSyncCompleted(ctx context.Context, runID string, phases []kafka.PhaseCount, duration time.Duration) error
	EmitSyncFailed(ctx context.Context, runID string, failedPhase string, cause string) error
}

// Config holds orchestrator settings.
type Config struct {
	// BatchSize is the number of rows per destination write. Defaults to
	// DefaultBatchSize when unset.
	BatchSize int

	// DiagnosticsEnabled turns the optional diagnostics phase on. Off by
	// default: the current legacy view lacks the identifiers the phase needs.
	DiagnosticsEnabled bool
}

// Orchestrator runs the fixed sync pipeline exactly once per invocation,
// enforcing single-flight execution through the shared Status.
type Orchestrator struct {
	source       SourceStore
	customers    CustomerStore
	students     StudentStore
	locations    LocationStore
	transactions TransactionStore
	diagnostics  DiagnosticStore
	status       *Status
	emitter      EventEmitter
	logger       ectologger.Logger
	config       Config
}

// NewOrchestrator creates the pipeline driver. emitter may be nil.
func NewOrchestrator(
	source SourceStore,
	customers CustomerStore,
	students StudentStore,
	locations LocationStore,
	transactions TransactionStore,
	diagnostics DiagnosticStore,
	status *Status,
	emitter EventEmitter,
	config Config,
	logger ectologger.Logger,
) *Orchestrator {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	return &Orchestrator{
		source:       source,
		customers:    customers,
		students:     students,
		locations:    locations,
		transactions: transactions,
		diagnostics:  diagnostics,
		status:       status,
		emitter:      emitter,
		logger:       logger,
		config:       config,
	}
}

// Status exposes the shared run descriptor for the status endpoint.
func (o *Orchestrator) Status() *Status {
	return o.status
}

type phase struct {
	name    string
	percent int
	message string
	run     func(ctx context.Context) (PhaseResult, error)
}

func (o *Orchestrator) phases() []phase {
	phases := []phase{
		{PhaseCustomers, 10, "Syncing customers...", o.syncCustomers},
		{PhaseStudents, 25, "Syncing students...", o.syncStudents},
		{PhaseLocations, 45, "Syncing locations and rooms...", o.syncLocations},
		{PhaseTransactions, 65, "Syncing transactions...", o.syncTransactions},
	}

	if o.config.DiagnosticsEnabled {
		phases = append(phases, phase{PhaseDiagnostics, 85, "Syncing diagnostics...", o.syncDiagnostics})
	}

	return phases
}

// Run executes the pipeline synchronously. It returns ErrSyncAlreadyRunning
// without side effects when a run is active.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.status.Begin() {
		metrics.SyncRejectionsTotal.Inc()
		return ErrSyncAlreadyRunning
	}

	return o.run(ctx)
}

// StartAsync claims the run and executes the pipeline on a detached goroutine,
// so HTTP triggers can return immediately. The status object is the only
// channel for observing the run afterwards.
func (o *Orchestrator) StartAsync() error {
	if !o.status.Begin() {
		metrics.SyncRejectionsTotal.Inc()
		return ErrSyncAlreadyRunning
	}

	go func() {
		// The run must outlive the triggering request, so it gets its own
		// context. Cancellation is deliberately unsupported.
		_ = o.run(context.Background())
	}()

	return nil
}

// run assumes the caller already claimed the run via Status.Begin.
func (o *Orchestrator) run(ctx context.Context) error {
	runID := uuid.New().String()
	ctx = appctx.SetSyncRunID(ctx, runID)

	ctx, span := tracing.StartSpan(ctx, "syncer.Orchestrator.run")
	defer span.End()

	start := time.Now()
	o.logger.WithContext(ctx).WithField("run_id", runID).Info("Starting legacy data sync")

	if o.emitter != nil {
		_ = o.emitter.EmitSyncStarted(ctx, runID)
	}

	var results []PhaseResult
	for _, p := range o.phases() {
		o.status.UpdateProgress(p.name, p.percent, p.message)

		result, err := p.run(ctx)
		if err != nil {
			o.status.Complete(false, err.Error())
			metrics.SyncRunsTotal.WithLabelValues("failed").Inc()
			o.logger.WithContext(ctx).WithError(err).Errorf("Sync run failed during %s phase", p.name)
			if o.emitter != nil {
				_ = o.emitter.EmitSyncFailed(ctx, runID, p.name, err.Error())
			}
			return err
		}

		o.recordPhase(ctx, result)
		results = append(results, result)
	}

	o.status.Complete(true, "")

	duration := time.Since(start)
	metrics.SyncRunsTotal.WithLabelValues("completed").Inc()
	metrics.SyncRunDuration.Observe(duration.Seconds())
	o.logger.WithContext(ctx).Infof("Sync completed in %.2f seconds", duration.Seconds())

	if o.emitter != nil {
		_ = o.emitter.EmitSyncCompleted(ctx, runID, phaseCounts(results), duration)
	}

	return nil
}

func (o *Orchestrator) recordPhase(ctx context.Context, result PhaseResult) {
	metrics.SyncRowsTotal.WithLabelValues(result.Phase, metrics.OutcomeInserted).Add(float64(result.Inserted))
	metrics.SyncRowsTotal.WithLabelValues(result.Phase, metrics.OutcomeUpdated).Add(float64(result.Updated))
	metrics.SyncRowsTotal.WithLabelValues(result.Phase, metrics.OutcomeSkipped).Add(float64(result.Skipped))

	o.logger.WithContext(ctx).WithFields(map[string]any{
		"phase":    result.Phase,
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
	}).Infof("Completed %s phase", result.Phase)
}

func phaseCounts(results []PhaseResult) []kafka.PhaseCount {
	counts := make([]kafka.PhaseCount, 0, len(results))
	for _, r := range results {
		counts = append(counts, kafka.PhaseCount{
			Phase:    r.Phase,
			Inserted: r.Inserted,
			Updated:  r.Updated,
			Skipped:  r.Skipped,
		})
	}
	return counts
}

// chunk splits items into slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}

	var batches [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// writeInBatches flushes items in fixed-size batches, counting a batch write
// metric per flush. Rows committed before an error stay committed.
func writeInBatches[T any](ctx context.Context, entity string, items []T, size int, write func(context.Context, []T) error) error {
	for _, batch := range chunk(items, size) {
		if err := write(ctx, batch); err != nil {
			return err
		}
		metrics.SyncBatchWritesTotal.WithLabelValues(entity).Inc()
	}
	return nil
}
