// Package syncer implements the legacy-to-financial data synchronization
// engine: a mutex-guarded run descriptor shared by every observer, and an
// orchestrator that drives the fixed phase pipeline against the two stores.
package syncer

import (
	"sync"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Status is the process-wide descriptor of the most recent or ongoing sync
// run. One instance exists for the process lifetime; every field access
// happens under the mutex, and the mutex is never held across I/O.
type Status struct {
	mu sync.Mutex

	isRunning          bool
	lastSyncDate       *time.Time
	currentSyncStarted *time.Time
	currentStep        string
	progress           int
	message            string
	hasError           bool
	errorMessage       *string
}

// NewStatus creates the run descriptor in its idle state.
func NewStatus() *Status {
	return &Status{}
}

// Begin atomically claims the run. It returns false when a run is already
// active, which is the single-flight rejection signal, and true after moving
// the descriptor into its running state.
func (s *Status) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return false
	}

	now := time.Now()
	s.isRunning = true
	s.currentSyncStarted = &now
	s.currentStep = ""
	s.progress = 0
	s.message = "Starting sync..."
	s.hasError = false
	s.errorMessage = nil
	return true
}

// UpdateProgress overwrites the current step, percent, and message. Callers
// pass non-decreasing percents across phases so observers see forward progress.
func (s *Status) UpdateProgress(step string, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentStep = step
	s.progress = progress
	s.message = message
}

// Complete moves the descriptor to its terminal state. On success the progress
// snaps to 100 and the completion time is recorded; on failure the last
// progress value is preserved and the error message surfaced.
func (s *Status) Complete(success bool, errorMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isRunning = false
	s.currentSyncStarted = nil

	if success {
		now := time.Now()
		s.progress = 100
		s.lastSyncDate = &now
		s.message = "Sync completed successfully"
		s.hasError = false
		s.errorMessage = nil
		return
	}

	s.message = "Sync failed"
	s.hasError = true
	s.errorMessage = &errorMessage
}

// Snapshot returns a consistent read-only copy of every field.
func (s *Status) Snapshot() models.SyncStatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := models.SyncStatusSnapshot{
		IsRunning:   s.isRunning,
		CurrentStep: s.currentStep,
		Progress:    s.progress,
		Message:     s.message,
		HasError:    s.hasError,
	}

	if s.lastSyncDate != nil {
		t := *s.lastSyncDate
		snapshot.LastSyncDate = &t
	}
	if s.currentSyncStarted != nil {
		t := *s.currentSyncStarted
		snapshot.CurrentSyncStarted = &t
	}
	if s.errorMessage != nil {
		msg := *s.errorMessage
		snapshot.ErrorMessage = &msg
	}

	return snapshot
}
