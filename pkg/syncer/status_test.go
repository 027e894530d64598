package syncer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusBeginClaimsIdleRun(t *testing.T) {
	status := NewStatus()

	require.True(t, status.Begin())

	snapshot := status.Snapshot()
	assert.True(t, snapshot.IsRunning)
	assert.NotNil(t, snapshot.CurrentSyncStarted)
	assert.Equal(t, 0, snapshot.Progress)
	assert.Equal(t, "Starting sync...", snapshot.Message)
	assert.False(t, snapshot.HasError)
	assert.Nil(t, snapshot.ErrorMessage)
}

func TestStatusBeginRejectsActiveRun(t *testing.T) {
	status := NewStatus()

	require.True(t, status.Begin())
	assert.False(t, status.Begin())
}

func TestStatusBeginIsSingleFlightUnderContention(t *testing.T) {
	status := NewStatus()

	const attempts = 50
	var wg sync.WaitGroup
	claims := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claims <- status.Begin()
		}()
	}
	wg.Wait()
	close(claims)

	won := 0
	for claimed := range claims {
		if claimed {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestStatusBeginClearsPreviousError(t *testing.T) {
	status := NewStatus()

	require.True(t, status.Begin())
	status.Complete(false, "boom")

	require.True(t, status.Begin())

	snapshot := status.Snapshot()
	assert.False(t, snapshot.HasError)
	assert.Nil(t, snapshot.ErrorMessage)
}

func TestStatusCompleteSuccess(t *testing.T) {
	status := NewStatus()

	require.True(t, status.Begin())
	status.UpdateProgress(PhaseTransactions, 65, "Syncing transactions...")
	status.Complete(true, "")

	snapshot := status.Snapshot()
	assert.False(t, snapshot.IsRunning)
	assert.Nil(t, snapshot.CurrentSyncStarted)
	assert.Equal(t, 100, snapshot.Progress)
	assert.Equal(t, "Sync completed successfully", snapshot.Message)
	assert.NotNil(t, snapshot.LastSyncDate)
	assert.False(t, snapshot.HasError)

	// The run can be claimed again once finished.
	assert.True(t, status.Begin())
}

func TestStatusCompleteFailurePreservesProgress(t *testing.T) {
	status := NewStatus()

	require.True(t, status.Begin())
	status.UpdateProgress(PhaseStudents, 25, "Syncing students...")
	status.Complete(false, "students exploded")

	snapshot := status.Snapshot()
	assert.False(t, snapshot.IsRunning)
	assert.Nil(t, snapshot.CurrentSyncStarted)
	assert.Equal(t, 25, snapshot.Progress)
	assert.Equal(t, "Sync failed", snapshot.Message)
	assert.True(t, snapshot.HasError)
	require.NotNil(t, snapshot.ErrorMessage)
	assert.Equal(t, "students exploded", *snapshot.ErrorMessage)
	assert.Nil(t, snapshot.LastSyncDate)
}

func TestStatusSnapshotCopiesPointers(t *testing.T) {
	status := NewStatus()

	require.True(t, status.Begin())
	status.Complete(true, "")

	first := status.Snapshot()
	second := status.Snapshot()

	require.NotNil(t, first.LastSyncDate)
	require.NotNil(t, second.LastSyncDate)
	assert.NotSame(t, first.LastSyncDate, second.LastSyncDate)
	assert.Equal(t, *first.LastSyncDate, *second.LastSyncDate)
}
