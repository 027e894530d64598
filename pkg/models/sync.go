package models

import "time"

// SyncStatusSnapshot is a consistent copy of the run descriptor, shaped for
// the polling UI. Field names follow the status endpoint contract.
type SyncStatusSnapshot struct {
	IsRunning          bool       `json:"isRunning"`
	LastSyncDate       *time.Time `json:"lastSyncDate"`
	CurrentSyncStarted *time.Time `json:"currentSyncStarted"`
	CurrentStep        string     `json:"currentStep"`
	Progress           int        `json:"progress"`
	Message            string     `json:"message"`
	HasError           bool       `json:"hasError"`
	ErrorMessage       *string    `json:"errorMessage"`
}

// SyncTriggerResponse is the body returned by the trigger endpoint.
type SyncTriggerResponse struct {
	Message string `json:"message"`
}
