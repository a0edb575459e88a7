// Package status describes the state of the most recent synchronization run.
package status

import "time"

// SyncPhase represents the current phase of a synchronization run
type SyncPhase string

const (
	// SyncPhaseIdle means no run has happened yet
	SyncPhaseIdle SyncPhase = "Idle"

	// SyncPhaseSyncing means a run is in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last run wrote a new list
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseSkipped means the last run found nothing worth writing
	SyncPhaseSkipped SyncPhase = "Skipped"

	// SyncPhaseCancelled means the last run was cancelled before writing
	SyncPhaseCancelled SyncPhase = "Cancelled"

	// SyncPhaseFailed means the last run failed and left the list untouched
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus is a snapshot of the orchestrator's progress
type SyncStatus struct {
	// Phase is the current or last phase
	Phase SyncPhase `json:"phase"`

	// Message explains the phase, e.g. the failure cause
	Message string `json:"message,omitempty"`

	// RunID identifies the current or last run
	RunID string `json:"runId,omitempty"`

	// Mode is the merge mode used by the last run
	Mode string `json:"mode,omitempty"`

	// LastAttempt is when the last run started
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of runs since the last one that wrote a list
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is when a list was last written
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// ManualCount and APICount describe the last written list
	ManualCount int `json:"manualCount,omitempty"`
	APICount    int `json:"apiCount,omitempty"`
}

// Terminal reports whether the phase ends a run
func (p SyncPhase) Terminal() bool {
	switch p {
	case SyncPhaseComplete, SyncPhaseSkipped, SyncPhaseCancelled, SyncPhaseFailed:
		return true
	default:
		return false
	}
}
