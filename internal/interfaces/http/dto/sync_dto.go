package dto

import "time"

// BeginImportRequest starts a new import run
type BeginImportRequest struct {
	// ForceRefresh bypasses the payload-hash short circuit for this run
	ForceRefresh bool `json:"force_refresh"`
}

// RunBatchRequest advances the active import run by one batch
type RunBatchRequest struct {
	// BatchSize overrides the configured batch size when positive
	BatchSize int `json:"batch_size" binding:"omitempty,min=1,max=1000"`
}

// StaleSweepRequest retires catalog entries not seen since the cutoff
type StaleSweepRequest struct {
	// Cutoff is an RFC3339 timestamp; entries last synced before it are
	// retired. Defaults to the current time when omitted.
	Cutoff *time.Time `json:"cutoff"`
}

// StaleSweepResponse reports the outcome of a stale sweep
type StaleSweepResponse struct {
	Deactivated int `json:"deactivated"`
}

// ImportStatusResponse describes the active import run, if any
type ImportStatusResponse struct {
	Active bool        `json:"active"`
	State  interface{} `json:"state,omitempty"`
}
