package sync

import (
	"time"

	"github.com/google/uuid"
)

// MaxStoredPageHashes bounds the page-hash window kept in ImportState.
// Oldest hashes are evicted first; the window is cleared on completion.
const MaxStoredPageHashes = 10

// Stats holds the cumulative counters of one import run
type Stats struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// ImportState is the caller-owned, serializable state of one import run.
// The engine never retains it between batches; callers persist it and
// supply it to the next RunAsyncImportBatch call.
type ImportState struct {
	RunID        uuid.UUID `json:"run_id"`
	RunTimestamp time.Time `json:"run_timestamp"`
	// Page is the 1-based page the next fetch will request
	Page int `json:"page"`
	// RowOffset counts rows of the current page already consumed; a
	// partially consumed page is refetched on resume and RowOffset rows
	// are skipped
	RowOffset  int      `json:"row_offset"`
	Stats      Stats    `json:"stats"`
	PageHashes []string `json:"page_hashes"`
	Warnings   []string `json:"warnings"`
	Started    bool     `json:"started"`
	Complete   bool     `json:"complete"`
}

// Clone returns a deep copy of the state. Batches mutate a clone so a
// failed batch leaves the caller's state untouched and retryable.
func (s *ImportState) Clone() *ImportState {
	c := *s
	c.PageHashes = append([]string(nil), s.PageHashes...)
	c.Warnings = append([]string(nil), s.Warnings...)
	return &c
}

// AddWarning records a warning on the state
func (s *ImportState) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// RememberPageHash appends a page hash, evicting the oldest entry once
// the bounded window is full
func (s *ImportState) RememberPageHash(hash string) {
	s.PageHashes = append(s.PageHashes, hash)
	if len(s.PageHashes) > MaxStoredPageHashes {
		s.PageHashes = s.PageHashes[len(s.PageHashes)-MaxStoredPageHashes:]
	}
}

// LastPageHash returns the hash of the most recently fetched page
func (s *ImportState) LastPageHash() string {
	if len(s.PageHashes) == 0 {
		return ""
	}
	return s.PageHashes[len(s.PageHashes)-1]
}

// HasPageHash reports whether the hash is present in the bounded window
func (s *ImportState) HasPageHash(hash string) bool {
	for _, h := range s.PageHashes {
		if h == hash {
			return true
		}
	}
	return false
}

// BatchStats describes the work performed by a single batch call
type BatchStats struct {
	Processed int `json:"processed"`
}

// BatchResult is the public contract returned by RunAsyncImportBatch
type BatchResult struct {
	State    *ImportState `json:"state"`
	Batch    BatchStats   `json:"batch"`
	Complete bool         `json:"complete"`
	Stats    Stats        `json:"stats"`
	Warnings []string     `json:"warnings"`
	// StaleDeactivated is the number of catalog entries retired at the
	// run boundary; zero until the completing batch
	StaleDeactivated int `json:"stale_deactivated"`
}
