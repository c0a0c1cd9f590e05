package integration

import (
	"context"
	"errors"
)

// ---------------------------------------------------------------------------
// RowSource Errors
// ---------------------------------------------------------------------------

var (
	ErrSourceNotConfigured   = errors.New("integration: row source not configured")
	ErrSourceUnavailable     = errors.New("integration: row source temporarily unavailable")
	ErrSourceRequestFailed   = errors.New("integration: row source request failed")
	ErrSourceInvalidResponse = errors.New("integration: invalid row source response")
	ErrSourceAuthFailed      = errors.New("integration: row source authentication failed")
)

// ---------------------------------------------------------------------------
// RowSource Contract
// ---------------------------------------------------------------------------

// RawRow is one record exactly as delivered by the source: a mapping of
// upstream field name to scalar or array value. Raw rows never travel
// past the normalization boundary of the import engine.
type RawRow map[string]any

// QueryRequest identifies one page of a stored query on the source
type QueryRequest struct {
	// Query is the stored-query name registered on the source system
	Query string
	// Params are the stored-query parameters
	Params map[string]string
	// Page is the 1-based page number
	Page int
	// PageSize is the number of rows per page
	PageSize int
}

// QueryPage is one page of results from the source
type QueryPage struct {
	Rows []RawRow
	// Total is the total row count when the source reports one; -1 otherwise
	Total int
}

// IsEmpty returns true when the page carries no rows
func (p *QueryPage) IsEmpty() bool {
	return len(p.Rows) == 0
}

// RowSource is the port for the upstream paginated business-data API.
// Implementations surface communication failures as errors wrapping the
// sentinel errors above; an exhausted query returns an empty page.
type RowSource interface {
	// FetchPage executes one page of a stored query
	FetchPage(ctx context.Context, req QueryRequest) (*QueryPage, error)
}
