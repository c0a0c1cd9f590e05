package erpapi

import (
	"context"

	"github.com/catalogbridge/backend/internal/domain/integration"
)

// UnconfiguredSource is used when no upstream API is configured. Every
// fetch fails with ErrSourceNotConfigured so import runs surface a
// clear error instead of a connection failure.
type UnconfiguredSource struct{}

// Unconfigured returns a row source that always reports missing configuration
func Unconfigured() *UnconfiguredSource {
	return &UnconfiguredSource{}
}

// FetchPage always fails with ErrSourceNotConfigured
func (*UnconfiguredSource) FetchPage(_ context.Context, _ integration.QueryRequest) (*integration.QueryPage, error) {
	return nil, integration.ErrSourceNotConfigured
}

var _ integration.RowSource = (*UnconfiguredSource)(nil)
