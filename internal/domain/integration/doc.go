// Package integration contains the Integration bounded context.
// This context defines the port through which catalog rows are pulled
// from the upstream business-data API.
//
// Key concepts:
//   - RowSource: Port interface for the paginated stored-query endpoint
//   - RawRow: one untyped record as delivered by the source
//   - QueryRequest / QueryPage: the paging contract
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
