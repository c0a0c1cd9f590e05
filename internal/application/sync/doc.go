// Package sync implements the item synchronization engine: it pulls
// paginated rows from the upstream business-data API, reconciles them
// into the local catalog (create/update/skip per row), rebuilds the
// category tree from denormalized path strings, aggregates single
// products into multi-variant products, resolves related-item pointers
// and retires records no longer present upstream.
//
// The engine runs in externally driven batches. Callers obtain an
// ImportState from BeginAsyncImport, then repeatedly call
// RunAsyncImportBatch until the returned result reports completion,
// persisting the state between calls. The engine holds no in-process
// continuation: it is a function of (state, inputs) -> (state, outputs).
package sync
