package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BeginAsyncImport initializes a fresh run. It runs no rows itself: the
// caller drives the run through RunAsyncImportBatch and persists the
// returned state between calls. Run-scoped caches and queues are reset
// here so no state leaks in from a previous run.
func (e *Engine) BeginAsyncImport() *ImportState {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.builder.Reset()
	e.pendingVariations = nil
	e.pendingColourSyncs = nil

	state := &ImportState{
		RunID:        uuid.New(),
		RunTimestamp: time.Now(),
		Page:         1,
		Started:      true,
	}
	e.logger.Info("import run started",
		zap.String("run_id", state.RunID.String()),
		zap.Time("run_timestamp", state.RunTimestamp))
	return state
}

// RunAsyncImportBatch consumes up to batchSize rows from where the
// sequence left off, reconciling each against the catalog. Completion is
// decided by source exhaustion only, never by batchSize. The supplied
// state is updated in place on success; on a source communication error
// it is left untouched so the same batch can be retried.
func (e *Engine) RunAsyncImportBatch(ctx context.Context, state *ImportState, batchSize int) (*BatchResult, error) {
	if state == nil || !state.Started {
		return nil, fmt.Errorf("import run not started")
	}
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if state.Complete {
		return &BatchResult{
			State:    state,
			Complete: true,
			Stats:    state.Stats,
			Warnings: state.Warnings,
		}, nil
	}

	work := state.Clone()
	stream := newRowStream(e.source, e.cfg.Query, e.cfg.QueryParams, e.cfg.PageSize, work, e.logger)

	processed := 0
	for processed < batchSize {
		raw, ok, err := stream.Next(ctx)
		if err != nil {
			// state is untouched; the caller retries the same batch
			return nil, err
		}
		if !ok {
			work.Complete = true
			break
		}
		processed++
		work.Stats.Processed++

		row, err := NormalizeRow(raw)
		if err != nil {
			work.Stats.Errors++
			work.AddWarning(err.Error())
			e.logger.Warn("malformed row skipped", zap.Error(err))
			continue
		}

		outcome, err := e.ImportRow(ctx, &row, work.RunTimestamp)
		if err != nil {
			work.Stats.Errors++
			work.AddWarning(fmt.Sprintf("row %s: %s", row.Identity(), err.Error()))
			e.logger.Warn("row import failed",
				zap.String("identity", row.Identity()),
				zap.Error(err))
			continue
		}
		switch outcome {
		case OutcomeCreated:
			work.Stats.Created++
		case OutcomeUpdated:
			work.Stats.Updated++
		case OutcomeSkipped:
			work.Stats.Skipped++
		}
	}

	// Queued aggregation work is drained once per batch, never per row.
	e.ProcessPendingSingleProductVariations(ctx, work.RunTimestamp)
	e.ProcessPendingColourVariationSyncs(ctx, work.RunTimestamp)

	result := &BatchResult{
		Batch:    BatchStats{Processed: processed},
		Complete: work.Complete,
	}

	if work.Complete {
		// Completing a run never leaves page hashes behind.
		work.PageHashes = nil

		// The stale sweep observes the full run's last-sync stamps, so
		// it runs only at the run boundary, never interleaved.
		deactivated, err := e.handleStaleItems(ctx, work.RunTimestamp)
		if err != nil {
			work.AddWarning(fmt.Sprintf("stale sweep incomplete: %s", err.Error()))
			e.logger.Error("stale sweep failed", zap.Error(err))
		}
		result.StaleDeactivated = deactivated

		e.logger.Info("import run complete",
			zap.String("run_id", work.RunID.String()),
			zap.Int("processed", work.Stats.Processed),
			zap.Int("created", work.Stats.Created),
			zap.Int("updated", work.Stats.Updated),
			zap.Int("skipped", work.Stats.Skipped),
			zap.Int("errors", work.Stats.Errors),
			zap.Int("stale_deactivated", deactivated))
	}

	*state = *work
	result.State = state
	result.Stats = state.Stats
	result.Warnings = state.Warnings
	return result, nil
}
