// Package scheduler provides background triggers for catalog import runs.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	catalogsync "github.com/catalogbridge/backend/internal/application/sync"
)

// Errors for the import scheduler
var (
	ErrSchedulerNotRunning = errors.New("scheduler: not running")
	ErrImportInProgress    = errors.New("scheduler: an import run is already in progress")
)

// ---------------------------------------------------------------------------
// Import Run Record
// ---------------------------------------------------------------------------

// ImportRunStatus represents the status of one scheduled import run
type ImportRunStatus string

const (
	ImportRunStatusRunning ImportRunStatus = "RUNNING"
	ImportRunStatusSuccess ImportRunStatus = "SUCCESS"
	ImportRunStatusFailed  ImportRunStatus = "FAILED"
)

// ImportRun records the lifecycle and outcome of one full import
type ImportRun struct {
	RunID       string
	Status      ImportRunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Stats       catalogsync.Stats
	Batches     int
	Warnings    []string
}

// ---------------------------------------------------------------------------
// ImportScheduler
// ---------------------------------------------------------------------------

// ImportSchedulerConfig holds configuration for the import scheduler
type ImportSchedulerConfig struct {
	// Interval is the delay between full import runs
	Interval time.Duration
	// BatchSize is the number of rows processed per engine batch
	BatchSize int
	// RunTimeout is the maximum time a full import run can take
	RunTimeout time.Duration
}

// DefaultImportSchedulerConfig returns default configuration
func DefaultImportSchedulerConfig() ImportSchedulerConfig {
	return ImportSchedulerConfig{
		Interval:   time.Hour,
		BatchSize:  catalogsync.DefaultBatchSize,
		RunTimeout: 30 * time.Minute,
	}
}

// ImportScheduler periodically drives a full import run against the
// engine: it begins a run and processes batches until the source is
// exhausted. Only one run executes at a time; a tick that arrives while
// a run is still in progress is skipped.
type ImportScheduler struct {
	config ImportSchedulerConfig
	engine *catalogsync.Engine
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  bool

	// Run history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*ImportRun
	maxHistory int
}

// NewImportScheduler creates a new import scheduler
func NewImportScheduler(config ImportSchedulerConfig, engine *catalogsync.Engine, logger *zap.Logger) *ImportScheduler {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = catalogsync.DefaultBatchSize
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportScheduler{
		config:     config,
		engine:     engine,
		logger:     logger,
		history:    make([]*ImportRun, 0, 20),
		maxHistory: 20,
	}
}

// Start starts the scheduler
func (s *ImportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Import scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *ImportScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Import scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Import scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow starts an import run immediately, outside the ticker.
// Returns ErrImportInProgress when a run is already executing.
func (s *ImportScheduler) TriggerNow(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrImportInProgress
	}
	s.inFlight = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeRun(ctx)
	}()
	return nil
}

// RunHistory returns recent import runs, newest first
func (s *ImportScheduler) RunHistory(limit int) []*ImportRun {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*ImportRun, limit)
	copy(result, s.history[:limit])
	return result
}

// runLoop fires a full import on each tick
func (s *ImportScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.inFlight {
				s.mu.Unlock()
				s.logger.Warn("Skipping scheduled import, previous run still in progress")
				continue
			}
			s.inFlight = true
			s.mu.Unlock()
			s.executeRun(ctx)
		}
	}
}

// executeRun drives one full import from begin to source exhaustion
func (s *ImportScheduler) executeRun(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	state := s.engine.BeginAsyncImport()
	runID := state.RunID.String()
	run := &ImportRun{
		RunID:     runID,
		Status:    ImportRunStatusRunning,
		StartedAt: time.Now(),
	}
	s.addToHistory(run)

	s.logger.Info("Starting scheduled import run", zap.String("run_id", runID))

	for {
		result, err := s.engine.RunAsyncImportBatch(runCtx, state, s.config.BatchSize)
		if err != nil {
			now := time.Now()
			run.Status = ImportRunStatusFailed
			run.CompletedAt = &now
			run.Error = err.Error()
			s.logger.Error("Scheduled import run failed",
				zap.String("run_id", runID),
				zap.Int("batches", run.Batches),
				zap.Error(err),
			)
			return
		}

		run.Batches++
		run.Stats = result.State.Stats
		// result.Warnings carries the whole run so far; replace, don't
		// accumulate, or early warnings repeat once per batch.
		run.Warnings = append([]string(nil), result.Warnings...)

		if result.Complete {
			now := time.Now()
			run.Status = ImportRunStatusSuccess
			run.CompletedAt = &now
			s.logger.Info("Scheduled import run completed",
				zap.String("run_id", runID),
				zap.Int("batches", run.Batches),
				zap.Int("processed", result.State.Stats.Processed),
				zap.Int("created", result.State.Stats.Created),
				zap.Int("updated", result.State.Stats.Updated),
				zap.Int("skipped", result.State.Stats.Skipped),
				zap.Int("errors", result.State.Stats.Errors),
				zap.Int("stale_deactivated", result.StaleDeactivated),
			)
			return
		}

		select {
		case <-runCtx.Done():
			now := time.Now()
			run.Status = ImportRunStatusFailed
			run.CompletedAt = &now
			run.Error = runCtx.Err().Error()
			s.logger.Warn("Scheduled import run cancelled",
				zap.String("run_id", runID),
				zap.Int("batches", run.Batches),
			)
			return
		default:
		}
	}
}

// addToHistory adds a run to history, newest first
func (s *ImportScheduler) addToHistory(run *ImportRun) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*ImportRun{run}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}
