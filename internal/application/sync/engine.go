package sync

import (
	"sync"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// Default engine tuning values
const (
	DefaultPageSize       = 250
	DefaultStaleBatchSize = 50
	DefaultBatchSize      = 25
)

// Config holds the engine's run parameters
type Config struct {
	// Query is the stored-query name executed on the row source
	Query string
	// QueryParams are passed through to the stored query
	QueryParams map[string]string
	// PageSize is the number of rows requested per source page
	PageSize int
	// ForceRefresh bypasses the payload-hash short-circuit so every
	// matched row is fully reprocessed. It never alters hash computation.
	ForceRefresh bool
	// StaleBatchSize bounds each batch of the stale-item walk
	StaleBatchSize int
}

// Normalize fills unset tuning values with defaults
func (c Config) Normalize() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.StaleBatchSize <= 0 {
		c.StaleBatchSize = DefaultStaleBatchSize
	}
	return c
}

// Engine is the item synchronization engine. The run entry points
// (BeginAsyncImport, RunAsyncImportBatch, HandleStaleItems,
// SetForceRefresh) serialize on an internal mutex, so independent
// drivers such as the HTTP handler and the background scheduler can
// share one engine. Callers still coordinate run lifecycles: the
// pending variation queues are run-scoped and reset on begin.
type Engine struct {
	source   integration.RowSource
	products catalog.ProductRepository
	terms    catalog.TermRepository
	meta     catalog.ProductMetaRepository
	cache    catalog.ProductCache
	media    catalog.MediaRelinker
	builder  *CategoryBuilder
	logger   *zap.Logger
	cfg      Config

	// runMu guards the run-scoped queues, the category builder cache
	// and cfg against concurrent drivers.
	runMu              sync.Mutex
	pendingVariations  []PendingVariationEntry
	pendingColourSyncs []PendingColourSyncEntry
}

// NewEngine creates the synchronization engine
func NewEngine(
	source integration.RowSource,
	products catalog.ProductRepository,
	terms catalog.TermRepository,
	meta catalog.ProductMetaRepository,
	cache catalog.ProductCache,
	media catalog.MediaRelinker,
	logger *zap.Logger,
	cfg Config,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		source:   source,
		products: products,
		terms:    terms,
		meta:     meta,
		cache:    cache,
		media:    media,
		builder:  NewCategoryBuilder(terms, logger),
		logger:   logger,
		cfg:      cfg.Normalize(),
	}
}

// SetForceRefresh toggles the hash-bypass flag for subsequent batches
func (e *Engine) SetForceRefresh(force bool) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	e.cfg.ForceRefresh = force
}
