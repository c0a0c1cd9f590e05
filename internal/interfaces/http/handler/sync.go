package handler

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogsync "github.com/catalogbridge/backend/internal/application/sync"
	"github.com/catalogbridge/backend/internal/interfaces/http/dto"
)

// SyncHandler exposes the item import engine over HTTP. It owns the
// state of the active run; clients advance the run batch by batch and
// can resume after a failed batch by calling the batch endpoint again.
type SyncHandler struct {
	BaseHandler
	engine    *catalogsync.Engine
	batchSize int
	logger    *zap.Logger

	mu    sync.Mutex
	state *catalogsync.ImportState
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(engine *catalogsync.Engine, batchSize int, logger *zap.Logger) *SyncHandler {
	if batchSize <= 0 {
		batchSize = catalogsync.DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{
		engine:    engine,
		batchSize: batchSize,
		logger:    logger,
	}
}

// RegisterRoutes registers sync routes on the given router group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/sync/items")
	{
		items.POST("/begin", h.Begin)
		items.POST("/batch", h.RunBatch)
		items.GET("/status", h.Status)
		items.POST("/stale", h.SweepStale)
	}
}

// Begin starts a new import run. An unfinished run is replaced; its
// state is discarded.
func (h *SyncHandler) Begin(c *gin.Context) {
	var req dto.BeginImportRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != nil && !h.state.Complete {
		h.logger.Warn("replacing unfinished import run",
			zap.String("run_id", h.state.RunID.String()),
			zap.Int("processed", h.state.Stats.Processed))
	}

	h.engine.SetForceRefresh(req.ForceRefresh)
	h.state = h.engine.BeginAsyncImport()

	h.logger.Info("import run started",
		zap.String("run_id", h.state.RunID.String()),
		zap.Bool("force_refresh", req.ForceRefresh))

	h.Accepted(c, h.state)
}

// RunBatch advances the active run by one batch
func (h *SyncHandler) RunBatch(c *gin.Context) {
	var req dto.RunBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	batchSize := h.batchSize
	if req.BatchSize > 0 {
		batchSize = req.BatchSize
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == nil {
		h.NotFound(c, "no import run in progress; call begin first")
		return
	}
	if h.state.Complete {
		h.Conflict(c, "import run already complete")
		return
	}

	result, err := h.engine.RunAsyncImportBatch(c.Request.Context(), h.state, batchSize)
	if err != nil {
		h.logger.Error("import batch failed",
			zap.String("run_id", h.state.RunID.String()),
			zap.Int("page", h.state.Page),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Status reports the state of the active run
func (h *SyncHandler) Status(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == nil {
		h.Success(c, dto.ImportStatusResponse{Active: false})
		return
	}
	h.Success(c, dto.ImportStatusResponse{
		Active: !h.state.Complete,
		State:  h.state,
	})
}

// SweepStale retires catalog entries not synced since the cutoff.
// Normal runs sweep automatically at completion; this endpoint exists
// for manual housekeeping.
func (h *SyncHandler) SweepStale(c *gin.Context) {
	var req dto.StaleSweepRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	cutoff := time.Now()
	if req.Cutoff != nil {
		cutoff = *req.Cutoff
	}

	deactivated, err := h.engine.HandleStaleItems(c.Request.Context(), cutoff)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("stale sweep finished",
		zap.Time("cutoff", cutoff),
		zap.Int("deactivated", deactivated))

	h.Success(c, dto.StaleSweepResponse{Deactivated: deactivated})
}
