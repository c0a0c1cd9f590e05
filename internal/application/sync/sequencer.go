package sync

import (
	"context"
	"fmt"

	"github.com/catalogbridge/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// rowStream drives the row source page by page, yielding normalized rows
// lazily. The stream mutates the supplied working state (page cursor,
// row offset, page-hash window) so a batch can stop mid-page and a later
// batch can resume by refetching the partial page and skipping the rows
// already consumed. Resumption is page-boundary based: the stream itself
// never restarts mid-page.
type rowStream struct {
	source    integration.RowSource
	query     string
	params    map[string]string
	pageSize  int
	state     *ImportState
	logger    *zap.Logger
	buf       []integration.RawRow
	bufPos    int
	exhausted bool
}

func newRowStream(source integration.RowSource, query string, params map[string]string, pageSize int, state *ImportState, logger *zap.Logger) *rowStream {
	if pageSize <= 0 {
		pageSize = 1
	}
	return &rowStream{
		source:   source,
		query:    query,
		params:   params,
		pageSize: pageSize,
		state:    state,
		logger:   logger,
	}
}

// Next yields the next raw row in source order. The second return value
// is false once the source is exhausted. Source communication errors are
// returned as-is so the caller can retry the batch with unchanged state.
func (s *rowStream) Next(ctx context.Context) (integration.RawRow, bool, error) {
	for s.bufPos >= len(s.buf) {
		if s.exhausted {
			return nil, false, nil
		}
		if err := s.fetchPage(ctx); err != nil {
			return nil, false, err
		}
		if s.exhausted {
			return nil, false, nil
		}
	}

	row := s.buf[s.bufPos]
	s.bufPos++
	s.state.RowOffset++
	if s.bufPos >= len(s.buf) {
		// page fully consumed; the next fetch starts a fresh page
		s.state.Page++
		s.state.RowOffset = 0
		s.buf = nil
		s.bufPos = 0
	}
	return row, true, nil
}

// fetchPage requests the page the state cursor points at and applies the
// repeated-page guard. The guard logs and records a warning but still
// yields the rows: it detects the anomaly without corrupting data, and
// the bounded hash window plus caller-imposed iteration limits are the
// safety net against unbounded growth.
func (s *rowStream) fetchPage(ctx context.Context) error {
	page, err := s.source.FetchPage(ctx, integration.QueryRequest{
		Query:    s.query,
		Params:   s.params,
		Page:     s.state.Page,
		PageSize: s.pageSize,
	})
	if err != nil {
		return err
	}
	if page.IsEmpty() {
		s.exhausted = true
		return nil
	}

	// A resumed partial page was already hashed on its first fetch.
	if s.state.RowOffset == 0 {
		s.guardPageHash(hashPage(page.Rows))
	}

	if s.state.RowOffset >= len(page.Rows) {
		// The source shrank between batches; move on.
		s.logger.Warn("resumed page shorter than recorded offset",
			zap.Int("page", s.state.Page),
			zap.Int("row_offset", s.state.RowOffset),
			zap.Int("rows", len(page.Rows)))
		s.state.Page++
		s.state.RowOffset = 0
		s.buf = nil
		s.bufPos = 0
		return nil
	}

	s.buf = page.Rows[s.state.RowOffset:]
	s.bufPos = 0
	return nil
}

func (s *rowStream) guardPageHash(hash string) {
	switch {
	case hash == s.state.LastPageHash():
		msg := fmt.Sprintf("Detected repeated page payload on page %d", s.state.Page)
		s.state.AddWarning(msg)
		s.logger.Warn("Detected repeated page payload",
			zap.Int("page", s.state.Page),
			zap.String("page_hash", hash))
	case s.state.HasPageHash(hash):
		msg := fmt.Sprintf("Page %d repeats a payload seen earlier in this run", s.state.Page)
		s.state.AddWarning(msg)
		s.logger.Warn("page payload seen earlier in run",
			zap.Int("page", s.state.Page),
			zap.String("page_hash", hash))
	}
	s.state.RememberPageHash(hash)
}
