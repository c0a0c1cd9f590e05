package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/domain/integration"
	"github.com/catalogbridge/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

type memProducts struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*catalog.Product

	saveErr error
}

func newMemProducts() *memProducts {
	return &memProducts{items: make(map[int64]*catalog.Product)}
}

func (m *memProducts) FindByID(_ context.Context, id int64) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) FindIDBySKU(_ context.Context, sku string) (int64, error) {
	if sku == "" {
		return 0, shared.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findID(func(p *catalog.Product) bool { return p.SKU == sku })
}

func (m *memProducts) FindIDByMtrl(_ context.Context, mtrl string) (int64, error) {
	if mtrl == "" {
		return 0, shared.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findID(func(p *catalog.Product) bool { return p.Mtrl == mtrl })
}

// findID returns the lowest matching id, mirroring the SQL ORDER BY id
func (m *memProducts) findID(match func(*catalog.Product) bool) (int64, error) {
	best := int64(0)
	for id, p := range m.items {
		if match(p) && (best == 0 || id < best) {
			best = id
		}
	}
	if best == 0 {
		return 0, shared.ErrNotFound
	}
	return best, nil
}

func (m *memProducts) FindVariations(_ context.Context, parentID int64) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.Product
	for _, p := range m.items {
		if p.ParentID == parentID && p.Kind == catalog.ProductKindVariation {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProducts) FindSyncedBefore(_ context.Context, cutoff time.Time, limit int) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.Product
	for _, p := range m.items {
		if p.IsActive() && p.LastSyncAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memProducts) Save(_ context.Context, product *catalog.Product) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if product.ID == 0 {
		m.nextID++
		product.ID = m.nextID
	} else if product.ID > m.nextID {
		m.nextID = product.ID
	}
	cp := *product
	m.items[product.ID] = &cp
	return nil
}

func (m *memProducts) CountByKind(_ context.Context, kind catalog.ProductKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.items {
		if p.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (m *memProducts) mustGet(id int64) *catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		panic(fmt.Sprintf("no product %d", id))
	}
	cp := *p
	return &cp
}

type memTerms struct {
	mu          sync.Mutex
	nextID      int64
	terms       map[int64]*catalog.Term
	assignments map[string][]int64 // "productID|taxonomy" -> term ids

	assignCalls int
}

func newMemTerms() *memTerms {
	return &memTerms{
		terms:       make(map[int64]*catalog.Term),
		assignments: make(map[string][]int64),
	}
}

func assignKey(productID int64, taxonomy string) string {
	return fmt.Sprintf("%d|%s", productID, taxonomy)
}

func (m *memTerms) FindByID(_ context.Context, id int64) (*catalog.Term, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.terms[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTerms) FindByNameAndParent(_ context.Context, taxonomy, name string, parentID int64) (*catalog.Term, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.terms {
		if t.Taxonomy == taxonomy && t.Name == name && t.ParentID == parentID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memTerms) Save(_ context.Context, term *catalog.Term) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if term.ID == 0 {
		m.nextID++
		term.ID = m.nextID
	}
	cp := *term
	m.terms[term.ID] = &cp
	return nil
}

func (m *memTerms) AssignToProduct(_ context.Context, productID int64, taxonomy string, termIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignCalls++
	m.assignments[assignKey(productID, taxonomy)] = append([]int64(nil), termIDs...)
	return nil
}

func (m *memTerms) TermIDsForProduct(_ context.Context, productID int64, taxonomy string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.assignments[assignKey(productID, taxonomy)]...), nil
}

func (m *memTerms) assigned(productID int64, taxonomy string) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.assignments[assignKey(productID, taxonomy)]...)
}

type memMeta struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemMeta() *memMeta {
	return &memMeta{values: make(map[string]string)}
}

func metaKey(productID int64, key string) string {
	return fmt.Sprintf("%d|%s", productID, key)
}

func (m *memMeta) Get(_ context.Context, productID int64, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[metaKey(productID, key)]
	if !ok {
		return "", shared.ErrNotFound
	}
	return v, nil
}

func (m *memMeta) Set(_ context.Context, productID int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[metaKey(productID, key)] = value
	return nil
}

func (m *memMeta) Delete(_ context.Context, productID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, metaKey(productID, key))
	return nil
}

func (m *memMeta) get(productID int64, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[metaKey(productID, key)]
	return v, ok
}

type memCache struct {
	mu    sync.Mutex
	items map[int64]*catalog.Product
}

func newMemCache() *memCache {
	return &memCache{items: make(map[int64]*catalog.Product)}
}

func (c *memCache) Get(_ context.Context, productID int64) (*catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[productID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (c *memCache) Set(_ context.Context, product *catalog.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *product
	c.items[product.ID] = &cp
	return nil
}

func (c *memCache) Invalidate(_ context.Context, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, productID)
	return nil
}

type recordingRelinker struct {
	mu    sync.Mutex
	calls []string // SKUs in call order
	err   error
}

func (r *recordingRelinker) ReattachGallery(_ context.Context, _ int64, sku string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sku)
	return r.err
}

func (r *recordingRelinker) skus() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// pagedSource serves fixed pages of rows. Requests past the last page
// return an empty page. errOnPage injects a transient failure for one
// page number until cleared.
type pagedSource struct {
	mu        sync.Mutex
	pages     [][]integration.RawRow
	errOnPage int
	err       error
	fetches   int
}

func (s *pagedSource) FetchPage(_ context.Context, req integration.QueryRequest) (*integration.QueryPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.errOnPage != 0 && req.Page == s.errOnPage {
		return nil, s.err
	}
	if req.Page < 1 || req.Page > len(s.pages) {
		return &integration.QueryPage{Total: -1}, nil
	}
	return &integration.QueryPage{Rows: s.pages[req.Page-1], Total: -1}, nil
}

func (s *pagedSource) clearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errOnPage = 0
	s.err = nil
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type testEnv struct {
	engine   *Engine
	products *memProducts
	terms    *memTerms
	meta     *memMeta
	cache    *memCache
	media    *recordingRelinker
	source   *pagedSource
}

func newTestEnv(t *testing.T, source *pagedSource, cfg Config) *testEnv {
	t.Helper()
	if source == nil {
		source = &pagedSource{}
	}
	env := &testEnv{
		products: newMemProducts(),
		terms:    newMemTerms(),
		meta:     newMemMeta(),
		cache:    newMemCache(),
		media:    &recordingRelinker{},
		source:   source,
	}
	logger := zaptest.NewLogger(t)
	env.engine = NewEngine(source, env.products, env.terms, env.meta, env.cache, env.media, logger, cfg)
	return env
}

// runToCompletion drives batches until the run completes
func (env *testEnv) runToCompletion(ctx context.Context, state *ImportState, batchSize int) (*BatchResult, error) {
	for i := 0; i < 1000; i++ {
		result, err := env.engine.RunAsyncImportBatch(ctx, state, batchSize)
		if err != nil {
			return nil, err
		}
		if result.Complete {
			return result, nil
		}
	}
	return nil, fmt.Errorf("run did not complete")
}

// ---------------------------------------------------------------------------
// Row builders
// ---------------------------------------------------------------------------

func itemRow(mtrl, sku, name string, price float64) integration.RawRow {
	return integration.RawRow{
		"mtrl":  mtrl,
		"sku":   sku,
		"name":  name,
		"price": price,
	}
}

func itemRows(n int, prefix string) []integration.RawRow {
	rows := make([]integration.RawRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, itemRow(
			fmt.Sprintf("%s-%04d", prefix, i),
			fmt.Sprintf("SKU-%s-%04d", prefix, i),
			fmt.Sprintf("Item %s %d", prefix, i),
			9.90,
		))
	}
	return rows
}
