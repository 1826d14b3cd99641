package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/facet"
	"github.com/nefol/discovery/internal/match"
	"github.com/nefol/discovery/internal/rank"
	"github.com/nefol/discovery/internal/suggest"
)

// Engine is an in-memory implementation of the SearchEngine interface.
// Products are kept in catalog order; thread-safe via sync.RWMutex.
type Engine struct {
	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int
	nextPos  int

	matcher   *match.Matcher
	generator *suggest.Generator
}

// New creates a new in-memory search engine.
func New(matcher *match.Matcher, generator *suggest.Generator) *Engine {
	return &Engine{
		byID:      make(map[string]int),
		matcher:   matcher,
		generator: generator,
	}
}

// Index adds or updates a single product in the in-memory index.
func (e *Engine) Index(_ context.Context, product *domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.upsert(*product)
	return nil
}

// Delete removes a product from the in-memory index by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.byID[id]
	if !ok {
		return nil
	}
	e.products = append(e.products[:idx], e.products[idx+1:]...)
	delete(e.byID, id)
	for i := idx; i < len(e.products); i++ {
		e.byID[e.products[i].ID] = i
	}
	return nil
}

// BulkIndex adds or updates multiple products in the in-memory index.
func (e *Engine) BulkIndex(_ context.Context, products []domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range products {
		e.upsert(products[i])
	}
	return nil
}

// upsert must be called with the write lock held.
func (e *Engine) upsert(p domain.Product) {
	if idx, ok := e.byID[p.ID]; ok {
		p.Position = e.products[idx].Position
		e.products[idx] = p
		return
	}
	p.Position = e.nextPos
	e.nextPos++
	e.byID[p.ID] = len(e.products)
	e.products = append(e.products, p)
}

// Search executes a search query against the in-memory index.
func (e *Engine) Search(_ context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	start := time.Now()

	q := *query
	q.Clamp()
	filters := q.Filters.Normalized()
	compiled := e.matcher.Compile(q.Query)

	e.mu.RLock()
	matched := make([]domain.Product, 0)
	for i := range e.products {
		p := &e.products[i]
		if compiled.Matches(p) && facet.Matches(p, &filters) {
			matched = append(matched, *p)
		}
	}
	e.mu.RUnlock()

	ranked := rank.Rank(matched, q.Query, filters.SortKey, filters.SortDirection)

	total := len(ranked)
	offset, end := domain.Paginate(total, q.Page, q.PerPage)

	return &domain.SearchResult{
		Products:   ranked[offset:end],
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: domain.TotalPages(total, q.PerPage),
		TookMs:     time.Since(start).Milliseconds(),
	}, nil
}

// Suggest returns autocomplete suggestions over the whole catalog.
func (e *Engine) Suggest(_ context.Context, partial string) ([]domain.Suggestion, error) {
	if !e.generator.Eligible(partial) {
		return []domain.Suggestion{}, nil
	}
	return e.generator.Suggest(e.snapshot(), partial), nil
}

// Facets summarizes the whole catalog.
func (e *Engine) Facets(_ context.Context) (*domain.FacetSummary, error) {
	summary := facet.Summarize(e.snapshot())
	return &summary, nil
}

// Count returns the number of indexed products.
func (e *Engine) Count(_ context.Context) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.products), nil
}

// Products returns a copy of the catalog in catalog order.
func (e *Engine) Products() []domain.Product {
	return e.snapshot()
}

func (e *Engine) snapshot() []domain.Product {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Product, len(e.products))
	copy(out, e.products)
	return out
}
