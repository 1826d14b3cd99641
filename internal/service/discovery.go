package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nefol/discovery/internal/catalog"
	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/engine"
	"github.com/nefol/discovery/internal/history"
	apperrors "github.com/nefol/discovery/pkg/errors"
)

// ErrNoCatalogSource is returned by Reindex when no catalog source is wired.
var ErrNoCatalogSource = errors.New("no catalog source configured")

// DefaultPopularLimit caps the popular-queries list.
const DefaultPopularLimit = 8

// Config holds the tunables of the discovery service.
type Config struct {
	// PopularQueries is the curated list shown until enough submissions
	// have been counted.
	PopularQueries []string
	PopularLimit   int
}

// DiscoveryService implements the business logic of the discovery API.
type DiscoveryService struct {
	engine  engine.SearchEngine
	recent  history.RecentStore
	popular history.PopularStore
	source  catalog.Source
	cfg     Config
	logger  *slog.Logger
}

// NewDiscoveryService creates a new discovery service. source may be nil, in
// which case Reindex is unavailable.
func NewDiscoveryService(
	eng engine.SearchEngine,
	recent history.RecentStore,
	popular history.PopularStore,
	source catalog.Source,
	cfg Config,
	logger *slog.Logger,
) *DiscoveryService {
	if cfg.PopularLimit <= 0 {
		cfg.PopularLimit = DefaultPopularLimit
	}
	return &DiscoveryService{
		engine:  eng,
		recent:  recent,
		popular: popular,
		source:  source,
		cfg:     cfg,
		logger:  logger,
	}
}

// Search runs the matcher, facet filter and ranker and returns one page.
// The page carries suggestions for the query and, in browse mode, the
// popular queries.
func (s *DiscoveryService) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	if err := query.Filters.Validate(); err != nil {
		return nil, apperrors.InvalidCause(err)
	}
	query.Clamp()

	result, err := s.engine.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	mode := "query"
	if strings.TrimSpace(query.Query) == "" {
		mode = "browse"
		result.Popular = s.Popular(ctx)
	} else {
		suggestions, err := s.engine.Suggest(ctx, query.Query)
		if err != nil {
			s.logger.WarnContext(ctx, "suggestions unavailable for search",
				slog.String("query", query.Query),
				slog.String("error", err.Error()),
			)
		}
		result.Suggestions = suggestions
	}

	searchesTotal.WithLabelValues(mode).Inc()
	searchDuration.WithLabelValues(mode).Observe(float64(result.TookMs) / 1000)
	if result.Total == 0 {
		zeroResultSearchesTotal.Inc()
	}

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", query.Query),
		slog.Int("total", result.Total),
		slog.Int64("took_ms", result.TookMs),
	)
	return result, nil
}

// Suggest returns autocomplete suggestions for a partial query. Partials
// below the configured minimum length yield an empty list.
func (s *DiscoveryService) Suggest(ctx context.Context, partial string) ([]domain.Suggestion, error) {
	suggestions, err := s.engine.Suggest(ctx, partial)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}
	return suggestions, nil
}

// Facets summarizes the catalog for the filter controls.
func (s *DiscoveryService) Facets(ctx context.Context) (*domain.FacetSummary, error) {
	summary, err := s.engine.Facets(ctx)
	if err != nil {
		return nil, fmt.Errorf("facets: %w", err)
	}
	return summary, nil
}

// Recent returns the recent searches of user, most recent first.
func (s *DiscoveryService) Recent(ctx context.Context, user string) ([]string, error) {
	list, err := s.recent.Recent(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// PushRecent records a submitted query for user and counts it towards the
// popular queries.
func (s *DiscoveryService) PushRecent(ctx context.Context, user, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidInput("query is required")
	}

	list, err := s.recent.Push(ctx, user, query)
	if err != nil {
		return nil, fmt.Errorf("push recent search: %w", err)
	}
	if err := s.popular.Record(ctx, query); err != nil {
		s.logger.WarnContext(ctx, "failed to count popular query",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	}
	return list, nil
}

// ClearRecent removes every recent search of user.
func (s *DiscoveryService) ClearRecent(ctx context.Context, user string) error {
	if err := s.recent.Clear(ctx, user); err != nil {
		return fmt.Errorf("clear recent searches: %w", err)
	}
	return nil
}

// Popular returns counted queries merged with the curated list. A failing
// store degrades to the curated list.
func (s *DiscoveryService) Popular(ctx context.Context) []string {
	counted, err := s.popular.Top(ctx, s.cfg.PopularLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "popular queries unavailable, using curated list",
			slog.String("error", err.Error()),
		)
		counted = nil
	}
	return history.MergePopular(counted, s.cfg.PopularQueries, s.cfg.PopularLimit)
}

// IndexRaw normalizes a loosely shaped product record and indexes it.
func (s *DiscoveryService) IndexRaw(ctx context.Context, raw map[string]any) (*domain.Product, error) {
	product, err := domain.NormalizeProduct(raw)
	if err != nil {
		return nil, apperrors.InvalidCause(err)
	}
	if err := s.IndexProduct(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// IndexProduct indexes a single normalized product.
func (s *DiscoveryService) IndexProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		return apperrors.InvalidInput("index product: id is required")
	}
	if err := s.engine.Index(ctx, product); err != nil {
		return fmt.Errorf("index product: %w", err)
	}

	s.logger.InfoContext(ctx, "product indexed",
		slog.String("product_id", product.ID),
		slog.String("title", product.Title),
	)
	return nil
}

// BulkIndexRaw normalizes and indexes a batch of records in order. Records
// that cannot be normalized are skipped and counted.
func (s *DiscoveryService) BulkIndexRaw(ctx context.Context, raws []map[string]any) (indexed, skipped int, err error) {
	products, skipped := domain.NormalizeProducts(raws)
	if err := s.engine.BulkIndex(ctx, products); err != nil {
		return 0, skipped, fmt.Errorf("bulk index: %w", err)
	}

	s.logger.InfoContext(ctx, "bulk index completed",
		slog.Int("count", len(products)),
		slog.Int("skipped", skipped),
	)
	return len(products), skipped, nil
}

// DeleteProduct removes a product from the index.
func (s *DiscoveryService) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.InvalidInput("delete product: id is required")
	}
	if err := s.engine.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted from index",
		slog.String("product_id", id),
	)
	return nil
}

// Reindex loads the whole catalog from the configured source and indexes it
// in catalog order. It returns the number of products indexed.
func (s *DiscoveryService) Reindex(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, ErrNoCatalogSource
	}

	products, err := s.source.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("reindex: load catalog: %w", err)
	}
	if err := s.engine.BulkIndex(ctx, products); err != nil {
		return 0, fmt.Errorf("reindex: %w", err)
	}

	s.logger.InfoContext(ctx, "reindex completed", slog.Int("count", len(products)))
	return len(products), nil
}

// Bootstrap fills an empty index from the catalog source. A populated index
// is left untouched.
func (s *DiscoveryService) Bootstrap(ctx context.Context) error {
	if s.source == nil {
		return nil
	}
	count, err := s.engine.Count(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: count: %w", err)
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "index already populated, skipping bootstrap", slog.Int("count", count))
		return nil
	}
	_, err = s.Reindex(ctx)
	return err
}

// Ready reports whether the index holds at least one product.
func (s *DiscoveryService) Ready(ctx context.Context) error {
	count, err := s.engine.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 && s.source != nil {
		return errors.New("catalog not loaded")
	}
	return nil
}

// HasCatalogSource reports whether Reindex can run.
func (s *DiscoveryService) HasCatalogSource() bool {
	return s.source != nil
}
