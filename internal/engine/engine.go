package engine

import (
	"context"

	"github.com/nefol/discovery/internal/domain"
)

// SearchEngine defines the interface for indexing and discovering products.
// Implementations hold the catalog in memory or in Elasticsearch; both apply
// the same matching, facet, ranking and suggestion rules.
type SearchEngine interface {
	// Index adds or updates a single product. A new product is appended to
	// catalog order; an update keeps its position.
	Index(ctx context.Context, product *domain.Product) error

	// Delete removes a product by its ID. Unknown IDs are not an error.
	Delete(ctx context.Context, id string) error

	// BulkIndex adds or updates multiple products, in order.
	BulkIndex(ctx context.Context, products []domain.Product) error

	// Search returns one ranked, filtered page of products.
	Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error)

	// Suggest returns autocomplete suggestions for a partial query.
	Suggest(ctx context.Context, partial string) ([]domain.Suggestion, error)

	// Facets summarizes the whole catalog for filter controls.
	Facets(ctx context.Context) (*domain.FacetSummary, error)

	// Count returns the number of indexed products.
	Count(ctx context.Context) (int, error)
}

// Pinger is implemented by engines backed by a remote cluster.
type Pinger interface {
	Ping(ctx context.Context) error
}
