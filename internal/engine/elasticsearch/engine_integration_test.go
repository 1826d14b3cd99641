package elasticsearch_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nefol/discovery/internal/domain"
	esengine "github.com/nefol/discovery/internal/engine/elasticsearch"
	"github.com/nefol/discovery/internal/match"
	"github.com/nefol/discovery/internal/suggest"
	"github.com/nefol/discovery/internal/taxonomy"
)

// newIntegrationEngine creates an Elasticsearch engine against a real cluster.
// It skips the test if ELASTICSEARCH_URL is not set.
func newIntegrationEngine(t *testing.T) *esengine.Engine {
	t.Helper()

	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		t.Skip("ELASTICSEARCH_URL not set, skipping Elasticsearch integration tests")
	}

	indexName := fmt.Sprintf("test_discovery_products_%d", time.Now().UnixNano())
	tax := taxonomy.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	eng, err := esengine.New(context.Background(), esengine.Config{URL: esURL, IndexName: indexName},
		match.New(tax), suggest.New(tax, suggest.Config{MinLength: 2}), logger)
	require.NoError(t, err, "failed to create Elasticsearch engine")

	t.Cleanup(func() {
		_ = eng.DeleteIndex(context.Background())
	})
	return eng
}

func TestIntegration_EndToEndScenario(t *testing.T) {
	eng := newIntegrationEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{
		{ID: "1", Title: "Vitamin C Serum", Category: "Face Care", Price: "₹899"},
		{ID: "2", Title: "Hair Oil", Category: "Hair Care", Price: "₹499"},
	}))

	result, err := eng.Search(ctx, &domain.SearchQuery{Query: "vitamin c"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "Vitamin C Serum", result.Products[0].Title)

	result, err = eng.Search(ctx, &domain.SearchQuery{Query: "xyz123"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestIntegration_RelevanceTiering(t *testing.T) {
	eng := newIntegrationEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{
		{ID: "other", Title: "Rose Toner", Description: "pairs with a serum"},
		{ID: "deluxe", Title: "Face Serum Deluxe"},
		{ID: "exact", Title: "Serum"},
	}))

	result, err := eng.Search(ctx, &domain.SearchQuery{Query: "Serum"})
	require.NoError(t, err)
	require.Len(t, result.Products, 3)
	assert.Equal(t, "exact", result.Products[0].ID)
	assert.Equal(t, "deluxe", result.Products[1].ID)
	assert.Equal(t, "other", result.Products[2].ID)
}

func TestIntegration_FacetsAndSuggest(t *testing.T) {
	eng := newIntegrationEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{
		{ID: "1", Title: "Vitamin C Serum", Category: "Face Care", Price: "₹899", SkinTypes: []string{"Oily"}},
		{ID: "2", Title: "Hair Oil", Category: "Hair Care", Price: "₹499"},
		{ID: "3", Title: "Face Wash", Category: "face care", Price: "₹1,299.00"},
	}))

	category := "FACE CARE"
	maxPrice := 1000.0
	result, err := eng.Search(ctx, &domain.SearchQuery{Filters: domain.FilterState{Category: &category, MaxPrice: &maxPrice}})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "1", result.Products[0].ID)

	summary, err := eng.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 499.0, summary.Price.Min)

	suggestions, err := eng.Suggest(ctx, "care")
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, domain.SuggestionCategory, suggestions[0].Type)
	assert.Equal(t, "Face Care", suggestions[0].Label)
	assert.Equal(t, 2, suggestions[0].Count)
}
