package memory

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/match"
	"github.com/nefol/discovery/internal/suggest"
	"github.com/nefol/discovery/internal/taxonomy"
)

func newTestEngine() *Engine {
	tax := taxonomy.Default()
	return New(match.New(tax), suggest.New(tax, suggest.Config{MinLength: 3}))
}

func newTestProduct(id, title, category, price string) domain.Product {
	return domain.Product{
		ID:        id,
		Title:     title,
		Category:  category,
		Price:     price,
		ImageURL:  "https://example.com/image.jpg",
		CreatedAt: time.Now().UTC(),
	}
}

func seed(t *testing.T, eng *Engine, products ...domain.Product) {
	t.Helper()
	require.NoError(t, eng.BulkIndex(context.Background(), products))
}

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestEngine_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	seed(t, eng,
		newTestProduct("1", "Vitamin C Serum", "Face Care", "₹899"),
		newTestProduct("2", "Hair Oil", "Hair Care", "₹499"),
	)

	result, err := eng.Search(ctx, &domain.SearchQuery{Query: "vitamin c"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "Vitamin C Serum", result.Products[0].Title)

	result, err = eng.Search(ctx, &domain.SearchQuery{Query: "xyz123"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Products)
}

func TestEngine_EmptyQueryBrowsesCatalogOrder(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	seed(t, eng,
		newTestProduct("c", "Toner", "Face Care", "₹300"),
		newTestProduct("a", "Shampoo", "Hair Care", "₹200"),
		newTestProduct("b", "Lip Balm", "Lip Care", "₹100"),
	)

	result, err := eng.Search(ctx, &domain.SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(result.Products))
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, domain.DefaultPerPage, result.PerPage)
	assert.Equal(t, 1, result.TotalPages)
}

func TestEngine_RelevanceTiering(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	seed(t, eng,
		newTestProduct("deluxe", "Face Serum Deluxe", "Face Care", "₹999"),
		newTestProduct("exact", "Serum", "Face Care", "₹499"),
	)

	result, err := eng.Search(ctx, &domain.SearchQuery{Query: "Serum"})
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "deluxe"}, ids(result.Products))
}

func TestEngine_FacetsComposeWithQuery(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()

	serum := newTestProduct("serum", "Vitamin C Serum", "Face Care", "₹899")
	serum.SkinTypes = []string{"Oily"}
	wash := newTestProduct("wash", "Face Wash", "Face Care", "₹1,299.00")
	wash.SkinTypes = []string{"Dry"}
	oil := newTestProduct("oil", "Hair Oil", "Hair Care", "₹499")
	seed(t, eng, serum, wash, oil)

	result, err := eng.Search(ctx, &domain.SearchQuery{
		Query:   "face",
		Filters: domain.FilterState{MaxPrice: ptr(1000.0)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"serum"}, ids(result.Products))

	result, err = eng.Search(ctx, &domain.SearchQuery{
		Filters: domain.FilterState{SkinType: ptr("dry")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"wash"}, ids(result.Products))
}

func TestEngine_SortByPriceDesc(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	seed(t, eng,
		newTestProduct("cheap", "Lip Balm", "Lip Care", "₹99"),
		newTestProduct("unknown", "Mystery", "Lip Care", "N/A"),
		newTestProduct("pricey", "Serum", "Face Care", "₹1,299.00"),
	)

	result, err := eng.Search(ctx, &domain.SearchQuery{
		Filters: domain.FilterState{SortKey: domain.SortPrice, SortDirection: domain.SortDesc},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pricey", "cheap", "unknown"}, ids(result.Products))
}

func TestEngine_Pagination(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	for i := 0; i < 25; i++ {
		seed(t, eng, newTestProduct(fmt.Sprintf("p%02d", i), fmt.Sprintf("Toner %d", i), "Face Care", "₹100"))
	}

	result, err := eng.Search(ctx, &domain.SearchQuery{Query: "toner", Page: 2, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, result.Total)
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, "p10", result.Products[0].ID)
	assert.Len(t, result.Products, 10)

	result, err = eng.Search(ctx, &domain.SearchQuery{Query: "toner", Page: 5, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Products)

	result, err = eng.Search(ctx, &domain.SearchQuery{PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPerPage, result.PerPage)
}

func TestEngine_PageBeyondRangeIsEmpty(t *testing.T) {
	eng := newTestEngine()
	seed(t, eng,
		newTestProduct("p1", "Rose Serum", "Skin", "₹100"),
		newTestProduct("p2", "Clay Mask", "Skin", "₹200"),
	)

	result, err := eng.Search(context.Background(), &domain.SearchQuery{Page: math.MaxInt, PerPage: 20})
	require.NoError(t, err)
	assert.Empty(t, result.Products)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, domain.MaxPage, result.Page)
}

func TestEngine_UpdateKeepsPosition(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	seed(t, eng,
		newTestProduct("a", "Toner", "Face Care", "₹100"),
		newTestProduct("b", "Serum", "Face Care", "₹200"),
	)

	updated := newTestProduct("a", "Rose Toner", "Face Care", "₹150")
	require.NoError(t, eng.Index(ctx, &updated))

	products := eng.Products()
	assert.Equal(t, []string{"a", "b"}, ids(products))
	assert.Equal(t, "Rose Toner", products[0].Title)
	assert.Equal(t, 0, products[0].Position)
	assert.Equal(t, 1, products[1].Position)
}

func TestEngine_Delete(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	seed(t, eng,
		newTestProduct("a", "Toner", "Face Care", "₹100"),
		newTestProduct("b", "Serum", "Face Care", "₹200"),
		newTestProduct("c", "Gel", "Face Care", "₹300"),
	)

	require.NoError(t, eng.Delete(ctx, "b"))
	require.NoError(t, eng.Delete(ctx, "missing"))

	count, err := eng.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	c := newTestProduct("c", "Aloe Gel", "Face Care", "₹300")
	require.NoError(t, eng.Index(ctx, &c))
	assert.Equal(t, []string{"a", "c"}, ids(eng.Products()))
}

func TestEngine_Suggest(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	seed(t, eng,
		newTestProduct("1", "Vitamin C Serum", "Face Care", "₹899"),
		newTestProduct("2", "Hair Oil", "Hair Care", "₹499"),
	)

	got, err := eng.Suggest(ctx, "vi")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = eng.Suggest(ctx, "vitamin")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.SuggestionProduct, got[0].Type)
	assert.Equal(t, "1", got[0].ProductID)
	assert.Equal(t, domain.SuggestionIngredient, got[1].Type)
	assert.Equal(t, 1, got[1].Count)
}

func TestEngine_Facets(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()
	seed(t, eng,
		newTestProduct("1", "Vitamin C Serum", "Face Care", "₹899"),
		newTestProduct("2", "Hair Oil", "Hair Care", "₹499"),
	)

	summary, err := eng.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Len(t, summary.Categories, 2)
	assert.Equal(t, 499.0, summary.Price.Min)
	assert.Equal(t, 899.0, summary.Price.Max)
}

func TestEngine_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			p := newTestProduct(fmt.Sprintf("p%d", i), "Toner", "Face Care", "₹100")
			assert.NoError(t, eng.Index(ctx, &p))
		}(i)
		go func() {
			defer wg.Done()
			_, err := eng.Search(ctx, &domain.SearchQuery{Query: "toner"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := eng.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}
