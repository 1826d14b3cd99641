package rank

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nefol/discovery/internal/domain"
)

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestRank_RelevanceTiering(t *testing.T) {
	products := []domain.Product{
		{ID: "deluxe", Title: "Face Serum Deluxe"},
		{ID: "toner", Title: "Rose Toner", Description: "pairs with any serum"},
		{ID: "exact", Title: "Serum"},
	}

	got := Rank(products, "Serum", domain.SortRelevance, domain.SortAsc)
	assert.Equal(t, []string{"exact", "deluxe", "toner"}, ids(got))
}

func TestRank_RelevanceIgnoresDirection(t *testing.T) {
	products := []domain.Product{
		{ID: "deluxe", Title: "Face Serum Deluxe"},
		{ID: "exact", Title: "serum"},
	}

	got := Rank(products, "SERUM", domain.SortRelevance, domain.SortDesc)
	assert.Equal(t, []string{"exact", "deluxe"}, ids(got))
}

func TestRank_RelevanceTiesKeepCatalogOrder(t *testing.T) {
	products := []domain.Product{
		{ID: "a", Title: "Night Serum"},
		{ID: "b", Title: "Toner"},
		{ID: "c", Title: "Day Serum"},
		{ID: "d", Title: "Cleanser"},
	}

	got := Rank(products, "serum", domain.SortRelevance, domain.SortAsc)
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(got))
}

func TestRank_EmptyQueryKeepsOrder(t *testing.T) {
	products := []domain.Product{{ID: "z", Title: "Z"}, {ID: "a", Title: "A"}}
	got := Rank(products, "  ", domain.SortRelevance, domain.SortDesc)
	assert.Equal(t, []string{"z", "a"}, ids(got))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	products := []domain.Product{{ID: "b", Title: "B"}, {ID: "a", Title: "A"}}
	_ = Rank(products, "", domain.SortTitle, domain.SortAsc)
	assert.Equal(t, []string{"b", "a"}, ids(products))
}

func TestRank_PriceParsesFormattedStrings(t *testing.T) {
	products := []domain.Product{
		{ID: "big", Price: "₹1,299.00"},
		{ID: "bad", Price: "N/A"},
		{ID: "mid", Price: "₹899"},
	}

	asc := Rank(products, "", domain.SortPrice, domain.SortAsc)
	assert.Equal(t, []string{"bad", "mid", "big"}, ids(asc))

	desc := Rank(products, "", domain.SortPrice, domain.SortDesc)
	assert.Equal(t, []string{"big", "mid", "bad"}, ids(desc))
}

func TestRank_StableForEqualKeys(t *testing.T) {
	products := []domain.Product{
		{ID: "first", Price: "₹499"},
		{ID: "cheap", Price: "₹100"},
		{ID: "second", Price: "499.00"},
		{ID: "third", Price: "Rs 499"},
	}

	asc := Rank(products, "", domain.SortPrice, domain.SortAsc)
	assert.Equal(t, []string{"cheap", "first", "second", "third"}, ids(asc))

	desc := Rank(products, "", domain.SortPrice, domain.SortDesc)
	assert.Equal(t, []string{"first", "second", "third", "cheap"}, ids(desc))
}

func TestRank_TitleAndCategory(t *testing.T) {
	products := []domain.Product{
		{ID: "1", Title: "rose toner", Category: "Face Care"},
		{ID: "2", Title: "Aloe Gel", Category: "Body Care"},
		{ID: "3", Title: "Mint Shampoo", Category: "hair care"},
	}

	assert.Equal(t, []string{"2", "3", "1"}, ids(Rank(products, "", domain.SortTitle, domain.SortAsc)))
	assert.Equal(t, []string{"3", "1", "2"}, ids(Rank(products, "", domain.SortCategory, domain.SortDesc)))
}

func TestRank_CreatedAt(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	products := []domain.Product{
		{ID: "mid", CreatedAt: base.Add(24 * time.Hour)},
		{ID: "unknown"},
		{ID: "new", CreatedAt: base.Add(48 * time.Hour)},
		{ID: "old", CreatedAt: base},
	}

	got := Rank(products, "", domain.SortCreatedAt, domain.SortDesc)
	assert.Equal(t, []string{"new", "mid", "old", "unknown"}, ids(got))
}

func TestTier(t *testing.T) {
	p := domain.Product{Title: "  Vitamin C Serum "}
	assert.Equal(t, TierExact, Tier(&p, "vitamin c serum"))
	assert.Equal(t, TierPartial, Tier(&p, "c ser"))
	assert.Equal(t, TierOther, Tier(&p, "toner"))
	assert.Equal(t, TierOther, Tier(&p, ""))
}

func TestRank_RelevanceKeepsInputOrderWithinTiers(t *testing.T) {
	var products []domain.Product
	for i := range 50 {
		title := "Clay Mask"
		switch i % 3 {
		case 0:
			title = "Serum"
		case 1:
			title = "Night Serum"
		}
		products = append(products, domain.Product{ID: fmt.Sprintf("p%02d", i), Title: title})
	}
	before := ids(products)

	got := Rank(products, " SERUM ", domain.SortRelevance, domain.SortAsc)
	require.Len(t, got, 50)

	var tiers []int
	for i := range got {
		tiers = append(tiers, Tier(&got[i], "serum"))
	}
	assert.True(t, slices.IsSorted(tiers))
	for i := 1; i < len(got); i++ {
		if tiers[i] == tiers[i-1] {
			assert.Less(t, got[i-1].ID, got[i].ID)
		}
	}
	assert.Equal(t, before, ids(products))
}
