package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/taxonomy"
)

func catalog() []domain.Product {
	return []domain.Product{
		{ID: "1", Title: "Vitamin C Serum", Category: "Face Care", Price: "₹899"},
		{ID: "2", Title: "Hair Oil", Category: "Hair Care", Price: "₹499"},
	}
}

func TestMatches_SubstringFields(t *testing.T) {
	m := New(nil)
	p := domain.Product{Title: "Blue Tea Face Wash", Description: "Gentle daily CLEANSER", Category: "Face Care"}

	assert.True(t, m.Matches(&p, "tea face"))
	assert.True(t, m.Matches(&p, "cleanser"))
	assert.True(t, m.Matches(&p, "FACE CARE"))
	assert.False(t, m.Matches(&p, "shampoo"))
}

func TestMatches_EmptyQueryPassesThrough(t *testing.T) {
	m := New(taxonomy.Default())
	p := domain.Product{Title: "Anything"}

	assert.True(t, m.Matches(&p, ""))
	assert.True(t, m.Matches(&p, "   "))
	assert.True(t, m.Matches(&domain.Product{}, ""))
}

func TestMatches_TaxonomyKeyword(t *testing.T) {
	m := New(taxonomy.Default())
	serum := domain.Product{Title: "Brightening Glow Serum"}
	oil := domain.Product{Title: "Hair Oil"}

	assert.True(t, m.Matches(&serum, "vitamin c"))
	assert.True(t, m.Matches(&serum, "vita"))
	assert.False(t, m.Matches(&oil, "vitamin c"))
}

func TestMatches_KeywordInDescriptionOnly(t *testing.T) {
	m := New(taxonomy.Default())
	p := domain.Product{Title: "Glow Drops", Description: "A lightweight moisturizer", Category: "Face Care"}
	assert.True(t, m.Matches(&p, "hyaluronic"))
}

func TestMatches_KeywordNotCheckedAgainstCategory(t *testing.T) {
	tax, err := taxonomy.New([]taxonomy.Entry{{Key: "glow", Keywords: []string{"serum"}}})
	assert.NoError(t, err)
	m := New(tax)

	p := domain.Product{Title: "Daily Cream", Category: "Serums"}
	assert.False(t, m.Matches(&p, "glow"))
}

func TestFilter_EndToEnd(t *testing.T) {
	m := New(taxonomy.Default())

	got := m.Filter(catalog(), "vitamin c")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Vitamin C Serum", got[0].Title)
	}

	// The literal query is absent but the taxonomy still bridges it.
	renamed := []domain.Product{
		{ID: "1", Title: "Radiance Serum", Category: "Face Care", Price: "₹899"},
		{ID: "2", Title: "Hair Oil", Category: "Hair Care", Price: "₹499"},
	}
	got = m.Filter(renamed, "vitamin c")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "1", got[0].ID)
	}

	assert.Empty(t, m.Filter(catalog(), "xyz123"))
}

func TestFilter_PreservesOrder(t *testing.T) {
	m := New(nil)
	products := []domain.Product{
		{ID: "a", Title: "Rose Toner"},
		{ID: "b", Title: "Face Wash"},
		{ID: "c", Title: "Rose Lip Balm"},
	}
	got := m.Filter(products, "rose")
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestMatches_NilProduct(t *testing.T) {
	m := New(nil)
	assert.False(t, m.Matches(nil, "serum"))
}
