package facet

import (
	"cmp"
	"slices"
	"strings"

	"github.com/nefol/discovery/internal/domain"
)

// Summarize builds the facet payload for products: distinct categories and
// tags with counts, and min/max/avg over prices that parse to a positive
// amount. Values are grouped case-insensitively; the first spelling seen is
// reported. Counts are sorted descending, ties alphabetically.
func Summarize(products []domain.Product) domain.FacetSummary {
	categories := newCounter()
	ingredients := newCounter()
	skinTypes := newCounter()
	hairTypes := newCounter()

	var stats domain.PriceStats
	priced := 0
	sum := 0.0

	for i := range products {
		p := &products[i]
		categories.add(p.Category)
		for _, v := range p.Ingredients {
			ingredients.add(v)
		}
		for _, v := range p.SkinTypes {
			skinTypes.add(v)
		}
		for _, v := range p.HairTypes {
			hairTypes.add(v)
		}

		price := p.PriceValue()
		if price <= 0 {
			continue
		}
		if priced == 0 || price < stats.Min {
			stats.Min = price
		}
		if price > stats.Max {
			stats.Max = price
		}
		sum += price
		priced++
	}
	if priced > 0 {
		stats.Avg = sum / float64(priced)
	}

	return domain.FacetSummary{
		Categories:  categories.counts(),
		Price:       stats,
		Ingredients: ingredients.counts(),
		SkinTypes:   skinTypes.counts(),
		HairTypes:   hairTypes.counts(),
		Total:       len(products),
	}
}

// CategoryCounts returns the number of products per category, keyed by the
// lowercased category name.
func CategoryCounts(products []domain.Product) map[string]int {
	out := make(map[string]int)
	for i := range products {
		if c := strings.ToLower(strings.TrimSpace(products[i].Category)); c != "" {
			out[c]++
		}
	}
	return out
}

type counter struct {
	labels map[string]string
	n      map[string]int
}

func newCounter() *counter {
	return &counter{labels: make(map[string]string), n: make(map[string]int)}
}

func (c *counter) add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	key := strings.ToLower(value)
	if _, ok := c.labels[key]; !ok {
		c.labels[key] = value
	}
	c.n[key]++
}

func (c *counter) counts() []domain.FacetCount {
	out := make([]domain.FacetCount, 0, len(c.n))
	for key, n := range c.n {
		out = append(out, domain.FacetCount{Value: c.labels[key], Count: n})
	}
	slices.SortFunc(out, func(a, b domain.FacetCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return strings.Compare(strings.ToLower(a.Value), strings.ToLower(b.Value))
	})
	return out
}
