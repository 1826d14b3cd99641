// Package rank orders matched products, either by the relevance tiers or by
// an explicit sort key. Every ordering is stable.
package rank

import (
	"slices"
	"strings"

	"github.com/nefol/discovery/internal/domain"
)

// Relevance tiers for a non-empty query.
const (
	TierExact   = 0
	TierPartial = 1
	TierOther   = 2
)

// Tier classifies p against query: exact case-insensitive title equality,
// title containment, or neither.
func Tier(p *domain.Product, query string) int {
	return tierOf(fold(p.Title), fold(query))
}

// tierOf classifies an already folded title against a folded query.
func tierOf(title, q string) int {
	switch {
	case q == "":
		return TierOther
	case title == q:
		return TierExact
	case strings.Contains(title, q):
		return TierPartial
	default:
		return TierOther
	}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type tiered struct {
	tier    int
	product domain.Product
}

// byTier orders products by relevance tier. Each title is folded once.
func byTier(products []domain.Product, query string) {
	q := fold(query)
	decorated := make([]tiered, len(products))
	for i := range products {
		decorated[i] = tiered{tier: tierOf(fold(products[i].Title), q), product: products[i]}
	}
	slices.SortStableFunc(decorated, func(a, b tiered) int {
		return a.tier - b.tier
	})
	for i := range decorated {
		products[i] = decorated[i].product
	}
}

// Rank returns a new slice with products ordered for display. The input is
// not modified. Direction only applies to non-relevance keys; unknown keys
// fall back to relevance.
func Rank(products []domain.Product, query string, key domain.SortKey, dir domain.SortDirection) []domain.Product {
	out := slices.Clone(products)

	switch key {
	case domain.SortPrice:
		sortBy(out, dir, func(a, b *domain.Product) int {
			return compareFloat(a.PriceValue(), b.PriceValue())
		})
	case domain.SortTitle:
		sortBy(out, dir, func(a, b *domain.Product) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case domain.SortCategory:
		sortBy(out, dir, func(a, b *domain.Product) int {
			return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
		})
	case domain.SortCreatedAt:
		sortBy(out, dir, func(a, b *domain.Product) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	default:
		if strings.TrimSpace(query) == "" {
			return out
		}
		byTier(out, query)
	}
	return out
}

// sortBy sorts stably with cmp, negated for descending order. Negating the
// comparator keeps equal elements in input order in both directions.
func sortBy(products []domain.Product, dir domain.SortDirection, cmp func(a, b *domain.Product) int) {
	sign := 1
	if dir == domain.SortDesc {
		sign = -1
	}
	slices.SortStableFunc(products, func(a, b domain.Product) int {
		return sign * cmp(&a, &b)
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
