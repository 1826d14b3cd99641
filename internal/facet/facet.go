// Package facet narrows result sets by the user's filter selection and
// summarizes a catalog into the values that populate filter controls.
package facet

import (
	"math"
	"strings"

	"github.com/nefol/discovery/internal/domain"
)

// Matches reports whether p passes every active facet in fs. Facets are ANDed;
// inactive facets pass everything through.
func Matches(p *domain.Product, fs *domain.FilterState) bool {
	if fs == nil {
		return true
	}

	if fs.Category != nil && !strings.EqualFold(strings.TrimSpace(p.Category), strings.TrimSpace(*fs.Category)) {
		return false
	}

	if fs.MinPrice != nil || fs.MaxPrice != nil {
		price := p.PriceValue()
		lo, hi := 0.0, math.Inf(1)
		if fs.MinPrice != nil {
			lo = *fs.MinPrice
		}
		if fs.MaxPrice != nil {
			hi = *fs.MaxPrice
		}
		if price < lo || price > hi {
			return false
		}
	}

	if len(fs.Ingredients) > 0 && !hasAnyIngredient(p, fs.Ingredients) {
		return false
	}

	if fs.SkinType != nil && !p.HasSkinType(*fs.SkinType) {
		return false
	}
	if fs.HairType != nil && !p.HasHairType(*fs.HairType) {
		return false
	}

	return true
}

// Apply returns the products passing fs, preserving input order.
func Apply(products []domain.Product, fs *domain.FilterState) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if Matches(&products[i], fs) {
			out = append(out, products[i])
		}
	}
	return out
}

func hasAnyIngredient(p *domain.Product, tags []string) bool {
	for _, tag := range tags {
		if p.HasIngredient(tag) {
			return true
		}
	}
	return false
}
