package elasticsearch

import (
	"strings"

	"github.com/nefol/discovery/internal/domain"
)

// document is the indexed form of a product: the product itself plus the
// derived fields queries run against.
type document struct {
	domain.Product
	PriceValue        float64 `json:"price_value"`
	SearchTitle       string  `json:"search_title"`
	SearchDescription string  `json:"search_description"`
	SearchCategory    string  `json:"search_category"`
}

func newDocument(p domain.Product) document {
	return document{
		Product:           p,
		PriceValue:        p.PriceValue(),
		SearchTitle:       lower(p.Title),
		SearchDescription: lower(p.Description),
		SearchCategory:    lower(p.Category),
	}
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
