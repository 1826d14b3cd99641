package domain

import (
	"strings"
	"time"
)

// Product is the normalized catalog record the discovery engine works on.
// The engine never mutates products; Position is assigned when a product
// enters an index and defines catalog order.
type Product struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Brand       string         `json:"brand"`
	Price       string         `json:"price"`
	ImageURL    string         `json:"image_url"`
	Ingredients []string       `json:"ingredients,omitempty"`
	SkinTypes   []string       `json:"skin_types,omitempty"`
	HairTypes   []string       `json:"hair_types,omitempty"`
	Pricing     *PricingDetail `json:"pricing,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Position    int            `json:"position"`
}

// PricingDetail holds the optional MRP / website price block.
type PricingDetail struct {
	MRP             string  `json:"mrp,omitempty"`
	WebsitePrice    string  `json:"website_price,omitempty"`
	DiscountPercent float64 `json:"discount_percent,omitempty"`
}

// PriceValue returns the parsed numeric price, 0 when the price is malformed.
func (p *Product) PriceValue() float64 {
	return ParsePrice(p.Price)
}

// HasIngredient reports whether the product carries the given ingredient tag.
func (p *Product) HasIngredient(tag string) bool {
	return containsFold(p.Ingredients, tag)
}

// HasSkinType reports whether the product is tagged for the given skin type.
func (p *Product) HasSkinType(skinType string) bool {
	return containsFold(p.SkinTypes, skinType)
}

// HasHairType reports whether the product is tagged for the given hair type.
func (p *Product) HasHairType(hairType string) bool {
	return containsFold(p.HairTypes, hairType)
}

func containsFold(values []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), want) {
			return true
		}
	}
	return false
}
