package domain

import "github.com/nefol/discovery/pkg/pagination"

// Pagination defaults shared by the engines and the HTTP layer.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	// MaxPage keeps page offsets far from integer overflow.
	MaxPage = 1 << 20
)

// SearchQuery holds all parameters for a discovery request.
type SearchQuery struct {
	Query   string      `json:"query"`
	Filters FilterState `json:"filters"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}

// Clamp applies the pagination defaults and bounds.
func (q *SearchQuery) Clamp() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
}

// SearchResult holds one ranked, filtered page of products.
type SearchResult struct {
	Products    []Product    `json:"products"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	PerPage     int          `json:"per_page"`
	TotalPages  int          `json:"total_pages"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Popular     []string     `json:"popular,omitempty"`
	TookMs      int64        `json:"took_ms"`
}

// TotalPages computes the page count for total results at perPage.
func TotalPages(total, perPage int) int {
	return pagination.TotalPages(total, perPage)
}

// Paginate returns the slice bounds of the given page. Pages past the end
// yield an empty range at total; the offset is never computed for them.
func Paginate(total, page, perPage int) (start, end int) {
	if total <= 0 || perPage < 1 {
		return 0, 0
	}
	page = max(page, 1)
	if page-1 > total/perPage {
		return total, total
	}
	start = min((page-1)*perPage, total)
	end = start + min(perPage, total-start)
	return start, end
}

// FacetCount is one distinct facet value with the number of products carrying it.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PriceStats summarizes the parsed catalog prices.
type PriceStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// FacetSummary is the payload used to populate filter controls.
type FacetSummary struct {
	Categories  []FacetCount `json:"categories"`
	Price       PriceStats   `json:"price"`
	Ingredients []FacetCount `json:"ingredients"`
	SkinTypes   []FacetCount `json:"skin_types"`
	HairTypes   []FacetCount `json:"hair_types"`
	Total       int          `json:"total"`
}
