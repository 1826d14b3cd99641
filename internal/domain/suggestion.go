package domain

// SuggestionType identifies what selecting a suggestion does.
type SuggestionType string

// Suggestion types, in the order the generator emits them.
const (
	SuggestionProduct    SuggestionType = "product"
	SuggestionCategory   SuggestionType = "category"
	SuggestionIngredient SuggestionType = "ingredient"
)

// Suggestion is one autocomplete candidate for a partial query.
type Suggestion struct {
	Type      SuggestionType `json:"type"`
	Label     string         `json:"label"`
	Subtitle  string         `json:"subtitle,omitempty"`
	Count     int            `json:"count"`
	ProductID string         `json:"product_id,omitempty"`
}

// Navigates reports whether selecting the suggestion opens a product page
// instead of re-running the search.
func (s Suggestion) Navigates() bool {
	return s.Type == SuggestionProduct
}
