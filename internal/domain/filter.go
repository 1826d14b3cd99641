package domain

import (
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the field results are ordered by.
type SortKey string

// Sort keys accepted by the ranker.
const (
	SortRelevance SortKey = "relevance"
	SortPrice     SortKey = "price"
	SortTitle     SortKey = "title"
	SortCategory  SortKey = "category"
	SortCreatedAt SortKey = "created_at"
)

// SortDirection is the direction applied to non-relevance sort keys.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ValidSortKeys returns the list of valid sort keys.
func ValidSortKeys() []SortKey {
	return []SortKey{SortRelevance, SortPrice, SortTitle, SortCategory, SortCreatedAt}
}

// IsValidSortKey checks whether the given string is a valid sort key.
func IsValidSortKey(key string) bool {
	return slices.Contains(ValidSortKeys(), SortKey(key))
}

// IsValidSortDirection checks whether the given string is a valid direction.
func IsValidSortDirection(dir string) bool {
	return dir == string(SortAsc) || dir == string(SortDesc)
}

// FilterState is the user-owned facet and sort selection. It is independent
// of the query text: resetting one never touches the other.
type FilterState struct {
	Category      *string       `json:"category,omitempty"`
	MinPrice      *float64      `json:"min_price,omitempty"`
	MaxPrice      *float64      `json:"max_price,omitempty"`
	Ingredients   []string      `json:"ingredients,omitempty"`
	SkinType      *string       `json:"skin_type,omitempty"`
	HairType      *string       `json:"hair_type,omitempty"`
	SortKey       SortKey       `json:"sort,omitempty"`
	SortDirection SortDirection `json:"direction,omitempty"`
}

// Validate checks the FilterState invariants.
func (f *FilterState) Validate() error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return fmt.Errorf("%w: min_price must not be negative", ErrInvalidFilter)
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return fmt.Errorf("%w: max_price must not be negative", ErrInvalidFilter)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return fmt.Errorf("%w: min_price must not exceed max_price", ErrInvalidFilter)
	}
	if f.SortKey != "" && !IsValidSortKey(string(f.SortKey)) {
		return fmt.Errorf("%w: unknown sort key %q", ErrInvalidFilter, f.SortKey)
	}
	if f.SortDirection != "" && !IsValidSortDirection(string(f.SortDirection)) {
		return fmt.Errorf("%w: unknown sort direction %q", ErrInvalidFilter, f.SortDirection)
	}
	return nil
}

// Normalized returns a copy with defaults applied, blank facets dropped and
// ingredient tags trimmed and deduplicated.
func (f FilterState) Normalized() FilterState {
	out := FilterState{
		Category:      blankToNil(f.Category),
		MinPrice:      f.MinPrice,
		MaxPrice:      f.MaxPrice,
		SkinType:      blankToNil(f.SkinType),
		HairType:      blankToNil(f.HairType),
		SortKey:       f.SortKey,
		SortDirection: f.SortDirection,
	}
	if out.SortKey == "" {
		out.SortKey = SortRelevance
	}
	if out.SortDirection == "" {
		out.SortDirection = SortAsc
	}

	seen := make(map[string]struct{}, len(f.Ingredients))
	for _, tag := range f.Ingredients {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Ingredients = append(out.Ingredients, tag)
	}
	return out
}

// HasFacets reports whether any narrowing facet is active.
func (f *FilterState) HasFacets() bool {
	return f.Category != nil || f.MinPrice != nil || f.MaxPrice != nil ||
		len(f.Ingredients) > 0 || f.SkinType != nil || f.HairType != nil
}

// Reset clears every facet and the sort selection.
func (f *FilterState) Reset() {
	*f = FilterState{}
}

// Clone returns a deep copy.
func (f FilterState) Clone() FilterState {
	out := f
	out.Category = clonePtr(f.Category)
	out.MinPrice = clonePtr(f.MinPrice)
	out.MaxPrice = clonePtr(f.MaxPrice)
	out.SkinType = clonePtr(f.SkinType)
	out.HairType = clonePtr(f.HairType)
	out.Ingredients = slices.Clone(f.Ingredients)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
