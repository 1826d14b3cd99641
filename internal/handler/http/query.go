package http

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nefol/discovery/internal/domain"
	apperrors "github.com/nefol/discovery/pkg/errors"
	"github.com/nefol/discovery/pkg/pagination"
)

var pageLimits = pagination.Limits{
	DefaultPerPage: domain.DefaultPerPage,
	MaxPerPage:     domain.MaxPerPage,
	MaxPage:        domain.MaxPage,
}

// parseSearchQuery builds a SearchQuery from the search endpoint's query
// string. Malformed parameters yield an INVALID_PARAMETER AppError.
func parseSearchQuery(values url.Values) (*domain.SearchQuery, error) {
	query := &domain.SearchQuery{Query: strings.TrimSpace(values.Get("q"))}
	fs := &query.Filters

	fs.Category = optionalString(values, "category")
	fs.SkinType = optionalString(values, "skin_type")
	fs.HairType = optionalString(values, "hair_type")
	fs.Ingredients = listParam(values, "ingredients")

	var err error
	if fs.MinPrice, err = priceParam(values, "min_price"); err != nil {
		return nil, err
	}
	if fs.MaxPrice, err = priceParam(values, "max_price"); err != nil {
		return nil, err
	}
	if fs.MinPrice != nil && fs.MaxPrice != nil && *fs.MinPrice > *fs.MaxPrice {
		return nil, apperrors.InvalidParameter("min_price", "must not exceed max_price")
	}

	if v := strings.TrimSpace(values.Get("sort")); v != "" {
		if !domain.IsValidSortKey(v) {
			return nil, apperrors.InvalidParameter("sort", "must be one of: relevance, price, title, category, created_at")
		}
		fs.SortKey = domain.SortKey(v)
	}
	if v := strings.ToLower(strings.TrimSpace(values.Get("direction"))); v != "" {
		if !domain.IsValidSortDirection(v) {
			return nil, apperrors.InvalidParameter("direction", "must be asc or desc")
		}
		fs.SortDirection = domain.SortDirection(v)
	}

	page, err := pagination.FromQuery(values, pageLimits)
	if err != nil {
		name, msg, _ := strings.Cut(err.Error(), ": ")
		return nil, apperrors.InvalidParameter(name, msg)
	}
	query.Page, query.PerPage = page.Page, page.PerPage

	return query, nil
}

func optionalString(values url.Values, name string) *string {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return nil
	}
	return &v
}

// listParam accepts both repeated parameters and comma-separated values.
func listParam(values url.Values, name string) []string {
	var out []string
	for _, raw := range values[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func priceParam(values url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.InvalidParameter(name, "must be a valid number")
	}
	if v < 0 {
		return nil, apperrors.InvalidParameter(name, "must not be negative")
	}
	return &v, nil
}
