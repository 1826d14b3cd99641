package elasticsearch

import (
	"strings"

	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/match"
)

// Constant scores for the relevance tiers. An exact title hit also matches
// the containment clause, so exact titles score 3, partial titles 1, others 0.
const (
	exactTitleBoost   = 2.0
	partialTitleBoost = 1.0
)

// maxResultWindow is the index.max_result_window default. Pages reaching
// past it only count hits.
const maxResultWindow = 10000

// buildSearchQuery constructs the Elasticsearch query DSL as a map.
func buildSearchQuery(compiled match.Compiled, query *domain.SearchQuery) map[string]interface{} {
	filters := buildFilters(&query.Filters)
	if compiled.Query() != "" {
		filters = append([]interface{}{buildTextClause(compiled)}, filters...)
	}

	boolQuery := map[string]interface{}{
		"filter": filters,
	}

	relevance := query.Filters.SortKey == domain.SortRelevance || query.Filters.SortKey == ""
	if relevance && compiled.Query() != "" {
		boolQuery["should"] = buildTierClauses(compiled.Query())
	}

	from, size := pageWindow(query.Page, query.PerPage)

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"sort":             buildSort(query.Filters.SortKey, query.Filters.SortDirection, compiled.Query() != ""),
		"from":             from,
		"size":             size,
		"track_total_hits": true,
	}
}

// pageWindow returns the from/size pair of a clamped page.
func pageWindow(page, perPage int) (from, size int) {
	page, perPage = max(page, 1), max(perPage, 1)
	if page-1 >= maxResultWindow/perPage {
		return 0, 0
	}
	from = (page - 1) * perPage
	if from+perPage > maxResultWindow {
		return 0, 0
	}
	return from, perPage
}

// buildTextClause is the matching predicate: the query as a substring of
// title, description or category, or any related keyword as a substring of
// title or description.
func buildTextClause(compiled match.Compiled) map[string]interface{} {
	q := compiled.Query()
	should := []interface{}{
		wildcard("search_title", q),
		wildcard("search_description", q),
		wildcard("search_category", q),
	}
	for _, kw := range compiled.Keywords() {
		should = append(should, wildcard("search_title", kw), wildcard("search_description", kw))
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}

func buildTierClauses(q string) []interface{} {
	return []interface{}{
		map[string]interface{}{
			"constant_score": map[string]interface{}{
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"search_title": q},
				},
				"boost": exactTitleBoost,
			},
		},
		map[string]interface{}{
			"constant_score": map[string]interface{}{
				"filter": wildcard("search_title", q),
				"boost":  partialTitleBoost,
			},
		},
	}
}

// buildFilters constructs the facet filter clauses. Facets are ANDed.
func buildFilters(fs *domain.FilterState) []interface{} {
	filters := []interface{}{}

	if fs.Category != nil {
		filters = append(filters, term("category.norm", *fs.Category))
	}

	if fs.MinPrice != nil || fs.MaxPrice != nil {
		rangeFilter := map[string]interface{}{"gte": 0.0}
		if fs.MinPrice != nil {
			rangeFilter["gte"] = *fs.MinPrice
		}
		if fs.MaxPrice != nil {
			rangeFilter["lte"] = *fs.MaxPrice
		}
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{
				"price_value": rangeFilter,
			},
		})
	}

	if len(fs.Ingredients) > 0 {
		values := make([]string, len(fs.Ingredients))
		for i, v := range fs.Ingredients {
			values[i] = lower(v)
		}
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{"ingredients.norm": values},
		})
	}

	if fs.SkinType != nil {
		filters = append(filters, term("skin_types.norm", *fs.SkinType))
	}
	if fs.HairType != nil {
		filters = append(filters, term("hair_types.norm", *fs.HairType))
	}

	return filters
}

// buildSort constructs the sort clause. Catalog position is always the last
// key so equal values keep catalog order in either direction.
func buildSort(key domain.SortKey, dir domain.SortDirection, hasQuery bool) []interface{} {
	order := string(domain.SortAsc)
	if dir == domain.SortDesc {
		order = string(domain.SortDesc)
	}
	byPosition := map[string]interface{}{"position": "asc"}

	var field string
	switch key {
	case domain.SortPrice:
		field = "price_value"
	case domain.SortTitle:
		field = "title.sort"
	case domain.SortCategory:
		field = "category.norm"
	case domain.SortCreatedAt:
		field = "created_at"
	default:
		if hasQuery {
			return []interface{}{map[string]interface{}{"_score": "desc"}, byPosition}
		}
		return []interface{}{byPosition}
	}

	return []interface{}{
		map[string]interface{}{field: map[string]interface{}{"order": order, "missing": missingFor(order)}},
		byPosition,
	}
}

// missingFor places documents without a value where a zero value would sort.
func missingFor(order string) string {
	if order == string(domain.SortDesc) {
		return "_last"
	}
	return "_first"
}

func wildcard(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{"value": "*" + escapeWildcard(value) + "*"},
		},
	}
}

func term(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{field: lower(value)},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
