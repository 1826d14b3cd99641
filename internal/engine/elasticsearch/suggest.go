package elasticsearch

import (
	"context"
	"strings"

	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/suggest"
)

// suggestProductHits bounds the title hits fetched per request; duplicates
// are dropped before the product cap applies.
const suggestProductHits = 20

// esSuggestResponse is the structure used to decode the suggestion request.
type esSuggestResponse struct {
	Hits struct {
		Hits []struct {
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Categories struct {
			Matching struct {
				Values struct {
					Buckets []labelledBucket `json:"buckets"`
				} `json:"values"`
			} `json:"matching"`
		} `json:"categories"`
		Terms struct {
			Keys struct {
				Buckets map[string]struct {
					DocCount int `json:"doc_count"`
				} `json:"buckets"`
			} `json:"keys"`
		} `json:"terms"`
	} `json:"aggregations"`
}

// labelledBucket is a terms bucket on a normalized field whose display label
// comes from the first document in catalog order.
type labelledBucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
	Label    struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	} `json:"label"`
}

func (b labelledBucket) label(field string) string {
	if len(b.Label.Hits.Hits) > 0 {
		if s, ok := b.Label.Hits.Hits[0].Source[field].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return b.Key
}

// Suggest returns autocomplete suggestions for a partial query. Title hits,
// category counts and taxonomy term counts come back from a single request;
// the caps and ordering are shared with the in-memory engine.
func (e *Engine) Suggest(ctx context.Context, partial string) ([]domain.Suggestion, error) {
	if !e.generator.Eligible(partial) {
		return []domain.Suggestion{}, nil
	}
	q := lower(partial)
	terms := e.generator.Terms(q)

	body := buildSuggestQuery(q, terms)

	var esResp esSuggestResponse
	if err := e.search(ctx, "elasticsearch suggest", body, &esResp); err != nil {
		return nil, err
	}

	var c suggest.Candidates
	for _, hit := range esResp.Hits.Hits {
		p := hit.Source.Product
		c.Products = append(c.Products, suggest.ProductSuggestion(&p))
	}
	for _, b := range esResp.Aggregations.Categories.Matching.Values.Buckets {
		c.Categories = append(c.Categories, suggest.CategorySuggestion(b.label("category"), b.DocCount))
	}
	buckets := esResp.Aggregations.Terms.Keys.Buckets
	for _, term := range terms {
		c.Ingredients = append(c.Ingredients, suggest.IngredientSuggestion(term.Key, buckets[term.Key].DocCount))
	}

	return e.generator.Assemble(c), nil
}

func buildSuggestQuery(q string, terms []suggest.Term) map[string]interface{} {
	aggs := map[string]interface{}{
		"categories": map[string]interface{}{
			"global": map[string]interface{}{},
			"aggs": map[string]interface{}{
				"matching": map[string]interface{}{
					"filter": wildcard("search_category", q),
					"aggs": map[string]interface{}{
						"values": labelledTerms("category.norm", "category", map[string]interface{}{"first": "asc"}),
					},
				},
			},
		},
	}

	if len(terms) > 0 {
		named := make(map[string]interface{}, len(terms))
		for _, t := range terms {
			var should []interface{}
			for _, kw := range t.Keywords {
				should = append(should, wildcard("search_title", kw), wildcard("search_description", kw))
			}
			named[t.Key] = map[string]interface{}{
				"bool": map[string]interface{}{"should": should, "minimum_should_match": 1},
			}
		}
		aggs["terms"] = map[string]interface{}{
			"global": map[string]interface{}{},
			"aggs": map[string]interface{}{
				"keys": map[string]interface{}{
					"filters": map[string]interface{}{"filters": named},
				},
			},
		}
	}

	return map[string]interface{}{
		"query":   wildcard("search_title", q),
		"size":    suggestProductHits,
		"sort":    []interface{}{map[string]interface{}{"position": "asc"}},
		"_source": []string{"id", "title", "category"},
		"aggs":    aggs,
	}
}

// labelledTerms builds a terms aggregation on a normalized field with the
// catalog-first original spelling as its label and the minimum position as
// the "first" metric.
func labelledTerms(field, labelField string, order map[string]interface{}) map[string]interface{} {
	terms := map[string]interface{}{
		"field": field,
		"size":  500,
	}
	if order != nil {
		terms["order"] = order
	}
	return map[string]interface{}{
		"terms": terms,
		"aggs": map[string]interface{}{
			"first": map[string]interface{}{
				"min": map[string]interface{}{"field": "position"},
			},
			"label": map[string]interface{}{
				"top_hits": map[string]interface{}{
					"size":    1,
					"sort":    []interface{}{map[string]interface{}{"position": "asc"}},
					"_source": []string{labelField},
				},
			},
		},
	}
}
