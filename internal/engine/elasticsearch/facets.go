package elasticsearch

import (
	"context"

	"github.com/nefol/discovery/internal/domain"
)

type esFacetsResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
	} `json:"hits"`
	Aggregations struct {
		Categories struct {
			Buckets []labelledBucket `json:"buckets"`
		} `json:"categories"`
		Priced struct {
			Stats struct {
				Count int      `json:"count"`
				Min   *float64 `json:"min"`
				Max   *float64 `json:"max"`
				Avg   *float64 `json:"avg"`
			} `json:"stats"`
		} `json:"priced"`
		Ingredients termsAgg `json:"ingredients"`
		SkinTypes   termsAgg `json:"skin_types"`
		HairTypes   termsAgg `json:"hair_types"`
	} `json:"aggregations"`
}

type termsAgg struct {
	Buckets []struct {
		Key      string `json:"key"`
		DocCount int    `json:"doc_count"`
	} `json:"buckets"`
}

func (a termsAgg) counts() []domain.FacetCount {
	out := make([]domain.FacetCount, 0, len(a.Buckets))
	for _, b := range a.Buckets {
		out = append(out, domain.FacetCount{Value: b.Key, Count: b.DocCount})
	}
	return out
}

// Facets summarizes the whole catalog with aggregations. Only prices that
// parse to a positive amount contribute to the price statistics.
func (e *Engine) Facets(ctx context.Context) (*domain.FacetSummary, error) {
	body := map[string]interface{}{
		"size":             0,
		"track_total_hits": true,
		"aggs": map[string]interface{}{
			"categories": labelledTerms("category.norm", "category", nil),
			"priced": map[string]interface{}{
				"filter": map[string]interface{}{
					"range": map[string]interface{}{"price_value": map[string]interface{}{"gt": 0}},
				},
				"aggs": map[string]interface{}{
					"stats": map[string]interface{}{"stats": map[string]interface{}{"field": "price_value"}},
				},
			},
			"ingredients": tagTerms("ingredients"),
			"skin_types":  tagTerms("skin_types"),
			"hair_types":  tagTerms("hair_types"),
		},
	}

	var esResp esFacetsResponse
	if err := e.search(ctx, "elasticsearch facets", body, &esResp); err != nil {
		return nil, err
	}

	aggs := esResp.Aggregations
	categories := make([]domain.FacetCount, 0, len(aggs.Categories.Buckets))
	for _, b := range aggs.Categories.Buckets {
		categories = append(categories, domain.FacetCount{Value: b.label("category"), Count: b.DocCount})
	}

	var price domain.PriceStats
	if s := aggs.Priced.Stats; s.Count > 0 {
		price = domain.PriceStats{Min: deref(s.Min), Max: deref(s.Max), Avg: deref(s.Avg)}
	}

	return &domain.FacetSummary{
		Categories:  categories,
		Price:       price,
		Ingredients: aggs.Ingredients.counts(),
		SkinTypes:   aggs.SkinTypes.counts(),
		HairTypes:   aggs.HairTypes.counts(),
		Total:       esResp.Hits.Total.Value,
	}, nil
}

func tagTerms(field string) map[string]interface{} {
	return map[string]interface{}{
		"terms": map[string]interface{}{
			"field": field,
			"size":  500,
			"order": []interface{}{
				map[string]interface{}{"_count": "desc"},
				map[string]interface{}{"_key": "asc"},
			},
		},
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
