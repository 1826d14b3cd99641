package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nefol/discovery/pkg/slug"
)

// Candidate paths, highest priority first. A path is a dot-separated list of
// object keys; a segment may end in [n] to index into an array.
var (
	idPaths          = []string{"id", "_id", "product_id", "slug"}
	titlePaths       = []string{"title", "name"}
	descriptionPaths = []string{"description", "details.description", "short_description"}
	categoryPaths    = []string{"category", "category_name", "details.category"}
	brandPaths       = []string{"brand", "brand_name"}
	pricePaths       = []string{"price", "details.website_price", "website_price", "details.mrp", "mrp"}
	imagePaths       = []string{"image", "image_url", "main_image", "images[0]", "thumbnail", "list_image"}
	ingredientPaths  = []string{"ingredients", "details.ingredients", "tags.ingredients"}
	skinTypePaths    = []string{"skin_type", "skin_types", "details.skin_type"}
	hairTypePaths    = []string{"hair_type", "hair_types", "details.hair_type"}
	createdAtPaths   = []string{"created_at", "createdAt", "date"}
	mrpPaths         = []string{"details.mrp", "mrp"}
	websitePaths     = []string{"details.website_price", "website_price"}
	discountPaths    = []string{"details.discount_percent", "discount_percent", "details.discount"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeProduct resolves a loosely shaped catalog record into a Product.
// For every field the first non-empty candidate path wins. Malformed values
// degrade to zero values; only a record with neither id nor title is rejected.
func NormalizeProduct(raw map[string]any) (Product, error) {
	p := Product{
		ID:          firstString(raw, idPaths),
		Title:       strings.TrimSpace(firstString(raw, titlePaths)),
		Description: strings.TrimSpace(firstString(raw, descriptionPaths)),
		Category:    strings.TrimSpace(firstString(raw, categoryPaths)),
		Brand:       strings.TrimSpace(firstString(raw, brandPaths)),
		Price:       firstString(raw, pricePaths),
		ImageURL:    firstString(raw, imagePaths),
		Ingredients: firstTags(raw, ingredientPaths),
		SkinTypes:   firstTags(raw, skinTypePaths),
		HairTypes:   firstTags(raw, hairTypePaths),
		CreatedAt:   firstTime(raw, createdAtPaths),
	}

	if p.ID == "" && p.Title == "" {
		return Product{}, fmt.Errorf("%w: record has neither id nor title", ErrInvalidProduct)
	}
	if p.ID == "" {
		p.ID = slug.Generate(p.Title)
	}

	mrp := firstString(raw, mrpPaths)
	website := firstString(raw, websitePaths)
	discount := ParsePrice(firstString(raw, discountPaths))
	if mrp != "" || website != "" || discount > 0 {
		p.Pricing = &PricingDetail{MRP: mrp, WebsitePrice: website, DiscountPercent: discount}
	}

	return p, nil
}

// NormalizeProducts normalizes a batch, skipping records that cannot be
// normalized. The number of skipped records is returned alongside.
func NormalizeProducts(raws []map[string]any) ([]Product, int) {
	out := make([]Product, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		p, err := NormalizeProduct(raw)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, p)
	}
	return out, skipped
}

func firstString(raw map[string]any, paths []string) string {
	for _, path := range paths {
		if s := stringValue(lookup(raw, path)); s != "" {
			return s
		}
	}
	return ""
}

func firstTags(raw map[string]any, paths []string) []string {
	for _, path := range paths {
		if tags := tagValues(lookup(raw, path)); len(tags) > 0 {
			return tags
		}
	}
	return nil
}

func firstTime(raw map[string]any, paths []string) time.Time {
	for _, path := range paths {
		if t := timeValue(lookup(raw, path)); !t.IsZero() {
			return t.UTC()
		}
	}
	return time.Time{}
}

// lookup walks a dotted path through nested maps and arrays.
func lookup(raw map[string]any, path string) any {
	var cur any = raw
	for _, seg := range strings.Split(path, ".") {
		key, idx := seg, -1
		if open := strings.IndexByte(seg, '['); open >= 0 && strings.HasSuffix(seg, "]") {
			n, err := strconv.Atoi(seg[open+1 : len(seg)-1])
			if err != nil {
				return nil
			}
			key, idx = seg[:open], n
		}

		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = obj[key]
		if !ok {
			return nil
		}

		if idx >= 0 {
			arr, ok := cur.([]any)
			if !ok || idx >= len(arr) {
				return nil
			}
			cur = arr[idx]
		}
	}
	return cur
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]any:
		// Image blocks are sometimes objects with a url field.
		if u, ok := t["url"].(string); ok {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

func tagValues(v any) []string {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			parts = append(parts, stringValue(item))
		}
	case []string:
		parts = t
	}

	var tags []string
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

func timeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return ts
			}
		}
	case float64:
		if t > 0 {
			return time.Unix(int64(t), 0)
		}
	}
	return time.Time{}
}
