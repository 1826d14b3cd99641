// Package suggest produces autocomplete candidates for a partial query from
// product titles, categories and the ingredient taxonomy.
package suggest

import (
	"strings"
	"unicode/utf8"

	"github.com/nefol/discovery/internal/domain"
)

// Default caps per suggestion type and overall.
const (
	DefaultMaxProducts   = 5
	DefaultMaxCategories = 3
	DefaultMaxTotal      = 8
)

// Taxonomy is the subset of the ingredient taxonomy the generator needs.
type Taxonomy interface {
	KeysContaining(query string) []string
	Keywords(key string) []string
}

// Config holds the generator thresholds.
type Config struct {
	// MinLength is the number of characters a partial query needs before any
	// suggestion is produced.
	MinLength     int
	MaxProducts   int
	MaxCategories int
	MaxTotal      int
}

func (c Config) withDefaults() Config {
	if c.MinLength < 1 {
		c.MinLength = 1
	}
	if c.MaxProducts <= 0 {
		c.MaxProducts = DefaultMaxProducts
	}
	if c.MaxCategories <= 0 {
		c.MaxCategories = DefaultMaxCategories
	}
	if c.MaxTotal <= 0 {
		c.MaxTotal = DefaultMaxTotal
	}
	return c
}

// Generator emits suggestions in a fixed order: products, categories, then
// taxonomy terms, capped per type and overall.
type Generator struct {
	taxonomy Taxonomy
	cfg      Config
}

// New creates a Generator. A nil taxonomy disables ingredient suggestions.
func New(taxonomy Taxonomy, cfg Config) *Generator {
	return &Generator{taxonomy: taxonomy, cfg: cfg.withDefaults()}
}

// MinLength returns the configured trigger threshold.
func (g *Generator) MinLength() int {
	return g.cfg.MinLength
}

// Eligible reports whether partial is long enough to produce suggestions.
func (g *Generator) Eligible(partial string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(partial)) >= g.cfg.MinLength
}

// Candidates are uncapped suggestion candidates per type, each slice in the
// order it should be presented.
type Candidates struct {
	Products    []domain.Suggestion
	Categories  []domain.Suggestion
	Ingredients []domain.Suggestion
}

// Term is a taxonomy key that may become an ingredient suggestion.
type Term struct {
	Key      string
	Keywords []string
}

// Terms returns the taxonomy keys containing partial with their keywords.
func (g *Generator) Terms(partial string) []Term {
	if g.taxonomy == nil {
		return nil
	}
	var terms []Term
	for _, key := range g.taxonomy.KeysContaining(partial) {
		terms = append(terms, Term{Key: key, Keywords: g.taxonomy.Keywords(key)})
	}
	return terms
}

// Suggest returns the suggestions for partial over catalog. Below the
// threshold the result is empty.
func (g *Generator) Suggest(catalog []domain.Product, partial string) []domain.Suggestion {
	if !g.Eligible(partial) {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(partial))

	return g.Assemble(Candidates{
		Products:    productCandidates(catalog, q),
		Categories:  categoryCandidates(catalog, q),
		Ingredients: g.ingredientCandidates(catalog, q),
	})
}

// Assemble applies the per-type caps, drops duplicate (type, label) pairs and
// ingredient terms with no products, and caps the total. Products come first,
// then categories, then ingredients.
func (g *Generator) Assemble(c Candidates) []domain.Suggestion {
	out := newCollector(g.cfg.MaxTotal)
	out.addAll(c.Products, g.cfg.MaxProducts)
	out.addAll(c.Categories, g.cfg.MaxCategories)

	ingredients := make([]domain.Suggestion, 0, len(c.Ingredients))
	for _, s := range c.Ingredients {
		if s.Count > 0 {
			ingredients = append(ingredients, s)
		}
	}
	out.addAll(ingredients, g.cfg.MaxTotal)
	return out.items
}

// ProductSuggestion builds the suggestion for a product whose title matched.
func ProductSuggestion(p *domain.Product) domain.Suggestion {
	return domain.Suggestion{
		Type:      domain.SuggestionProduct,
		Label:     strings.TrimSpace(p.Title),
		Subtitle:  p.Category,
		Count:     1,
		ProductID: p.ID,
	}
}

// CategorySuggestion builds the suggestion for a matching category.
func CategorySuggestion(label string, count int) domain.Suggestion {
	return domain.Suggestion{
		Type:     domain.SuggestionCategory,
		Label:    strings.TrimSpace(label),
		Subtitle: "Category",
		Count:    count,
	}
}

// IngredientSuggestion builds the suggestion for a taxonomy key.
func IngredientSuggestion(key string, count int) domain.Suggestion {
	return domain.Suggestion{
		Type:     domain.SuggestionIngredient,
		Label:    key,
		Subtitle: "Ingredient",
		Count:    count,
	}
}

func productCandidates(catalog []domain.Product, q string) []domain.Suggestion {
	var out []domain.Suggestion
	for i := range catalog {
		if strings.Contains(strings.ToLower(catalog[i].Title), q) {
			out = append(out, ProductSuggestion(&catalog[i]))
		}
	}
	return out
}

// categoryCandidates returns distinct categories containing q in order of
// first appearance, counted over the whole catalog.
func categoryCandidates(catalog []domain.Product, q string) []domain.Suggestion {
	var order []string
	labels := make(map[string]string)
	counts := make(map[string]int)
	for i := range catalog {
		label := strings.TrimSpace(catalog[i].Category)
		key := strings.ToLower(label)
		if key == "" {
			continue
		}
		if _, ok := labels[key]; !ok {
			labels[key] = label
			order = append(order, key)
		}
		counts[key]++
	}

	var out []domain.Suggestion
	for _, key := range order {
		if strings.Contains(key, q) {
			out = append(out, CategorySuggestion(labels[key], counts[key]))
		}
	}
	return out
}

func (g *Generator) ingredientCandidates(catalog []domain.Product, q string) []domain.Suggestion {
	var out []domain.Suggestion
	for _, term := range g.Terms(q) {
		out = append(out, IngredientSuggestion(term.Key, countMatching(catalog, term.Keywords)))
	}
	return out
}

// countMatching counts products whose title or description contains any keyword.
func countMatching(catalog []domain.Product, keywords []string) int {
	n := 0
	for i := range catalog {
		title := strings.ToLower(catalog[i].Title)
		description := strings.ToLower(catalog[i].Description)
		for _, kw := range keywords {
			if strings.Contains(title, kw) || strings.Contains(description, kw) {
				n++
				break
			}
		}
	}
	return n
}

type collector struct {
	max   int
	items []domain.Suggestion
	seen  map[string]struct{}
}

func newCollector(max int) *collector {
	return &collector{max: max, seen: make(map[string]struct{})}
}

// addAll adds up to limit new items from candidates.
func (c *collector) addAll(candidates []domain.Suggestion, limit int) {
	added := 0
	for _, s := range candidates {
		if added == limit || c.full() {
			return
		}
		if c.add(s) {
			added++
		}
	}
}

func (c *collector) full() bool {
	return len(c.items) >= c.max
}

// add appends s unless the list is full or the (type, label) pair was seen.
func (c *collector) add(s domain.Suggestion) bool {
	if c.full() || s.Label == "" {
		return false
	}
	key := string(s.Type) + "\x00" + strings.ToLower(s.Label)
	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}
	c.items = append(c.items, s)
	return true
}
