// Package match decides whether a product answers a free-text query.
package match

import (
	"strings"

	"github.com/nefol/discovery/internal/domain"
)

// KeywordSource resolves a query into related catalog keywords.
type KeywordSource interface {
	RelatedKeywords(term string) []string
}

// Matcher applies the text predicate: a case-insensitive substring of the
// query in title, description or category, or any related keyword in title
// or description.
type Matcher struct {
	keywords KeywordSource
}

// New creates a Matcher. A nil source disables keyword expansion.
func New(keywords KeywordSource) *Matcher {
	return &Matcher{keywords: keywords}
}

// Matches reports whether p matches query. An empty query matches everything.
func (m *Matcher) Matches(p *domain.Product, query string) bool {
	return m.Compile(query).Matches(p)
}

// Filter returns the products matching query, preserving input order.
func (m *Matcher) Filter(products []domain.Product, query string) []domain.Product {
	c := m.Compile(query)
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if c.Matches(&products[i]) {
			out = append(out, products[i])
		}
	}
	return out
}

// Compile resolves query once so it can be tested against many products.
func (m *Matcher) Compile(query string) Compiled {
	q := strings.ToLower(strings.TrimSpace(query))
	c := Compiled{query: q}
	if q != "" && m != nil && m.keywords != nil {
		for _, kw := range m.keywords.RelatedKeywords(q) {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				c.keywords = append(c.keywords, kw)
			}
		}
	}
	return c
}

// Compiled is a query with its related keywords already resolved.
type Compiled struct {
	query    string
	keywords []string
}

// Query returns the lowercased, trimmed query text.
func (c Compiled) Query() string {
	return c.query
}

// Keywords returns the related keywords the query expanded to.
func (c Compiled) Keywords() []string {
	return c.keywords
}

// Matches reports whether p satisfies the compiled query.
func (c Compiled) Matches(p *domain.Product) bool {
	if c.query == "" {
		return true
	}
	if p == nil {
		return false
	}

	title := strings.ToLower(p.Title)
	description := strings.ToLower(p.Description)

	if strings.Contains(title, c.query) ||
		strings.Contains(description, c.query) ||
		strings.Contains(strings.ToLower(p.Category), c.query) {
		return true
	}

	for _, kw := range c.keywords {
		if strings.Contains(title, kw) || strings.Contains(description, kw) {
			return true
		}
	}
	return false
}
