// Package taxonomy maps ingredient and benefit terms onto the keywords
// catalog products actually use, so a query for "vitamin c" can reach a
// product titled "Brightening Serum".
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

// ErrInvalidTaxonomy is returned when a taxonomy document breaks the key invariants.
var ErrInvalidTaxonomy = errors.New("invalid taxonomy")

// Entry is one taxonomy key with its related keyword tokens, in order.
type Entry struct {
	Key      string   `yaml:"key"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy is an immutable, ordered keyword table. It is safe for concurrent use.
type Taxonomy struct {
	entries []Entry
}

// New builds a Taxonomy from entries. Keys and keywords are lowercased and
// trimmed; keys must be unique and non-empty. Duplicate keywords within an
// entry are dropped.
func New(entries []Entry) (*Taxonomy, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))

	for i, e := range entries {
		key := normalize(e.Key)
		if key == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty key", ErrInvalidTaxonomy, i)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidTaxonomy, key)
		}
		seen[key] = struct{}{}

		keywords := dedupe(e.Keywords)
		if len(keywords) == 0 {
			return nil, fmt.Errorf("%w: key %q has no keywords", ErrInvalidTaxonomy, key)
		}
		out = append(out, Entry{Key: key, Keywords: keywords})
	}

	return &Taxonomy{entries: out}, nil
}

// Parse decodes a YAML taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	return New(entries)
}

// Load reads a taxonomy document from path.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy %s: %w", path, err)
	}
	return t, nil
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded default is invalid: %v", err))
	}
	return t
}

// LoadOrDefault loads path when it is set and falls back to the built-in table otherwise.
func LoadOrDefault(path string) (*Taxonomy, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// Keys returns every key in table order.
func (t *Taxonomy) Keys() []string {
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.Key
	}
	return keys
}

// Keywords returns the keywords of an exact key, nil when the key is unknown.
func (t *Taxonomy) Keywords(key string) []string {
	key = normalize(key)
	for _, e := range t.entries {
		if e.Key == key {
			return append([]string(nil), e.Keywords...)
		}
	}
	return nil
}

// ActivatedKeys returns the keys activated by query: a key is activated when
// it contains the query or the query contains it. An empty query activates
// nothing.
func (t *Taxonomy) ActivatedKeys(query string) []string {
	q := normalize(query)
	if q == "" {
		return nil
	}
	var keys []string
	for _, e := range t.entries {
		if strings.Contains(e.Key, q) || strings.Contains(q, e.Key) {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// KeysContaining returns the keys that contain query as a substring.
func (t *Taxonomy) KeysContaining(query string) []string {
	q := normalize(query)
	if q == "" {
		return nil
	}
	var keys []string
	for _, e := range t.entries {
		if strings.Contains(e.Key, q) {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// RelatedKeywords returns the ordered union of the keywords of every key
// activated by term. Unknown terms yield an empty result.
func (t *Taxonomy) RelatedKeywords(term string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, key := range t.ActivatedKeys(term) {
		for _, kw := range t.Keywords(key) {
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

// Len returns the number of keys.
func (t *Taxonomy) Len() int {
	return len(t.entries)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
