// Package catalog loads the product catalog the discovery engines index.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nefol/discovery/internal/domain"
)

// ErrNotFound is returned by a Fetcher for an unknown product.
var ErrNotFound = errors.New("catalog: product not found")

// Source yields the full catalog in catalog order.
type Source interface {
	Load(ctx context.Context) ([]domain.Product, error)
}

// Fetcher is implemented by sources that can look up a single product.
type Fetcher interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// FileSource reads a JSON catalog export from disk. The document may be an
// array of product records or an object wrapping one under "products" or
// "data" (optionally "data.products").
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// Load reads and normalizes the catalog file.
func (s *FileSource) Load(_ context.Context) ([]domain.Product, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}

	raws, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", s.path, err)
	}

	products, skipped := domain.NormalizeProducts(raws)
	if skipped > 0 {
		s.logger.Warn("skipped catalog records without id or title",
			slog.String("path", s.path),
			slog.Int("skipped", skipped),
		)
	}
	return products, nil
}

// DecodeRecords extracts raw product records from a catalog document.
func DecodeRecords(data []byte) ([]map[string]any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	list, ok := findList(doc)
	if !ok {
		return nil, fmt.Errorf("%w: no product list found", domain.ErrMalformedResponse)
	}

	raws := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			raws = append(raws, obj)
		}
	}
	return raws, nil
}

func findList(doc any) ([]any, bool) {
	switch v := doc.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, key := range []string{"products", "data", "items"} {
			if inner, ok := v[key]; ok {
				if list, ok := findList(inner); ok {
					return list, true
				}
			}
		}
	}
	return nil, false
}

// StaticSource serves a fixed product list.
type StaticSource []domain.Product

// Load returns the fixed list.
func (s StaticSource) Load(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(s))
	copy(out, s)
	return out, nil
}
