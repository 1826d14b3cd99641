package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nefol/discovery/internal/catalog"
	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/pkg/database"
)

// Source implements catalog.Source and catalog.Fetcher over the storefront's
// product table. Each row stores the raw product document as JSONB; the
// document is normalized the same way a file export is.
type Source struct {
	pool   database.DBTX
	logger *slog.Logger
}

// NewSource creates a new PostgreSQL-backed catalog source.
func NewSource(pool database.DBTX, logger *slog.Logger) *Source {
	return &Source{pool: pool, logger: logger}
}

const selectColumns = `SELECT id, document, created_at FROM catalog_products`

// Load reads every active product in catalog order.
func (s *Source) Load(ctx context.Context) (_ []domain.Product, err error) {
	query := selectColumns + ` WHERE is_active = TRUE ORDER BY sort_order ASC, created_at ASC`
	ctx, end := database.TraceQuery(ctx, "LoadCatalog", query)
	defer func() { end(err) }()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query catalog products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	skipped := 0
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidProduct) {
				skipped++
				continue
			}
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog products: %w", err)
	}

	if skipped > 0 {
		s.logger.Warn("skipped catalog rows that could not be normalized", slog.Int("skipped", skipped))
	}
	return products, nil
}

// Get reads a single product by ID.
func (s *Source) Get(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := selectColumns + ` WHERE id = $1 AND is_active = TRUE`
	ctx, end := database.TraceQuery(ctx, "GetCatalogProduct", query)
	defer func() { end(err) }()

	p, err := scanProduct(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		id        string
		document  []byte
		createdAt time.Time
	)
	if err := row.Scan(&id, &document, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("scan catalog product: %w", err)
	}

	raw := map[string]any{}
	if len(document) > 0 {
		if err := json.Unmarshal(document, &raw); err != nil {
			return domain.Product{}, fmt.Errorf("%w: product %s: decode document: %v", domain.ErrInvalidProduct, id, err)
		}
	}
	if _, ok := raw["id"]; !ok {
		raw["id"] = id
	}

	p, err := domain.NormalizeProduct(raw)
	if err != nil {
		return domain.Product{}, err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = createdAt.UTC()
	}
	return p, nil
}
