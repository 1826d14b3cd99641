package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nefol/discovery/internal/catalog"
	"github.com/nefol/discovery/pkg/database"
)

func setupSource(t *testing.T) (*Source, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewSource(mock, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func columns() []string {
	return []string{"id", "document", "created_at"}
}

func TestSource_Load(t *testing.T) {
	src, mock := setupSource(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, document, created_at FROM catalog_products WHERE is_active = TRUE ORDER BY sort_order`).
		WillReturnRows(pgxmock.NewRows(columns()).
			AddRow("p-1", []byte(`{"title": "Vitamin C Serum", "category": "Face Care", "price": "₹899"}`), created).
			AddRow("p-2", []byte(`{"name": "Hair Oil", "details": {"mrp": "₹599"}, "createdAt": "2024-05-01"}`), created).
			AddRow("p-3", []byte(`{"title": `), created).
			AddRow("p-4", []byte(`{"id": "", "title": ""}`), created))

	products, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "p-1", products[0].ID)
	assert.Equal(t, "Vitamin C Serum", products[0].Title)
	assert.Equal(t, created, products[0].CreatedAt)

	assert.Equal(t, "p-2", products[1].ID)
	assert.Equal(t, "₹599", products[1].Price)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), products[1].CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_Load_QueryError(t *testing.T) {
	src, mock := setupSource(t)

	mock.ExpectQuery(`SELECT id, document, created_at FROM catalog_products`).
		WillReturnError(errors.New("connection refused"))

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query catalog products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_Get(t *testing.T) {
	src, mock := setupSource(t)

	mock.ExpectQuery(`SELECT id, document, created_at FROM catalog_products WHERE id = \$1`).
		WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows(columns()).
			AddRow("p-1", []byte(`{"title": "Toner", "skin_type": "Oily, Dry"}`), time.Now()))

	p, err := src.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Toner", p.Title)
	assert.Equal(t, []string{"Oily", "Dry"}, p.SkinTypes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_Get_NotFound(t *testing.T) {
	src, mock := setupSource(t)

	mock.ExpectQuery(`SELECT id, document, created_at FROM catalog_products WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := src.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
