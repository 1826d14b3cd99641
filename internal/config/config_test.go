package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8020, cfg.HTTPPort)
	assert.Equal(t, EngineMemory, cfg.SearchEngine)
	assert.Equal(t, "storefront_products", cfg.ElasticsearchIndex)
	assert.Equal(t, CatalogNone, cfg.CatalogSource)
	assert.Equal(t, HistoryMemory, cfg.HistoryStore)
	assert.Equal(t, 2, cfg.SuggestMinLength)
	assert.Equal(t, 5, cfg.RecentSearchLimit)
	assert.Equal(t, 30*time.Second, cfg.CacheMaxAge)
	assert.InDelta(t, 20, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Contains(t, cfg.PopularQueries, "sunscreen")
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "discovery", cfg.Tracing.ServiceName)
	assert.Equal(t, "development", cfg.Tracing.Environment)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SEARCH_ENGINE", "elasticsearch")
	t.Setenv("HISTORY_STORE", "redis")
	t.Setenv("POPULAR_QUERIES", "retinol,toner")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, EngineElasticsearch, cfg.SearchEngine)
	assert.Equal(t, HistoryRedis, cfg.HistoryStore)
	assert.Equal(t, []string{"retinol", "toner"}, cfg.PopularQueries)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DISCOVERY_HTTP_PORT=9100\nSUGGEST_MIN_LENGTH=3\n"), 0o600))
	t.Setenv("SUGGEST_MIN_LENGTH", "4")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, 4, cfg.SuggestMinLength)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port", map[string]string{"DISCOVERY_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"engine", map[string]string{"SEARCH_ENGINE": "bleve"}, "invalid SEARCH_ENGINE"},
		{"catalog", map[string]string{"CATALOG_SOURCE": "csv"}, "invalid CATALOG_SOURCE"},
		{"history", map[string]string{"HISTORY_STORE": "sqlite"}, "invalid HISTORY_STORE"},
		{"suggest", map[string]string{"SUGGEST_MIN_LENGTH": "0"}, "SUGGEST_MIN_LENGTH"},
		{"recent", map[string]string{"RECENT_SEARCH_LIMIT": "0"}, "RECENT_SEARCH_LIMIT"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2"}, "OTEL_SAMPLE_RATE"},
		{"rate limit", map[string]string{"RATE_LIMIT_RPS": "-1"}, "RATE_LIMIT_RPS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
