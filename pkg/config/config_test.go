package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port      int      `env:"TEST_CFG_PORT" envDefault:"8020"`
	Engine    string   `env:"TEST_CFG_ENGINE" envDefault:"memory"`
	MinLength int      `env:"TEST_CFG_MIN_LENGTH" envDefault:"2"`
	Popular   []string `env:"TEST_CFG_POPULAR" envSeparator:","`
}

func writeDotenv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8020, cfg.Port)
	assert.Equal(t, "memory", cfg.Engine)
	assert.Equal(t, 2, cfg.MinLength)
	assert.Empty(t, cfg.Popular)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_POPULAR", "onion oil,vitamin c")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"onion oil", "vitamin c"}, cfg.Popular)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_DotenvFile(t *testing.T) {
	path := writeDotenv(t, "TEST_CFG_ENGINE=elasticsearch\nTEST_CFG_MIN_LENGTH=3\n")

	var cfg testConfig
	require.NoError(t, Load(&cfg, path))

	assert.Equal(t, "elasticsearch", cfg.Engine)
	assert.Equal(t, 3, cfg.MinLength)
}

func TestLoad_ProcessEnvOverridesDotenv(t *testing.T) {
	path := writeDotenv(t, "TEST_CFG_ENGINE=elasticsearch\n")
	t.Setenv("TEST_CFG_ENGINE", "memory")

	var cfg testConfig
	require.NoError(t, Load(&cfg, path))
	assert.Equal(t, "memory", cfg.Engine)
}

func TestLoad_MissingDotenvIgnored(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "memory", cfg.Engine)
}
