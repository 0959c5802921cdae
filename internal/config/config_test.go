package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "models", cfg.Artifacts.Dir)
	assert.Equal(t, "csv", cfg.Dataset.Source)
	assert.InDelta(t, 0.1, cfg.Confidence.EdgeFraction, 1e-9)
}

func TestLoadConfig_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
server:
  port: "9090"
artifacts:
  dir: /srv/models
confidence:
  edge_fraction: 0.2
validation:
  min_year: 1900
  max_year: 2030
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/srv/models", cfg.Artifacts.Dir)
	assert.Equal(t, "price_model.json", cfg.Artifacts.ModelFile)
	assert.InDelta(t, 0.2, cfg.Confidence.EdgeFraction, 1e-9)
	assert.Equal(t, 1900, cfg.Validation.MinYear)
	assert.Equal(t, 2030, cfg.Validation.MaxYear)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("ARTIFACTS_DIR", "/env/models")
	t.Setenv("DATASET_SOURCE", "postgres")
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "6543")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "/env/models", cfg.Artifacts.Dir)
	assert.Equal(t, "pg.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 6543, cfg.Database.Postgres.Port)
	assert.Equal(t, "mysql", cfg.Database.MySQL.Host)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"edge fraction too large", func(c *Config) { c.Confidence.EdgeFraction = 0.5 }, "edge_fraction"},
		{"negative edge fraction", func(c *Config) { c.Confidence.EdgeFraction = -0.1 }, "edge_fraction"},
		{"inverted area range", func(c *Config) { c.Validation.MinArea, c.Validation.MaxArea = 100, 10 }, "area range"},
		{"inverted year range", func(c *Config) { c.Validation.MinYear, c.Validation.MaxYear = 2000, 1990 }, "year range"},
		{"unknown source", func(c *Config) { c.Dataset.Source = "excel" }, "unknown dataset source"},
		{"price override inverted", func(c *Config) { c.Confidence.MinPrice, c.Confidence.MaxPrice = 10, 5 }, "max_price"},
		{"empty artifacts dir", func(c *Config) { c.Artifacts.Dir = "" }, "artifacts.dir"},
		{"trusted proxies", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.1", "172.16.0.0/12"} }, ""},
		{"bad trusted proxy", func(c *Config) { c.Server.TrustedProxies = []string{"gateway"} }, "trusted_proxies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEffectiveMaxYear(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 2027, ValidationConfig{}.EffectiveMaxYear(now))
	assert.Equal(t, 2025, ValidationConfig{MaxYear: 2025}.EffectiveMaxYear(now))
}
