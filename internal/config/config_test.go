package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "callproof.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callproof.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project:
  root: ./src
  language: python
resolver:
  fuzzy_threshold: 0.8
  partial_ratio: 0.75
  aliases:
    builder: [build]
verifier:
  workers: 2
log:
  level: debug
`), 0o644))

	t.Setenv("CALLPROOF_DB", "/tmp/override.db")
	t.Setenv("CALLPROOF_WORKERS", "6")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./src", cfg.Project.Root)
	assert.Equal(t, "python", cfg.Project.Language)
	assert.Equal(t, 0.8, cfg.Resolver.FuzzyThreshold)
	assert.Equal(t, 0.75, cfg.Resolver.PartialRatio)
	assert.Equal(t, 0.5, cfg.Resolver.MinConfidence, "unset keys keep defaults")
	assert.Equal(t, []string{"build"}, cfg.Resolver.Aliases["builder"])
	assert.Equal(t, 6, cfg.Verifier.Workers)
	assert.Equal(t, "/tmp/override.db", cfg.Storage.DBPath)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("resolver: [\n"), 0o644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("resolver:\n  accept_threshold: 1.5\n"), 0o644))
	_, err = LoadConfig(invalid)
	assert.ErrorContains(t, err, "accept_threshold")

	t.Setenv("CALLPROOF_WORKERS", "many")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "CALLPROOF_WORKERS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero floor", func(c *Config) { c.Resolver.MinConfidence = 0 }, false},
		{"zero partial ratio", func(c *Config) { c.Resolver.PartialRatio = 0 }, false},
		{"partial ratio above one", func(c *Config) { c.Resolver.PartialRatio = 1.2 }, false},
		{"accept below floor", func(c *Config) { c.Resolver.AcceptThreshold = 0.4 }, false},
		{"no workers", func(c *Config) { c.Verifier.Workers = 0 }, false},
		{"no hops", func(c *Config) { c.Verifier.PathEvidenceHops = 0 }, false},
		{"unknown language", func(c *Config) { c.Project.Language = "rust" }, false},
		{"go", func(c *Config) { c.Project.Language = "go" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
