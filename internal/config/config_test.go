package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/stepwise/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv(config.EnvConfig, "")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "stepwise.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
flows:
  source: yaml
  dir: ./flows
submit:
  timeout: 3s
results:
  backend: sqlite
  path: results.db
  pii_patterns: [note, name]
http:
  port: 9090
`), 0o644))

	t.Setenv("STEPWISE_HTTP_PORT", "7070")
	t.Setenv("STEPWISE_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.SourceYAML, cfg.Flows.Source)
	assert.Equal(t, "./flows", cfg.Flows.Dir)
	assert.Equal(t, 3*time.Second, cfg.Submit.Timeout)
	assert.Equal(t, config.BackendSQLite, cfg.Results.Backend)
	assert.Equal(t, []string{"note", "name"}, cfg.Results.PIIPatterns)
	assert.Equal(t, 7070, cfg.HTTP.Port, "env overrides file")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	isolate(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"defaults", func(c *config.Config) {}, true},
		{"yaml without dir", func(c *config.Config) { c.Flows.Source = config.SourceYAML }, false},
		{"loam with dir", func(c *config.Config) { c.Flows.Source = config.SourceLoam; c.Flows.Dir = "x" }, true},
		{"unknown source", func(c *config.Config) { c.Flows.Source = "ftp" }, false},
		{"sqlite without path", func(c *config.Config) { c.Results.Backend = config.BackendSQLite }, false},
		{"unknown backend", func(c *config.Config) { c.Results.Backend = "s3" }, false},
		{"zero timeout", func(c *config.Config) { c.Submit.Timeout = 0 }, false},
		{"bad port", func(c *config.Config) { c.HTTP.Port = 70000 }, false},
		{"bad format", func(c *config.Config) { c.Log.Format = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
