// Package testsupport provides shared fixtures for taggerd tests: temp-dir
// configs and scriptable fake interrogators.
package testsupport

import (
	"path/filepath"
	"testing"

	"taggerd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ModelDir = filepath.Join(base, "models")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.History.Path = filepath.Join(base, "history.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithDefaultModel overrides the default model name on the test config.
func WithDefaultModel(name string) ConfigOption {
	return func(c *config.Config) {
		c.Tagger.DefaultModel = name
	}
}

// WithHistoryDisabled turns off the history store on the test config.
func WithHistoryDisabled() ConfigOption {
	return func(c *config.Config) {
		c.History.Enabled = false
	}
}
