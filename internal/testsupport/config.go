package testsupport

import (
	"path/filepath"
	"testing"

	"orrery/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Scheduler.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithArchiveBaseURL points the archive client at the given base URL,
// typically an httptest server.
func WithArchiveBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Archive.BaseURL = url
	}
}

// WithClassifier enables the classification gateway against the given URL.
func WithClassifier(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Classifier.Enabled = true
		cfg.Classifier.URL = url
	}
}

// WithCatalogPrefix overrides the designation prefix on the test config.
func WithCatalogPrefix(prefix string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Naming.CatalogPrefix = prefix
	}
}
