package testsupport

import (
	"path/filepath"
	"testing"

	"vizart/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.UploadDir = filepath.Join(base, "uploads")
	cfg.Paths.ResultsDir = filepath.Join(base, "results")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Processing.MaxConcurrentJobs = 2
	cfg.Processing.JobTimeoutSeconds = 30

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaxConcurrentJobs overrides the worker pool size on the test config.
func WithMaxConcurrentJobs(n int) ConfigOption {
	return func(c *config.Config) {
		c.Processing.MaxConcurrentJobs = n
	}
}

// WithJobTimeout overrides the per-job deadline on the test config.
func WithJobTimeout(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Processing.JobTimeoutSeconds = seconds
	}
}
