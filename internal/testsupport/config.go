package testsupport

import (
	"path/filepath"
	"testing"

	"recipebox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.InboxDir = filepath.Join(base, "inbox")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Analysis.APIKey = "test"
	cfgVal.Analysis.BaseURL = "http://127.0.0.1:1/analysis"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAnalysisURL points the analysis client at a test server.
func WithAnalysisURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.BaseURL = url
	}
}

// WithBackendURL points the backend client at a test server.
func WithBackendURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.BaseURL = url
	}
}

// WithCacheBounds overrides the local store bounds.
func WithCacheBounds(maxEntries, maxValueBytes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.MaxCacheEntries = maxEntries
		b.cfg.Storage.MaxValueBytes = maxValueBytes
	}
}

// WithLanguage selects the message and prompt language.
func WithLanguage(lang string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.Language = lang
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
