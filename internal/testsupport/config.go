package testsupport

import (
	"path/filepath"
	"testing"

	"wastetwin/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp directory per test.
// The defaults suit fast tests: no step delay, an ephemeral API port, no
// background driver and no notifications.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Engine.MaxStepDelayMS = 0
	cfgVal.Engine.Seed = 7
	cfgVal.Workflow.AutoProcess = false
	cfgVal.Notifications.NtfyTopic = ""

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

// WithSeed fixes the simulator seed.
func WithSeed(seed int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.Seed = seed
	}
}

// WithAutoProcess enables the background driver with the given interval in
// seconds.
func WithAutoProcess(pollSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.AutoProcess = true
		b.cfg.Workflow.PollInterval = pollSeconds
	}
}

// WithNtfyTopic points notifications at topic.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithCatalogFile writes content as a YAML catalog under the temp directory
// and points paths.catalog_path at it.
func WithCatalogFile(content string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "catalog.yaml")
		WriteFile(b.t, path, content)
		b.cfg.Paths.CatalogPath = path
	}
}

// WithQuietLogging sends JSON logs at error level only.
func WithQuietLogging() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Format = "json"
		b.cfg.Logging.Level = "error"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
