package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastetwin/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvConfigPath, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, resolved)
	assert.False(t, exists)

	assert.Equal(t, filepath.Join(tempHome, ".local", "share", "wastetwin", "logs"), cfg.Paths.LogDir)
	assert.Equal(t, "127.0.0.1:7488", cfg.Paths.APIBind)
	assert.Equal(t, 3, cfg.Engine.MaxConcurrent)
	assert.Equal(t, 20, cfg.Engine.TotalSteps)
	assert.Equal(t, 500*time.Millisecond, cfg.MaxStepDelay())
	assert.Equal(t, 10*time.Second, cfg.PollInterval())
	assert.True(t, cfg.Workflow.AutoProcess)
	assert.Equal(t, filepath.Join(cfg.Paths.LogDir, "wastetwin.lock"), cfg.LockPath())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "0.0.0.0:9000"

[engine]
max_concurrent = 5
max_step_delay_ms = 0
seed = 42

[logging]
format = "JSON"
level = " Debug "
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 5, cfg.Engine.MaxConcurrent)
	assert.Equal(t, int64(42), cfg.Engine.Seed)
	assert.Zero(t, cfg.MaxStepDelay())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 500, cfg.Engine.HistoryLimit, "unset keys keep defaults")

	require.NoError(t, cfg.EnsureDirectories())
	info, err := os.Stat(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nmax_concurent = 2\n"), 0o644))

	_, _, _, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys: engine.max_concurent")
}

func TestLoadReportsSyntaxPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nmax_concurrent = \n"), 0o644))

	_, _, _, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadUsesConfigPathFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facility.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nmax_concurrent = 7\n"), 0o644))
	t.Setenv(config.EnvConfigPath, path)

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 7, cfg.Engine.MaxConcurrent)
}

func TestEnvOverridesFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[paths]\napi_bind = \"127.0.0.1:9000\"\n[notifications]\nntfy_topic = \"https://ntfy.sh/file\"\n[logging]\nlevel = \"info\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("WASTETWIN_API_BIND", "127.0.0.1:9100")
	t.Setenv("WASTETWIN_LOG_LEVEL", "WARN")
	t.Setenv("WASTETWIN_NTFY_TOPIC", "https://ntfy.sh/env")

	cfg, _, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Paths.APIBind)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "https://ntfy.sh/file", cfg.Notifications.NtfyTopic, "topic env only fills an empty value")
	assert.True(t, cfg.NotificationsEnabled())
}

func TestNtfyTopicFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WASTETWIN_NTFY_TOPIC", " https://ntfy.sh/facility ")
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, "https://ntfy.sh/facility", cfg.Notifications.NtfyTopic)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/logs/../state")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "state"), got)

	got, err = config.ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"zero concurrency":  func(c *config.Config) { c.Engine.MaxConcurrent = 0 },
		"zero steps":        func(c *config.Config) { c.Engine.TotalSteps = 0 },
		"zero enqueue cap":  func(c *config.Config) { c.Engine.MaxEnqueue = 0 },
		"negative delay":    func(c *config.Config) { c.Engine.MaxStepDelayMS = -1 },
		"zero history":      func(c *config.Config) { c.Engine.HistoryLimit = 0 },
		"zero poll":         func(c *config.Config) { c.Workflow.PollInterval = 0 },
		"negative seeding":  func(c *config.Config) { c.Workflow.SeedOnStart = -2 },
		"zero event buffer": func(c *config.Config) { c.Events.BufferSize = 0 },
		"bad bind":          func(c *config.Config) { c.Paths.APIBind = "localhost" },
		"bad format":        func(c *config.Config) { c.Logging.Format = "xml" },
		"bad level":         func(c *config.Config) { c.Logging.Level = "trace" },
		"zero timeout":      func(c *config.Config) { c.Notifications.RequestTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
}

func TestCreateSampleParsesAsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed config.Config
	require.NoError(t, toml.Unmarshal(data, &parsed))
	defaults := config.Default()
	assert.Equal(t, defaults.Engine, parsed.Engine)
	assert.Equal(t, defaults.Workflow, parsed.Workflow)
	assert.Equal(t, defaults.Events, parsed.Events)
	assert.Equal(t, defaults.Notifications, parsed.Notifications)
	assert.Equal(t, defaults.Logging, parsed.Logging)
}

func TestEncodeRoundTrips(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Seed = 7
	encoded, err := cfg.Encode()
	require.NoError(t, err)
	assert.Contains(t, encoded, "max_concurrent = 3")
	assert.Contains(t, encoded, "seed = 7")
}
