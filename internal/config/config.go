package config

import (
	"path/filepath"
	"time"
)

// Paths locates on-disk state and the HTTP listener.
type Paths struct {
	// LogDir holds wastetwin.log plus the daemon lock and pid files.
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
	// CatalogPath optionally replaces the built-in category table with a YAML file.
	CatalogPath string `toml:"catalog_path"`
}

// Engine tunes the processing engine.
type Engine struct {
	MaxConcurrent int `toml:"max_concurrent"`
	// MaxEnqueue caps the quantity accepted by a single enqueue call.
	MaxEnqueue     int   `toml:"max_enqueue"`
	TotalSteps     int   `toml:"total_steps"`
	MaxStepDelayMS int   `toml:"max_step_delay_ms"`
	HistoryLimit   int   `toml:"history_limit"`
	FailedLimit    int   `toml:"failed_limit"`
	Seed           int64 `toml:"seed"`
}

type Workflow struct {
	AutoProcess  bool `toml:"auto_process"`
	PollInterval int  `toml:"poll_interval"`
	SeedOnStart  int  `toml:"seed_on_start"`
}

type Events struct {
	BufferSize       int `toml:"buffer_size"`
	SubscriberBuffer int `toml:"subscriber_buffer"`
}

// Notifications configures ntfy pushes. An empty topic disables them.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Queue          bool   `toml:"queue"`
	Failures       bool   `toml:"failures"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the full wastetwin configuration, one struct per TOML table.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Engine        Engine        `toml:"engine"`
	Workflow      Workflow      `toml:"workflow"`
	Events        Events        `toml:"events"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// MaxStepDelay returns the per-step sleep cap.
func (c *Config) MaxStepDelay() time.Duration {
	return time.Duration(c.Engine.MaxStepDelayMS) * time.Millisecond
}

// PollInterval returns the background driver interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollInterval) * time.Second
}

func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "wastetwin.lock")
}

// PIDPath returns the file the daemon records its pid in.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "wastetwin.pid")
}

// NotificationsEnabled reports whether a ntfy topic is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.NtfyTopic != ""
}
