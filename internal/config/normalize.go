package config

import (
	"fmt"
	"os"
	"strings"
)

// envOverride maps an environment variable onto a string setting. Fallback
// overrides only fill an empty value; the others replace the file value.
type envOverride struct {
	name     string
	fallback bool
	target   func(*Config) *string
}

var envOverrides = []envOverride{
	{name: "WASTETWIN_NTFY_TOPIC", fallback: true, target: func(c *Config) *string { return &c.Notifications.NtfyTopic }},
	{name: "WASTETWIN_API_BIND", target: func(c *Config) *string { return &c.Paths.APIBind }},
	{name: "WASTETWIN_LOG_LEVEL", target: func(c *Config) *string { return &c.Logging.Level }},
}

func (c *Config) normalize() error {
	c.applyEnv()
	c.Paths.APIBind = orDefault(c.Paths.APIBind, defaultAPIBind)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Logging.Format = strings.ToLower(orDefault(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(orDefault(c.Logging.Level, defaultLogLevel))

	for _, p := range []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.catalog_path", &c.Paths.CatalogPath, ""},
	} {
		expanded, err := ExpandPath(orDefault(*p.value, p.fallback))
		if err != nil {
			return fmt.Errorf("%s: %w", p.key, err)
		}
		*p.value = expanded
	}
	return nil
}

func (c *Config) applyEnv() {
	for _, o := range envOverrides {
		value, ok := os.LookupEnv(o.name)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		target := o.target(c)
		if o.fallback && strings.TrimSpace(*target) != "" {
			continue
		}
		*target = value
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
