// Package config loads wastetwin's TOML configuration.
//
// Load layers, in order: built-in defaults, the config file (strict: unknown
// keys fail), then WASTETWIN_* environment overrides. Paths are expanded and
// the result is validated before it is handed out, so callers never see a
// half-normalized Config.
package config
