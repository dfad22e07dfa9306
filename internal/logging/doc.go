// Package logging assembles structured slog loggers and formatting helpers used
// across wastetwin services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so engine and API code can tag
// log lines with item ids, categories and correlation ids. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
