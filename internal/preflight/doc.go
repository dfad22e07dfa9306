// Package preflight provides readiness checks for the paths and endpoints the
// facility daemon depends on.
//
// The daemon runs RunAll at startup and logs every failing check as a warning;
// the CLI "wastetwin check" command prints the same results as a table.
// Checks for optional features are skipped when the feature is disabled.
package preflight
