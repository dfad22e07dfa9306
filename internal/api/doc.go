// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal facility models into transport-friendly DTOs
// that the CLI and dashboards can render without coupling to internal types.
//
// # Key Types
//
// Item: transport representation of a device item with progress, timestamps
// and recovered materials.
//
// Stats: facility snapshot with totals, per-category breakdown and the queue,
// active and recent item lists.
//
// Event: one sequenced hub event; EventsResponse carries a page of them with
// the cursor for the next long-poll.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (queue.Status, stats.SystemStatus, events.Kind) are exposed as
// lowercase strings. Timestamps use RFC3339 with milliseconds.
package api
