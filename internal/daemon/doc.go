// Package daemon coordinates the long-running facility process.
//
// It wires configuration, the workflow manager, the finished-item ledger and
// the chat responder into a single lifecycle with flock-based locking to
// prevent multiple instances, and serves the HTTP API: stats, queue control,
// catalog and composition lookups, paged history, chat, long-poll events and a
// WebSocket event stream.
//
// Keep orchestration logic here: simulation rules live in workflow and its
// leaf packages while the daemon focuses on startup, shutdown and transport.
package daemon
