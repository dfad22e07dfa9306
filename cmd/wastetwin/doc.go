// Command wastetwin is the CLI for the facility simulator. It runs the daemon,
// talks to a running daemon over its HTTP API, and can run a one-shot
// in-process simulation without a daemon.
package main
