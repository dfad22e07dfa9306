// Package daemonctl launches, probes and stops a background wastetwin daemon.
//
// The daemon is probed through its HTTP status endpoint; the pid file under
// paths.log_dir is the fallback for signalling a daemon that stopped
// answering.
package daemonctl
