// Package notifications pushes facility milestones to ntfy.
//
// Service is the transport: it posts plain-text messages to the configured
// topic and degrades to a no-op when no topic is set. Watcher is an
// events.Sink that turns the event stream into milestones (the facility
// started working, the queue drained, an item failed) and hands them to the
// Service from its own goroutine so publishers never wait on the network.
package notifications
