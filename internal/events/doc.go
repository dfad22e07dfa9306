// Package events fans facility events out to observers.
//
// Hub assigns every event a sequence number and keeps the most recent ones in
// a bounded ring so HTTP clients can long-poll with a cursor. Channel
// subscribers receive events best-effort: when a subscriber's buffer is full
// the event is dropped for that subscriber, never reordered. Sinks receive
// every event synchronously and must not block.
package events
