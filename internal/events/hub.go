package events

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultCapacity is the ring size used when none is configured.
	DefaultCapacity = 1024
	// DefaultSubscriberBuffer is the channel buffer used when none is configured.
	DefaultSubscriberBuffer = 256
)

// Sink receives every published event.
type Sink interface {
	Append(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Append calls f(evt).
func (f SinkFunc) Append(evt Event) { f(evt) }

// Hub keeps the most recent events in a ring and fans every published event
// out to sinks and channel subscribers. Sequence numbers are contiguous, so a
// buffered event is found by offset from the oldest one.
type Hub struct {
	mu               sync.Mutex
	subscriberBuffer int
	ring             []Event
	head             int
	size             int
	nextSeq          uint64
	changed          chan struct{}
	sinks            []Sink
	subs             map[*Subscription]struct{}
	closed           bool
}

// NewHub constructs a hub keeping at most capacity events.
func NewHub(capacity, subscriberBuffer int) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if subscriberBuffer <= 0 {
		subscriberBuffer = DefaultSubscriberBuffer
	}
	return &Hub{
		subscriberBuffer: subscriberBuffer,
		ring:             make([]Event, capacity),
		changed:          make(chan struct{}),
		subs:             make(map[*Subscription]struct{}),
	}
}

// AddSink registers a sink for every event published from now on. Sinks run
// on the publisher's goroutine, which may hold the workflow lock, so Append
// must not block; sinks doing I/O queue the work for their own goroutine.
func (h *Hub) AddSink(sink Sink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, sink)
}

// Publish sequences evt, buffers it and delivers it. Sinks run synchronously
// after the hub lock is released. The sequenced event is returned.
// Publishing on a closed hub is a no-op.
func (h *Hub) Publish(evt Event) Event {
	if h == nil {
		return evt
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return evt
	}
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt = evt.clone()
	h.pushLocked(evt)
	for sub := range h.subs {
		sub.deliver(evt)
	}
	close(h.changed)
	h.changed = make(chan struct{})
	sinks := slices.Clone(h.sinks)
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(evt)
	}
	return evt
}

func (h *Hub) pushLocked(evt Event) {
	capacity := len(h.ring)
	if h.size < capacity {
		h.ring[(h.head+h.size)%capacity] = evt
		h.size++
		return
	}
	h.ring[h.head] = evt
	h.head = (h.head + 1) % capacity
}

func (h *Hub) at(i int) Event {
	return h.ring[(h.head+i)%len(h.ring)]
}

// Subscribe registers a channel subscriber. A non-positive buffer uses the
// hub default. The channel is closed by Unsubscribe or Close.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = h.subscriberBuffer
	}
	sub := &Subscription{hub: h, ch: make(chan Event, buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Subscribers reports the number of live channel subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel and wakes long-poll waiters.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
	close(h.changed)
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}

// Fetch returns up to limit events with sequence greater than since, plus the
// cursor to pass next time. A cursor past the last assigned sequence comes
// from an earlier hub and is read as 0. With wait set it blocks until an event
// arrives, the hub closes or ctx ends. A ctx error is returned alongside any
// events.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	for {
		h.mu.Lock()
		events, next := h.sinceLocked(since, limit)
		closed, changed := h.closed, h.changed
		h.mu.Unlock()

		if len(events) > 0 || !wait || closed {
			return events, next, contextError(ctx)
		}
		select {
		case <-done:
			return nil, next, ctx.Err()
		case <-changed:
		}
	}
}

// Tail returns the most recent limit events without blocking.
func (h *Hub) Tail(limit int) ([]Event, uint64) {
	if h == nil {
		return nil, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.clampLocked(limit)
	return h.copyLocked(h.size-n, h.size), h.nextSeq
}

// FirstSequence reports the oldest buffered sequence, or the last assigned
// one when the buffer is empty.
func (h *Hub) FirstSequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size == 0 {
		return h.nextSeq
	}
	return h.at(0).Sequence
}

func (h *Hub) sinceLocked(since uint64, limit int) ([]Event, uint64) {
	if since > h.nextSeq {
		since = 0
	}
	if h.size == 0 || since == h.nextSeq {
		return nil, h.nextSeq
	}
	start := 0
	if first := h.at(0).Sequence; since >= first {
		start = int(since-first) + 1
	}
	end := min(start+h.clampLocked(limit), h.size)
	out := h.copyLocked(start, end)
	return out, out[len(out)-1].Sequence
}

func (h *Hub) clampLocked(limit int) int {
	if limit <= 0 || limit > h.size {
		return h.size
	}
	return limit
}

func (h *Hub) copyLocked(start, end int) []Event {
	if start >= end {
		return nil
	}
	out := make([]Event, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, h.at(i))
	}
	return out
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

// Subscription is a channel subscriber.
type Subscription struct {
	hub     *Hub
	ch      chan Event
	dropped atomic.Uint64
}

// C returns the receive channel.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Dropped reports how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Unsubscribe detaches the subscriber and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.hub.unsubscribe(s)
}

func (s *Subscription) deliver(evt Event) {
	select {
	case s.ch <- evt:
	default:
		s.dropped.Add(1)
	}
}
