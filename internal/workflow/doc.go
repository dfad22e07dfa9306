// Package workflow drives recovery items from the queue through simulated
// deconstruction.
//
// Manager is the single owner of mutable facility state: the waiting queue,
// the active set and the running aggregates all live behind one mutex. Each
// admitted item runs in its own goroutine that sleeps between progress steps,
// draws the recovered materials and commits them in one locked step. A
// concurrency cap is enforced at admission only; running units are never
// cancelled. A unit that panics is recovered, its active entry released and
// the item surfaced as failed.
//
// Every transition is published on the events hub while the lock is held, so
// sequence numbers follow mutation order and per-item order is always
// queue_changed, processing_started, progress_tick..., processing_completed.
//
// Start launches an optional background driver that admits queued items on a
// fixed interval until the queue is empty or the cap is reached.
package workflow
