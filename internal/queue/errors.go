package queue

import "errors"

var (
	// ErrQueueEmpty is returned by Dequeue when no item is waiting.
	ErrQueueEmpty = errors.New("queue is empty")
	// ErrInvalidQuantity rejects an enqueue request for fewer than one item.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)
