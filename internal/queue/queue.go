package queue

// Queue is an insertion-ordered FIFO of waiting items.
type Queue struct {
	items []Item
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends items in the order given.
func (q *Queue) Enqueue(items ...Item) {
	q.items = append(q.items, items...)
}

// Dequeue removes and returns the earliest item.
func (q *Queue) Dequeue() (Item, error) {
	if len(q.items) == 0 {
		return Item{}, ErrQueueEmpty
	}
	item := q.items[0]
	q.items[0] = Item{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return item, nil
}

// Len reports the number of waiting items.
func (q *Queue) Len() int {
	return len(q.items)
}

// Snapshot returns copies of the waiting items in FIFO order.
func (q *Queue) Snapshot() []Item {
	out := make([]Item, len(q.items))
	for i, item := range q.items {
		out[i] = item.Clone()
	}
	return out
}
