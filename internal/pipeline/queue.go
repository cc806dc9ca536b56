package pipeline

import "sync"

// Queue is a fixed-capacity FIFO connecting two pipeline positions. It is
// safe for any number of concurrent producers and consumers (a parallel
// stage group shares one queue pair) and for Close from the scheduler's
// stop path.
//
// Close wakes every blocked waiter. Pending WaitPush calls return false and
// pending WaitPop calls drain remaining items before returning empty, which
// is what makes shutdown deadlock-free.
type Queue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	items    []*Item
	capacity int
	closed   bool
}

// NewQueue creates a queue with the given capacity. Capacity must be at
// least 1; smaller values are clamped.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// TryPush appends item without blocking. It returns false if the queue is
// full or closed, leaving the queue unchanged.
func (q *Queue) TryPush(item *Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.items) >= q.capacity {
		return false
	}
	q.push(item)
	return true
}

// WaitPush blocks until there is space, then appends item. It returns false
// only if the queue is closed before space becomes available.
func (q *Queue) WaitPush(item *Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return false
	}
	q.push(item)
	return true
}

// TryPop removes the oldest item without blocking. It returns false if the
// queue is empty.
func (q *Queue) TryPop() (*Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	return q.pop(), true
}

// WaitPop blocks until an item is available, then removes it. A closed queue
// still drains: remaining items are returned until empty, after which WaitPop
// returns false.
func (q *Queue) WaitPop() (*Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	return q.pop(), true
}

// Close marks the queue closed and wakes all blocked waiters. Idempotent.
// Items already queued remain poppable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return q.capacity
}

func (q *Queue) push(item *Item) {
	q.items = append(q.items, item)
	q.notEmpty.Signal()
}

func (q *Queue) pop() *Item {
	item := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	q.notFull.Signal()
	return item
}
