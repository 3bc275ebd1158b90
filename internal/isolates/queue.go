package isolates

import "sync"

// ActionQueue serializes actions for a single entity: multi-producer,
// strict FIFO, exactly-once. Enqueue never blocks; each action runs on its
// own goroutine after its predecessor finishes.
//
// The queue head is gated on a ready signal, so no action runs before the
// signal fires. Client breakpoints use this to hold back resolution
// notifications until their assigned id has been returned to the client.
type ActionQueue struct {
	mu   sync.Mutex
	tail <-chan struct{}
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// NewActionQueue creates a queue whose first action waits for ready.
func NewActionQueue(ready <-chan struct{}) *ActionQueue {
	if ready == nil {
		ready = closedChan
	}
	return &ActionQueue{tail: ready}
}

// Enqueue appends an action after the current tail. The action becomes the
// new tail and runs once every previously enqueued action has completed.
func (q *ActionQueue) Enqueue(action func()) {
	done := make(chan struct{})

	q.mu.Lock()
	prev := q.tail
	q.tail = done
	q.mu.Unlock()

	go func() {
		defer close(done)
		<-prev
		action()
	}()
}

// Drain blocks until every action enqueued before the call has completed.
// Actions enqueued concurrently with Drain may or may not be waited for.
func (q *ActionQueue) Drain() {
	q.mu.Lock()
	tail := q.tail
	q.mu.Unlock()
	<-tail
}
