// Package mainthread lets background work hand results back to the render
// thread. Producers Post closures from any goroutine; the render loop Drains
// them at the start of each tick, so scene mutations stay single-threaded.
package mainthread

import (
	"sync"

	"GopherAR/internal/logger"

	"go.uber.org/zap"
)

// DefaultSize is the initial capacity of the pending list.
const DefaultSize = 64

// Queue is unbounded: Post never blocks, so the render thread may post to
// itself (input handlers do) and workers never stall on a slow or stopped
// drainer.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	spare   []func()
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{pending: make([]func(), 0, size), spare: make([]func(), 0, size)}
}

// Post enqueues fn. Callbacks are never dropped unless Discard is called.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Drain runs every callback queued before the call and returns how many ran.
// Callbacks posted while draining wait for the next tick.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = q.spare[:0]
	q.mu.Unlock()

	for i, fn := range batch {
		q.run(fn)
		batch[i] = nil
	}

	q.mu.Lock()
	q.spare = batch[:0]
	q.mu.Unlock()
	return len(batch)
}

// Discard drops pending callbacks without running them. Used on shutdown,
// once nothing will drain again.
func (q *Queue) Discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	clear(q.pending)
	q.pending = q.pending[:0]
	return n
}

func (q *Queue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Main thread callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Len reports the number of pending callbacks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
