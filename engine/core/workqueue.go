package core

import (
	"context"
	"errors"
	"sync"

	"github.com/spaghettifunk/ultraviolet/engine/containers"
)

// WorkItem is a callback executed on the main thread between frames.
type WorkItem func() error

type workEntry struct {
	fn   WorkItem
	done chan error
}

// WorkQueue lets any goroutine schedule callbacks onto the main simulation
// thread. The main thread drains it once per tick through ProcessWorkItems,
// before any update runs, so items never interleave with update or draw.
type WorkQueue struct {
	mu     sync.Mutex
	items  *containers.RingQueue[workEntry]
	closed bool
}

func NewWorkQueue() *WorkQueue {
	return &WorkQueue{
		items: containers.NewGrowableRingQueue[workEntry](16),
	}
}

// Post schedules fn to run on the next ProcessWorkItems call.
// Safe for concurrent use.
func (wq *WorkQueue) Post(fn WorkItem) error {
	return wq.enqueue(workEntry{fn: fn})
}

// Send posts fn and blocks until the main thread has run it, returning
// its error. Must not be called from the main thread itself.
func (wq *WorkQueue) Send(ctx context.Context, fn WorkItem) error {
	done := make(chan error, 1)
	if err := wq.enqueue(workEntry{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wq *WorkQueue) enqueue(e workEntry) error {
	if e.fn == nil {
		return nil
	}
	wq.mu.Lock()
	defer wq.mu.Unlock()
	if wq.closed {
		return ErrWorkQueueClosed
	}
	return wq.items.Enqueue(e)
}

// Len returns the number of pending items.
func (wq *WorkQueue) Len() int {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	return wq.items.Len()
}

// ProcessWorkItems runs, in FIFO order, the items that were pending when it
// was called. Items posted while it runs wait for the next call. Every item
// runs even if an earlier one fails; the errors are joined.
func (wq *WorkQueue) ProcessWorkItems() error {
	wq.mu.Lock()
	pending := make([]workEntry, 0, wq.items.Len())
	for !wq.items.IsEmpty() {
		e, _ := wq.items.Dequeue()
		pending = append(pending, e)
	}
	wq.mu.Unlock()

	var errs []error
	for _, e := range pending {
		err := e.fn()
		if e.done != nil {
			e.done <- err
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close rejects further posts. Senders still waiting are released with
// ErrWorkQueueClosed.
func (wq *WorkQueue) Close() {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	if wq.closed {
		return
	}
	wq.closed = true
	for !wq.items.IsEmpty() {
		e, _ := wq.items.Dequeue()
		if e.done != nil {
			e.done <- ErrWorkQueueClosed
		}
	}
}
