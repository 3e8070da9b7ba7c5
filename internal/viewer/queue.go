package viewer

import "sync"

// Queue hands work from background goroutines to the frame goroutine.
// Posted functions run in order at the start of the next Tick.
type Queue struct {
	mu    sync.Mutex
	items []func()
}

// Post appends fn. Safe for concurrent use.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()
}

// Drain removes and returns everything posted so far.
func (q *Queue) Drain() []func() {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
