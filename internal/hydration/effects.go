package hydration

import (
	"context"
	"sync"
)

type effect func(ctx context.Context)

// effectQueue runs side effects one at a time, in the order they were
// enqueued, on a single goroutine.
type effectQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []effect
	closed bool
	done   chan struct{}
}

func newEffectQueue() *effectQueue {
	q := &effectQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// enqueue returns false once the queue is closed
func (q *effectQueue) enqueue(job effect) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, job)
	q.cond.Signal()
	return true
}

func (q *effectQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		job(context.Background())
	}
}

// flush waits until every job enqueued before the call has run
func (q *effectQueue) flush(ctx context.Context) error {
	marker := make(chan struct{})
	if !q.enqueue(func(context.Context) { close(marker) }) {
		marker = q.done
	}
	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting jobs and waits for the queued ones to drain
func (q *effectQueue) close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
