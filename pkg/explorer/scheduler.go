package explorer

import (
	"context"
	"sync"
)

// Scheduler defers work off the caller's stack. All provider-side
// asynchronous work (session construction, path resolution, child fetches)
// runs through one Scheduler, so completion events are never delivered
// synchronously from an API call. Accepted work always runs; cancellation
// is not supported.
type Scheduler interface {
	Schedule(job func(ctx context.Context))
}

// Loop is the production scheduler: a single goroutine draining a FIFO
// queue, the one logical event loop of the explorer core.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func(ctx context.Context)
	closed bool
	done   chan struct{}
}

// NewLoop creates and starts a loop scheduler.
func NewLoop() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Schedule appends a job to the queue. Jobs scheduled after Close are
// discarded.
func (l *Loop) Schedule(job func(ctx context.Context)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.queue = append(l.queue, job)
	l.cond.Signal()
}

func (l *Loop) run() {
	defer close(l.done)
	ctx := context.Background()

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		job := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		job(ctx)
	}
}

// Close stops the loop after the already-accepted jobs have run.
func (l *Loop) Close() error {
	l.mu.Lock()
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()

	<-l.done
	return nil
}

// Manual is a scheduler pumped by its owner. Hosts that run their own event
// loop (and tests that need deterministic ordering) queue jobs here and
// drain them explicitly.
type Manual struct {
	mu    sync.Mutex
	queue []func(ctx context.Context)
}

// NewManual creates an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// Schedule appends a job to the queue.
func (m *Manual) Schedule(job func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, job)
}

// Pending reports the number of queued jobs.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Run drains the queue, including jobs queued by the jobs it runs, and
// returns how many ran.
func (m *Manual) Run(ctx context.Context) int {
	ran := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return ran
		}
		job := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		job(ctx)
		ran++
	}
}

// Verify interface compliance.
var (
	_ Scheduler = (*Loop)(nil)
	_ Scheduler = (*Manual)(nil)
)
