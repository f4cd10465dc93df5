// Package pipeline provides the cooperative scheduler and the per-entity step
// sequencer used to initialize the map hierarchy.
//
// All entity code runs on a single Loop goroutine. Work that completes
// elsewhere (an HTTP response, a timer) re-enters by posting a task.
package pipeline

import (
	"context"
	"sync"
)

// Loop is a single-threaded FIFO task queue. Post is safe from any
// goroutine; tasks themselves always run one at a time on whichever
// goroutine is draining the loop.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	claimed bool
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post schedules fn to run after every task already queued.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// RunPending drains the queue, including tasks posted while draining,
// and returns how many tasks ran.
func (l *Loop) RunPending() int {
	n := 0
	for {
		fn, ok := l.pop()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Run drains tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunUntil drains tasks until cond reports true, waiting for posts from
// other goroutines in between. cond is evaluated on the draining goroutine.
func (l *Loop) RunUntil(ctx context.Context, cond func() bool) error {
	for {
		l.RunPending()
		if cond() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Call posts fn and blocks until it has run. It must not be called from a
// task on the same loop, and requires some goroutine to be running the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Claim marks the loop as owned by an application root. It returns false
// when the loop was already claimed.
func (l *Loop) Claim() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimed {
		return false
	}
	l.claimed = true
	return true
}
