// Package loop provides the single-goroutine event loop that owns all
// editor state.
//
// Every handler and every completion callback runs on the loop goroutine,
// one at a time, so the document, its markers and the overlay engines need
// no locking. Blocking work runs elsewhere through Go, which posts its
// completion back to the loop.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dshills/citemark/internal/logging"
)

// ErrStopped is returned by Run after Stop.
var ErrStopped = errors.New("event loop stopped")

// Loop runs posted functions in order on one goroutine.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	idle  chan struct{}

	inflight atomic.Int64
	stopped  atomic.Bool
	stop     chan struct{}

	logger *logging.Logger
}

// New creates a loop.
func New(logger *logging.Logger) *Loop {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		idle:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		logger: logger.WithComponent("loop"),
	}
}

// Post queues fn to run on the loop. It is safe to call from any
// goroutine. Functions posted after Stop are dropped.
func (l *Loop) Post(fn func()) {
	if l.stopped.Load() {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes posted functions until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return ErrStopped
		case <-l.wake:
		}
	}
}

// RunPending executes every queued function, including ones queued while
// running, and returns how many ran. It must only be called from the loop
// goroutine.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			l.call(fn)
			n++
		}
	}
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("handler panic: %v", r)
		}
	}()
	fn()
}

// Stop makes Run return. Stopping twice is a no-op.
func (l *Loop) Stop() {
	if l.stopped.Swap(true) {
		return
	}
	close(l.stop)
}

// InFlight returns the number of Go calls whose completion has not run.
func (l *Loop) InFlight() int {
	return int(l.inflight.Load())
}

// Go runs work on a new goroutine and posts done with its result to the
// loop. The loop counts the call as in flight until done has run.
func Go[T any](l *Loop, ctx context.Context, work func(context.Context) (T, error), done func(T, error)) {
	l.inflight.Add(1)
	go func() {
		v, err := work(ctx)
		l.Post(func() {
			defer l.finish()
			done(v, err)
		})
	}()
}

func (l *Loop) finish() {
	if l.inflight.Add(-1) == 0 {
		select {
		case l.idle <- struct{}{}:
		default:
		}
	}
}

// Settle runs the loop on the calling goroutine until no Go call is in
// flight and the queue is empty, or ctx is done. It is for batch use,
// where the caller owns the loop.
func (l *Loop) Settle(ctx context.Context) error {
	for {
		l.RunPending()
		if l.inflight.Load() == 0 {
			l.mu.Lock()
			empty := len(l.queue) == 0
			l.mu.Unlock()
			if empty {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-l.idle:
		}
	}
}
