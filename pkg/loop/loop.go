// Package loop provides the single goroutine that owns all runtime state.
//
// Everything that touches the document, a controller, or a component runs
// on the loop. Blocking work runs on other goroutines started with Go or
// Await, and its result comes back as a continuation posted with Dispatch.
//
//	l := loop.New()
//	go l.Run(ctx)
//	loop.Await(l, fetchProfile, func(p Profile, err error) {
//	    // runs on the loop
//	})
//
// Headless callers and tests that do not start Run drive the loop with
// Settle, which executes continuations on the calling goroutine until no
// work is left.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ErrSettleTimeout is returned by Settle when work is still outstanding
// after the timeout.
var ErrSettleTimeout = errors.New("loop: settle timed out with work outstanding")

// ErrAlreadyRunning is returned by Run when the loop is already running.
var ErrAlreadyRunning = errors.New("loop: already running")

// DefaultQueueSize is the dispatch queue capacity used by New.
const DefaultQueueSize = 1024

// Loop serializes continuations onto one goroutine.
type Loop struct {
	dispatchCh chan func()
	done       chan struct{}
	closed     atomic.Bool
	running    atomic.Bool
	stopOnce   sync.Once
	inflight   atomic.Int64
	executed   atomic.Uint64
	panics     atomic.Uint64

	logger  *slog.Logger
	onPanic func(recovered any)
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for dropped work and recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithQueueSize sets the dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.dispatchCh = make(chan func(), n)
		}
	}
}

// WithPanicHandler is called on the loop after a continuation panics.
func WithPanicHandler(fn func(recovered any)) Option {
	return func(l *Loop) {
		l.onPanic = fn
	}
}

// New creates a loop. It does not start a goroutine.
func New(opts ...Option) *Loop {
	l := &Loop{
		dispatchCh: make(chan func(), DefaultQueueSize),
		done:       make(chan struct{}),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes continuations until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		}
	}
}

// Stop shuts the loop down. Queued continuations are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	return l.closed.Load()
}

// Dispatch queues fn to run on the loop. It never blocks; work posted to
// a stopped loop or a full queue is discarded.
func (l *Loop) Dispatch(fn func()) {
	if fn == nil || l.closed.Load() {
		return
	}
	select {
	case l.dispatchCh <- fn:
	case <-l.done:
	default:
		l.logger.Warn("dispatch queue full, discarding callback")
	}
}

// Go runs fn on a new goroutine. Settle waits for it to return.
func (l *Loop) Go(fn func()) {
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Add(-1)
		fn()
	}()
}

// Await runs work on a new goroutine and dispatches then with its result.
func Await[T any](l *Loop, work func() (T, error), then func(T, error)) {
	l.Go(func() {
		v, err := work()
		l.Dispatch(func() { then(v, err) })
	})
}

// Drain runs every continuation currently queued without waiting for
// outstanding goroutines. It returns the number executed.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)
			n++
		default:
			return n
		}
	}
}

// Settle runs continuations on the calling goroutine until no goroutine
// started with Go is outstanding and the queue is empty. It must not be
// used while Run is active.
func (l *Loop) Settle(timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()

	for {
		l.Drain()
		if l.inflight.Load() == 0 && len(l.dispatchCh) == 0 {
			return nil
		}
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)
		case <-tick.C:
		case <-deadline.C:
			return ErrSettleTimeout
		}
	}
}

// Until runs continuations on the calling goroutine until cond reports
// true. Use it instead of Settle when a long-lived goroutine, such as a
// socket reader, keeps posting work.
func (l *Loop) Until(cond func() bool, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()

	for {
		l.Drain()
		if cond() {
			return nil
		}
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)
		case <-tick.C:
		case <-deadline.C:
			return ErrSettleTimeout
		}
	}
}

// Stats reports executed continuations and recovered panics.
func (l *Loop) Stats() (executed, panics uint64) {
	return l.executed.Load(), l.panics.Load()
}

// execute runs fn with panic recovery.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
			if l.onPanic != nil {
				l.onPanic(r)
			}
		}
	}()
	l.executed.Add(1)
	fn()
}
