// Package loop runs operations on a single owning goroutine.
//
// A Guard is the only way code on other goroutines touches state owned by
// the loop: Submit queues an operation, and Run executes queued operations
// one at a time on the goroutine that called Run.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyRunning is returned by Run when another goroutine owns the loop.
	ErrAlreadyRunning = errors.New("loop already running")

	// ErrNoGoroutineID is returned by Run when the runtime does not expose
	// goroutine IDs. Without them the owner cannot be told apart from other
	// callers, and Call from inside an operation would never return.
	ErrNoGoroutineID = errors.New("goroutine id unavailable")
)

// Guard marshals operations onto its owning goroutine.
type Guard struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	owner atomic.Int64
	log   zerolog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger used for recovered operation panics.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Guard) {
		g.log = l
	}
}

// New creates a guard. Operations submitted before Run is called are queued
// and execute once the loop starts.
func New(opts ...Option) *Guard {
	g := &Guard{
		wake: make(chan struct{}, 1),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsOwner reports whether the caller is running on the loop goroutine.
func (g *Guard) IsOwner() bool {
	id := g.owner.Load()
	return id != 0 && id == goid.Get()
}

// Submit runs op synchronously when called from the loop goroutine, and
// otherwise queues it and returns immediately. Operations queued from the same
// goroutine run in the order they were submitted.
func (g *Guard) Submit(op func()) {
	if op == nil {
		return
	}
	if g.IsOwner() {
		g.exec(op)
		return
	}

	g.mu.Lock()
	g.queue = append(g.queue, op)
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Call runs op on the loop goroutine and waits for it to finish. It is how
// other goroutines copy values out of loop-owned state.
func (g *Guard) Call(ctx context.Context, op func()) error {
	if g.IsOwner() {
		g.exec(op)
		return nil
	}

	done := make(chan struct{})
	g.Submit(func() {
		defer close(done)
		op()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run makes the calling goroutine the owner and executes queued operations
// until ctx is cancelled. Operations already queued at cancellation still run
// before Run returns.
func (g *Guard) Run(ctx context.Context) error {
	id := goid.Get()
	if id == 0 {
		return ErrNoGoroutineID
	}
	if !g.owner.CompareAndSwap(0, id) {
		return ErrAlreadyRunning
	}
	defer g.owner.Store(0)

	for {
		g.drain()
		select {
		case <-ctx.Done():
			g.drain()
			return ctx.Err()
		case <-g.wake:
		}
	}
}

// Pending returns the number of queued operations.
func (g *Guard) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

func (g *Guard) drain() {
	for {
		g.mu.Lock()
		batch := g.queue
		g.queue = nil
		g.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, op := range batch {
			g.exec(op)
		}
	}
}

// exec runs a single operation. A panicking operation is logged and does not
// take the loop down with it.
func (g *Guard) exec(op func()) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Str("panic", fmt.Sprint(r)).Msg("loop operation panicked")
		}
	}()
	op()
}
