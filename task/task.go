// Package task models the simulated asynchronous operations of the service
// (catalog load, login, payment) as cancellable waits, so tests can complete
// them deterministically instead of sleeping.
package task

import (
	"context"
	"sync"
	"time"
)

// Clock waits for d or until ctx is done.
type Clock interface {
	Wait(ctx context.Context, d time.Duration) error
}

// Real waits on a timer.
type Real struct{}

func (Real) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Instant completes every wait immediately unless ctx is already done.
type Instant struct{}

func (Instant) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Manual completes a wait only when Fire is called.
type Manual struct {
	gate    chan struct{}
	entered chan struct{}
}

func NewManual() *Manual {
	return &Manual{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 16),
	}
}

func (m *Manual) Wait(ctx context.Context, _ time.Duration) error {
	select {
	case m.entered <- struct{}{}:
	default:
	}

	select {
	case <-m.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entered receives once per goroutine that started waiting.
func (m *Manual) Entered() <-chan struct{} {
	return m.entered
}

// Fire releases one waiter, blocking until there is one.
func (m *Manual) Fire() {
	m.gate <- struct{}{}
}

// After waits d on clock and then runs fn. If the wait is cancelled fn never
// runs and the context error is returned.
func After[T any](ctx context.Context, clock Clock, d time.Duration, fn func() (T, error)) (T, error) {
	if err := clock.Wait(ctx, d); err != nil {
		var zero T
		return zero, err
	}
	return fn()
}

// Guard admits one in-flight operation per key.
type Guard struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{pending: make(map[string]struct{})}
}

// TryAcquire returns a release func and true when no operation for key is
// in flight, and false otherwise.
func (g *Guard) TryAcquire(key string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.pending[key]; busy {
		return nil, false
	}
	g.pending[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.pending, key)
			g.mu.Unlock()
		})
	}, true
}

func (g *Guard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.pending[key]
	return busy
}
