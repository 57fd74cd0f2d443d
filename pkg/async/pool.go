package async

import (
	"context"
	"runtime"
	"sync"
)

// Pool bounds how many submitted functions run at the same time.
// Excess submissions wait for a free slot or for their context to end.
type Pool struct {
	slots chan struct{}

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a pool running at most size functions concurrently.
// A size below 1 defaults to GOMAXPROCS.
func NewPool(size int) *Pool {
	if size < 1 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Size returns the maximum number of concurrently running functions.
func (p *Pool) Size() int { return cap(p.slots) }

// Submit schedules fn on the pool and returns a Future for its result.
func Submit[T any, U any](ctx context.Context, p *Pool, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		var zero U
		f.resolve(zero, ErrPoolClosed)
		return f
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	go func() {
		defer p.wg.Done()

		select {
		case p.slots <- struct{}{}:
		case <-ctx.Done():
			var zero U
			f.resolve(zero, ctx.Err())
			return
		}
		defer func() { <-p.slots }()

		f.resolve(call(ctx, param, fn))
	}()

	return f
}

// Run submits fn and waits for it.
func Run[U any](ctx context.Context, p *Pool, fn func(context.Context) (U, error)) (U, error) {
	return Submit(ctx, p, struct{}{}, func(ctx context.Context, _ struct{}) (U, error) {
		return fn(ctx)
	}).Await(ctx)
}

// Close stops accepting work and waits for submitted functions to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
