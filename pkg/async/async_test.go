package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()

		f := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		})
		res, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 42, res)
		assert.True(t, f.IsComplete())
	})

	t.Run("propagates error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		_, err := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			return 0, boom
		}).Await(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("recovers panic", func(t *testing.T) {
		t.Parallel()

		_, err := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			panic("kaboom")
		}).Await(context.Background())
		assert.ErrorIs(t, err, async.ErrPanic)
	})

	t.Run("cancelled context skips work", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var called atomic.Bool
		_, err := async.Async(ctx, 0, func(context.Context, int) (int, error) {
			called.Store(true)
			return 0, nil
		}).AwaitWithTimeout(time.Second)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called.Load())
	})

	t.Run("await timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)
		f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			<-release
			return 0, nil
		})
		_, err := f.AwaitWithTimeout(10 * time.Millisecond)
		assert.ErrorIs(t, err, async.ErrTimeout)
		assert.False(t, f.IsComplete())
	})
}

func TestPool(t *testing.T) {
	t.Parallel()

	t.Run("limits concurrency", func(t *testing.T) {
		t.Parallel()

		p := async.NewPool(2)
		defer p.Close()

		var running, peak atomic.Int32
		futures := make([]*async.Future[int], 0, 10)
		for i := range 10 {
			futures = append(futures, async.Submit(context.Background(), p, i, func(_ context.Context, n int) (int, error) {
				cur := running.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return n, nil
			}))
		}
		for i, f := range futures {
			res, err := f.Await(context.Background())
			require.NoError(t, err)
			assert.Equal(t, i, res)
		}
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("queued work honours context", func(t *testing.T) {
		t.Parallel()

		p := async.NewPool(1)
		defer p.Close()

		started := make(chan struct{})
		release := make(chan struct{})
		blocker := async.Submit(context.Background(), p, 0, func(context.Context, int) (int, error) {
			close(started)
			<-release
			return 0, nil
		})
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := async.Run(ctx, p, func(context.Context) (int, error) { return 1, nil })
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		close(release)
		_, err = blocker.Await(context.Background())
		require.NoError(t, err)
	})

	t.Run("closed pool rejects work", func(t *testing.T) {
		t.Parallel()

		p := async.NewPool(1)
		p.Close()
		_, err := async.Run(context.Background(), p, func(context.Context) (int, error) { return 1, nil })
		assert.ErrorIs(t, err, async.ErrPoolClosed)
	})

	t.Run("default size", func(t *testing.T) {
		t.Parallel()

		p := async.NewPool(0)
		defer p.Close()
		assert.Positive(t, p.Size())
	})
}
