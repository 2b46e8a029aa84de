package taskqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEnqueueRunsTasks(t *testing.T) {
	q := New(zap.NewNop(), 8)
	ctx, cancel := context.WithCancel(context.Background())

	var ran atomic.Int32
	q.Start(ctx, 2)
	for i := 0; i < 5; i++ {
		ok := q.Enqueue("count", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		assert.True(t, ok)
	}

	cancel()
	q.Wait()
	assert.Equal(t, int32(5), ran.Load())
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	q := New(zap.NewNop(), 1)
	// Not started: nothing drains the buffer.
	assert.True(t, q.Enqueue("a", func(ctx context.Context) error { return nil }))
	assert.False(t, q.Enqueue("b", func(ctx context.Context) error { return nil }))
}

func TestFailuresAndPanicsAreContained(t *testing.T) {
	q := New(zap.NewNop(), 8)
	ctx, cancel := context.WithCancel(context.Background())

	var after atomic.Bool
	q.Start(ctx, 1)
	q.Enqueue("fail", func(ctx context.Context) error { return errors.New("db down") })
	q.Enqueue("panic", func(ctx context.Context) error { panic("boom") })
	q.Enqueue("after", func(ctx context.Context) error {
		after.Store(true)
		return nil
	})

	cancel()
	q.Wait()
	assert.True(t, after.Load(), "worker survives failing and panicking tasks")
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := New(zap.NewNop(), 8)
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx, 1)
	cancel()
	q.Wait()

	// The closed flag may race with Wait returning; give the closer a beat.
	assert.Eventually(t, func() bool {
		return !q.Enqueue("late", func(ctx context.Context) error { return nil })
	}, time.Second, 10*time.Millisecond)
}
