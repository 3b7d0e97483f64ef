package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startQueue(t *testing.T, handler Handler, cfg QueueConfig) *Queue {
	t.Helper()
	q := NewQueue("test", handler, cfg)
	q.Start(context.Background())
	t.Cleanup(q.Stop)
	return q
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan Job, 1)
	q := startQueue(t, func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("storage offline")
		}
		done <- job
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})

	require.NoError(t, q.Enqueue(Job{ID: "backup-1", Type: "backup"}))

	select {
	case job := <-done:
		assert.Equal(t, 2, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestQueueStopsAfterMaxRetries(t *testing.T) {
	var calls int32
	q := startQueue(t, func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("always failing")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})

	require.NoError(t, q.Enqueue(Job{ID: "backup-1"}))
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueuePermanentErrorSkipsRetries(t *testing.T) {
	var calls int32
	q := startQueue(t, func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return Permanent(errors.New("unknown job type"))
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Millisecond})

	require.NoError(t, q.Enqueue(Job{ID: "x"}))
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueueRejectsDuplicatePendingJob(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	q := startQueue(t, func(ctx context.Context, _ Job) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{})
	t.Cleanup(func() { once.Do(func() { close(release) }) })

	require.NoError(t, q.Enqueue(Job{ID: "backup-1"}))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "backup-1"}), ErrDuplicate)
	assert.NoError(t, q.Enqueue(Job{ID: "backup-2"}))

	once.Do(func() { close(release) })
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
	assert.NoError(t, q.Enqueue(Job{ID: "backup-1"}))
}

func TestQueueFullAndNotStarted(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{BufferSize: 1})
	assert.ErrorIs(t, q.Enqueue(Job{ID: "a"}), ErrNotStarted)

	block := make(chan struct{})
	q = startQueue(t, func(ctx context.Context, _ Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	defer close(block)

	require.NoError(t, q.Enqueue(Job{ID: "running"}))
	assert.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "buffered"}))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "overflow"}), ErrQueueFull)
}
