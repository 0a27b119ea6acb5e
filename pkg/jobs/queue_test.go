package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var handled int32
	done := make(chan string, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		done <- job.ID
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "save"}))
	select {
	case id := <-done:
		assert.NotEmpty(t, id)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&handled))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "save"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueueNoRetryRunsOnce(t *testing.T) {
	var attempts int32
	q := NewQueue("once", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("disk full")
	}, QueueConfig{MaxRetries: NoRetry, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "save"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestQueueCoalescesPendingJobs(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	q := NewQueue("coalesce", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{BufferSize: 4})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	queued, err := q.EnqueueCoalesced(Job{Type: "save"})
	require.NoError(t, err)
	assert.True(t, queued)
	<-started

	queued, err = q.EnqueueCoalesced(Job{Type: "save"})
	require.NoError(t, err)
	assert.True(t, queued, "first job is running, so a new one may wait")

	queued, err = q.EnqueueCoalesced(Job{Type: "save"})
	require.NoError(t, err)
	assert.False(t, queued, "a save is already waiting")
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{Type: "save"}))
}
