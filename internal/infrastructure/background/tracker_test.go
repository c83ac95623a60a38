package background

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

func TestTracker_GoDoesNotBlock(t *testing.T) {
	tr := NewTracker(time.Second, nil)
	release := make(chan struct{})

	start := time.Now()
	tr.Go(context.Background(), "slow", func(ctx context.Context) error {
		<-release
		return nil
	})
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	require.NoError(t, tr.Wait(context.Background()))
}

func TestTracker_WaitForAllTasks(t *testing.T) {
	tr := NewTracker(time.Second, nil)
	var completed atomic.Int32

	for range 10 {
		tr.Go(context.Background(), "task", func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			completed.Add(1)
			return nil
		})
	}

	require.NoError(t, tr.Wait(context.Background()))
	assert.Equal(t, int32(10), completed.Load())
}

func TestTracker_DetachedFromCallerCancellation(t *testing.T) {
	tr := NewTracker(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var taskErr error
	started := make(chan struct{})
	tr.Go(ctx, "detached", func(ctx context.Context) error {
		<-started
		taskErr = ctx.Err()
		return nil
	})
	cancel()
	close(started)

	require.NoError(t, tr.Wait(context.Background()))
	assert.NoError(t, taskErr)
}

func TestTracker_TaskTimeout(t *testing.T) {
	tr := NewTracker(20*time.Millisecond, nil)

	var taskErr error
	tr.Go(context.Background(), "bounded", func(ctx context.Context) error {
		<-ctx.Done()
		taskErr = ctx.Err()
		return taskErr
	})

	require.NoError(t, tr.Wait(context.Background()))
	assert.True(t, errors.Is(taskErr, context.DeadlineExceeded))
}

func TestTracker_WaitRespectsContext(t *testing.T) {
	tr := NewTracker(0, nil)
	release := make(chan struct{})
	defer close(release)

	tr.Go(context.Background(), "stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tr.Wait(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTracker_OnDoneAndPanic(t *testing.T) {
	tr := NewTracker(time.Second, nil)

	var mu sync.Mutex
	results := map[string]error{}
	tr.OnDone(func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		results[name] = err
	})

	tr.Go(context.Background(), "ok", func(ctx context.Context) error { return nil })
	tr.Go(context.Background(), "fail", func(ctx context.Context) error { return errors.New("boom") })
	tr.Go(context.Background(), "panic", func(ctx context.Context) error { panic("oops") })

	require.NoError(t, tr.Wait(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, results["ok"])
	assert.EqualError(t, results["fail"], "boom")
	assert.ErrorContains(t, results["panic"], "oops")
}

func TestTracker_RunsInlineAfterWait(t *testing.T) {
	tr := NewTracker(time.Second, nil)
	require.NoError(t, tr.Wait(context.Background()))

	ran := false
	tr.Go(context.Background(), "late", func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.True(t, ran)
}
