package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadLimiter_SlotAccounting(t *testing.T) {
	limiter := NewUploadLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, UploadLimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}, limiter.Status())

	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	assert.Equal(t, UploadLimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}, limiter.Status())

	limiter.Release()
	assert.Equal(t, 1, limiter.ActiveCount())
	assert.Equal(t, 1, limiter.Status().Available)

	limiter.Release()
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestUploadLimiter_FullLimiterTimesOut(t *testing.T) {
	limiter := NewUploadLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Acquire(ctx))
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, ErrTooManyUploads)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestUploadLimiter_CallerCancellation(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Minute)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled, "caller cancellation must not be reported as busy")
}

func TestUploadLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewUploadLimiter(maxConcurrent, 5*time.Second)

	var (
		wg      sync.WaitGroup
		current atomic.Int32
		peak    atomic.Int32
	)
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer limiter.Release()

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(peak.Load()), maxConcurrent)
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestUploadLimiter_ReleaseUnblocksWaiter(t *testing.T) {
	limiter := NewUploadLimiter(1, 5*time.Second)
	require.NoError(t, limiter.Acquire(context.Background()))

	acquired := make(chan error, 1)
	go func() { acquired <- limiter.Acquire(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	limiter.Release()

	select {
	case err := <-acquired:
		require.NoError(t, err)
		limiter.Release()
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not unblocked by Release")
	}
}

func TestUploadLimiter_Defaults(t *testing.T) {
	limiter := NewUploadLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentUploads, limiter.MaxConcurrent())
	assert.Equal(t, DefaultMaxWaitTime, limiter.maxWait)
}
