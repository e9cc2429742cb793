package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shutdown(t *testing.T, p *WorkerPool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Shutdown(ctx)
}

func TestWorkerPool_RunsJobs(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 3, 10)

	var ran atomic.Int32
	for range 10 {
		require.True(t, pool.Submit(func(context.Context) { ran.Add(1) }))
	}

	shutdown(t, pool)
	assert.Equal(t, int32(10), ran.Load())
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 1)
	shutdown(t, pool)

	assert.False(t, pool.Submit(func(context.Context) {}))
	// second shutdown is harmless
	shutdown(t, pool)
}

func TestWorkerPool_DropsWhenFull(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 1)
	defer shutdown(t, pool)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, pool.Submit(func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	require.True(t, pool.Submit(func(context.Context) {}))
	assert.False(t, pool.Submit(func(context.Context) {}))
	close(release)
}

func TestWorkerPool_RecoversFromPanic(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 2)

	done := make(chan struct{})
	pool.Submit(func(context.Context) { panic("boom") })
	pool.Submit(func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive panic")
	}
	shutdown(t, pool)
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after failures", func(t *testing.T) {
		var attempts int
		var dead bool
		job := WithRetry("flaky", 3, time.Millisecond, func(string, error) { dead = true }, func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("not yet")
			}
			return nil
		})

		job(context.Background())
		assert.Equal(t, 3, attempts)
		assert.False(t, dead)
	})

	t.Run("dead letters after max retries", func(t *testing.T) {
		var attempts int
		var deadName string
		var deadErr error
		job := WithRetry("broken", 2, time.Millisecond, func(name string, err error) {
			deadName, deadErr = name, err
		}, func(context.Context) error {
			attempts++
			return errors.New("still broken")
		})

		job(context.Background())
		assert.Equal(t, 2, attempts)
		assert.Equal(t, "broken", deadName)
		assert.EqualError(t, deadErr, "still broken")
	})

	t.Run("stops on canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var attempts int
		job := WithRetry("canceled", 5, time.Hour, nil, func(context.Context) error {
			attempts++
			return errors.New("unused")
		})

		job(ctx)
		assert.Zero(t, attempts)
	})
}
