package executor

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolDo(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	ran := false
	require.NoError(t, pool.Do(func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	want := errors.New("boom")
	assert.ErrorIs(t, pool.Do(func() error { return want }), want)
}

func TestPoolBoundedConcurrency(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(func() error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestPoolDefaultWorkers(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	assert.Equal(t, DefaultWorkers, pool.workers)
	require.NoError(t, pool.Do(func() error { return nil }))
}

func TestPoolClose(t *testing.T) {
	pool := New(2)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- pool.Do(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	close(release)

	// Close waits for in-flight work before returning.
	pool.Close()
	require.NoError(t, <-done)

	assert.ErrorIs(t, pool.Do(func() error { return nil }), ErrClosed)

	pool.Close() // idempotent
}

func TestPoolCloseWithoutStart(t *testing.T) {
	pool := New(2)
	pool.Close()
	assert.ErrorIs(t, pool.Do(func() error { return nil }), ErrClosed)
}
