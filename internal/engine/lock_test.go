package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockExclusive(t *testing.T) {
	t.Parallel()

	lock := NewLock()
	assert.False(t, lock.Held())

	assert.True(t, lock.TryAcquire())
	assert.True(t, lock.Held())
	assert.False(t, lock.TryAcquire())

	lock.Release()
	assert.False(t, lock.Held())
	assert.True(t, lock.TryAcquire())
}

func TestLockReleaseUnheldIsNoOp(t *testing.T) {
	t.Parallel()

	lock := NewLock()
	lock.Release()
	lock.Release()
	assert.True(t, lock.TryAcquire())
	lock.Release()
	lock.Release()
	assert.True(t, lock.TryAcquire())
}

func TestLockSingleWinnerUnderContention(t *testing.T) {
	t.Parallel()

	lock := NewLock()
	var acquired atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if lock.TryAcquire() {
				acquired.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load())
}
