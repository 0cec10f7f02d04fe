package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterCeiling(t *testing.T) {
	c := NewCounter(2)
	assert.True(t, c.TryAcquire())
	assert.True(t, c.TryAcquire())
	assert.False(t, c.TryAcquire())
	assert.Equal(t, 2, c.Load())

	c.Release()
	assert.Equal(t, 1, c.Load())
	assert.True(t, c.TryAcquire())
}

func TestCounterNeverNegative(t *testing.T) {
	c := NewCounter(1)
	c.Release()
	assert.Equal(t, 0, c.Load())
}

func TestCounterConcurrentBounds(t *testing.T) {
	const ceiling = 3
	c := NewCounter(ceiling)

	var maxSeen atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if !c.TryAcquire() {
					continue
				}
				n := int64(c.Load())
				for {
					cur := maxSeen.Load()
					if n <= cur || maxSeen.CompareAndSwap(cur, n) {
						break
					}
				}
				c.Release()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen.Load(), int64(ceiling))
	assert.Equal(t, 0, c.Load())
}
