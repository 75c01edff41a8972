package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU(100)

	c.Set("a", make([]byte, 40))
	c.Set("b", make([]byte, 40))

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Len(t, v, 40)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(80), c.Size())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(100)

	c.Set("a", make([]byte, 40))
	c.Set("b", make([]byte, 40))
	c.Get("a") // b is now the oldest
	c.Set("c", make([]byte, 40))

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, int64(80), c.Size())
}

func TestLRU_Update(t *testing.T) {
	c := NewLRU(100)

	c.Set("a", make([]byte, 10))
	c.Set("b", make([]byte, 10))
	c.Set("a", make([]byte, 95))

	assert.Equal(t, int64(95), c.Size())
	assert.Equal(t, 1, c.Len())
}

func TestLRU_TooLarge(t *testing.T) {
	c := NewLRU(10)
	c.Set("a", make([]byte, 11))
	assert.Equal(t, 0, c.Len())

	disabled := NewLRU(0)
	disabled.Set("a", []byte("x"))
	assert.Equal(t, 0, disabled.Len())
}

func TestLRU_Remove(t *testing.T) {
	c := NewLRU(100)
	c.Set("a", make([]byte, 10))
	c.Remove("a")
	c.Remove("a")

	assert.Equal(t, 0, c.Len())
	assert.Zero(t, c.Size())
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU(1 << 10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("%d-%d", i, j%10)
				c.Set(key, make([]byte, 16))
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), int64(1<<10))
}
