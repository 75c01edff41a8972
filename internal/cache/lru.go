package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// LRU caches immutable byte slices by name within a byte capacity.
// Returned slices must be treated as read-only.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   string
	value []byte
}

// NewLRU creates a cache holding at most capacity bytes.
// A capacity <= 0 disables caching.
func NewLRU(capacity int64) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a cached value.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches value under key. Values larger than the capacity are not cached.
func (c *LRU) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	itemSize := int64(len(value))
	if itemSize > c.capacity {
		return
	}

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*entry)
		c.size += itemSize - int64(len(e.value))
		e.value = value
		c.evict()
		return
	}

	for c.size+itemSize > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}

	c.items[key] = c.evictList.PushFront(&entry{key: key, value: value})
	c.size += itemSize
}

// Remove drops key from the cache.
func (c *LRU) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
	}
}

// Stats returns hit and miss counters.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the current size of the cache in bytes.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU) evict() {
	for c.size > c.capacity {
		element := c.evictList.Back()
		if element == nil {
			return
		}
		c.removeElement(element)
	}
}

func (c *LRU) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(c.items, kv.key)
	c.size -= int64(len(kv.value))
}
