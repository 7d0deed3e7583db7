package embedcache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

var _ Cache = (*LRU)(nil)

// LRU is a bounded in-memory Cache. Capacity is counted in entries.
type LRU struct {
	mu        sync.Mutex
	capacity  int
	items     map[Key]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   Key
	value []float32
}

// NewLRU creates an LRU cache holding at most capacity vectors.
// A capacity <= 0 means 10000.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = 10000
	}
	return &LRU{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a cached vector.
func (c *LRU) Get(_ context.Context, key Key) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true, nil
	}
	c.misses.Add(1)
	return nil, false, nil
}

// Put caches a vector. The cache keeps its own copy.
func (c *LRU) Put(_ context.Context, key Key, vec []float32) error {
	v := append([]float32(nil), vec...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry).value = v
		return nil
	}

	for c.evictList.Len() >= c.capacity {
		c.removeElement(c.evictList.Back())
	}

	c.items[key] = c.evictList.PushFront(&entry{key: key, value: v})
	return nil
}

func (c *LRU) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	delete(c.items, e.Value.(*entry).key)
}

// Len returns the number of cached vectors.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
