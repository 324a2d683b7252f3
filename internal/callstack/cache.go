package callstack

import (
	"container/list"
	"encoding/binary"
	"sync"

	"github.com/zeebo/xxh3"
)

// pathCacheCapacity bounds the number of distinct program-counter
// slices whose cleaned paths are retained.
const pathCacheCapacity = 1024

var pathCache = newLRUCache(pathCacheCapacity)

// lruCache is a fixed-capacity LRU cache mapping a program-counter
// hash to its cleaned call path.
type lruCache struct {
	capacity int
	mu       sync.Mutex
	items    map[uint64]*list.Element
	lruList  *list.List
}

type lruEntry struct {
	key   uint64
	value []string
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		items:    make(map[uint64]*list.Element),
		lruList:  list.New(),
	}
}

// Get retrieves a cleaned path and marks it as recently used.
func (c *lruCache) Get(key uint64) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*lruEntry).value, true
	}
	return nil, false
}

// Put adds or updates a cleaned path in the cache.
func (c *lruCache) Put(key uint64, value []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*lruEntry).value = value
		return
	}

	elem := c.lruList.PushFront(&lruEntry{key: key, value: value})
	c.items[key] = elem

	if c.lruList.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *lruCache) evictOldest() {
	elem := c.lruList.Back()
	if elem != nil {
		c.lruList.Remove(elem)
		delete(c.items, elem.Value.(*lruEntry).key)
	}
}

// Len returns the current number of cached paths.
func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

func hashPCs(pcs []uintptr) uint64 {
	buf := make([]byte, 8*len(pcs))
	for i, pc := range pcs {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(pc))
	}
	return xxh3.Hash(buf)
}
