package observation

import (
	"container/list"
	"fmt"
	"image"
	"sync"
)

// Loader decodes the image for observation idx on demand. Cache calls it
// at most once per idx at a time; concurrent Acquire calls for the same
// idx block on the in-flight load instead of triggering a second one.
type Loader func(idx uint32) (image.Image, int64, error)

// Cache is a bounded, reference-counted image cache. Entries with no
// outstanding reference are eligible for eviction once the cache exceeds
// its byte budget; an Acquire for an evicted index blocks its caller while
// the image is reloaded, the same as a cold miss. Grounded on the
// teacher's cog.TileCache, generalized from a fixed entry-count LRU to a
// byte-budgeted, reference-counted one since texture images vary widely in
// size and stay borrowed for the duration of a tile's texturing pass.
type Cache struct {
	mu     sync.Mutex
	budget int64
	used   int64
	loader Loader

	entries map[uint32]*entry
	lru     *list.List // list of uint32, only entries with refs==0
}

type entry struct {
	img     image.Image
	size    int64
	refs    int
	loading bool
	ready   chan struct{}
	err     error
	lruElem *list.Element
}

// NewCache constructs a cache with the given byte budget, calling loader
// to produce an image on a miss.
func NewCache(budgetBytes int64, loader Loader) *Cache {
	return &Cache{
		budget:  budgetBytes,
		loader:  loader,
		entries: make(map[uint32]*entry),
		lru:     list.New(),
	}
}

// Release returns a reference acquired from Acquire.
type Release func()

// Acquire returns the decoded image for idx, loading it if necessary, and
// a Release the caller must call exactly once when finished with it.
func (c *Cache) Acquire(idx uint32) (image.Image, Release, error) {
	c.mu.Lock()
	e, ok := c.entries[idx]
	if ok {
		for e.loading {
			ready := e.ready
			c.mu.Unlock()
			<-ready
			c.mu.Lock()
			e, ok = c.entries[idx]
			if !ok {
				// The load that was in flight failed and removed the
				// entry; fall through to start a fresh one below.
				break
			}
		}
		if ok {
			e.refs++
			if e.lruElem != nil {
				c.lru.Remove(e.lruElem)
				e.lruElem = nil
			}
			c.mu.Unlock()
			return e.img, func() { c.release(idx) }, nil
		}
	}

	e = &entry{loading: true, ready: make(chan struct{})}
	c.entries[idx] = e
	c.mu.Unlock()

	img, size, err := c.loader(idx)

	c.mu.Lock()
	if err != nil {
		delete(c.entries, idx)
		close(e.ready)
		c.mu.Unlock()
		return nil, nil, fmt.Errorf("observation: loading %d: %w", idx, err)
	}
	e.img, e.size, e.refs, e.loading = img, size, 1, false
	c.used += size
	close(e.ready)
	c.evictLocked()
	c.mu.Unlock()

	return img, func() { c.release(idx) }, nil
}

func (c *Cache) release(idx uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[idx]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		e.refs = 0
		e.lruElem = c.lru.PushBack(idx)
		c.evictLocked()
	}
}

// evictLocked drops unreferenced entries, oldest first, until the cache is
// back within budget or nothing left is evictable. Must be called with
// c.mu held.
func (c *Cache) evictLocked() {
	for c.used > c.budget && c.lru.Len() > 0 {
		front := c.lru.Front()
		idx := front.Value.(uint32)
		e := c.entries[idx]
		if e.refs != 0 {
			break
		}
		c.lru.Remove(front)
		delete(c.entries, idx)
		c.used -= e.size
	}
}

// Len reports the current number of resident entries, for tests and
// diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
