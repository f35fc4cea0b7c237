package cache

import (
	"context"
	"sync"
)

// Cache is a session-scoped keyed store. Entries are never evicted;
// the whole cache is cleared on logout. Concurrent misses on one key
// share a single fill call, so a fetch is issued at most once per key
// no matter how many callers race for it.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]any
	inflight map[string]*call
}

type call struct {
	done chan struct{}
	val  any
	err  error
}

func New() *Cache {
	return &Cache{
		entries:  make(map[string]any),
		inflight: make(map[string]*call),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = val
}

// GetOrFill returns the cached value for key, filling it on a miss.
// Errors from fill are not cached: the next caller retries. The fill
// runs on the first caller's ctx; a waiter whose ctx ends returns
// early with ctx.Err() while the fill itself keeps running.
func (c *Cache) GetOrFill(ctx context.Context, key string, fill func(ctx context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.val, cl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.val, cl.err = fill(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if cl.err == nil {
		c.entries[key] = cl.val
	}
	c.mu.Unlock()
	close(cl.done)
	return cl.val, cl.err
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. In-flight fills finish but their results
// land in the old generation of the map and are discarded.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
}
