package selector

import "sync"

// depthCache memoizes branch depths per selector text. The cache is the
// only shared mutable state of a Compiler; it belongs to one compiler
// instance, so distinct selector namespaces never share entries.
type depthCache struct {
	mu sync.RWMutex
	m  map[string]int
}

func newDepthCache() *depthCache {
	return &depthCache{m: make(map[string]int)}
}

func (c *depthCache) get(text string) (int, bool) {
	c.mu.RLock()
	d, ok := c.m[text]
	c.mu.RUnlock()
	return d, ok
}

func (c *depthCache) put(text string, depth int) {
	c.mu.Lock()
	c.m[text] = depth
	c.mu.Unlock()
}
