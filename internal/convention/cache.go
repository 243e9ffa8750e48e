package convention

import "sync"

// Cache memoizes resolutions keyed by method-boundary directory. It is
// safe for concurrent use; duplicate computation on a racing miss is
// acceptable, so Put never checks for an existing entry. Reset exists
// for tests and for watch-mode rescans.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Resolution
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Resolution)}
}

// Get returns the cached resolution for the boundary directory, if any.
func (c *Cache) Get(boundaryDir string) (*Resolution, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[boundaryDir]
	return res, ok
}

// Put stores a resolution for the boundary directory.
func (c *Cache) Put(boundaryDir string, res *Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[boundaryDir] = res
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset discards all cached entries.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Resolution)
}
