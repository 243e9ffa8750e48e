package feature

import "sync"

// attemptCountKey is where the pipeline persists the retry attempt counter
// so it survives pipeline restarts on the same Context.
const attemptCountKey = "trailway.attempts"

// Context is the per-request shared mutable key/value store. Exactly one
// instance exists per request; every step and async task of that request
// receives the same instance by reference. It is the sole inter-step
// communication channel.
//
// The pipeline runs steps sequentially, but async tasks outlive the
// response path, so access is guarded by a mutex.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set stores a value under key, replacing any previous value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get returns the value stored under key and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the string stored under key, or "" if the key is
// absent or holds a non-string value.
func (c *Context) GetString(key string) string {
	v, ok := c.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key from the context.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Len returns the number of stored keys.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Snapshot returns a shallow copy of the stored values. Used when a
// failure captures the Context state for error reporting.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Attempts returns how many retry transitions have occurred for this
// Context. It is zero before the first execution and increments once per
// pipeline restart.
func (c *Context) Attempts() int {
	v, ok := c.Get(attemptCountKey)
	if !ok {
		return 0
	}
	n, _ := v.(int)
	return n
}

// IncrementAttempts bumps the attempt counter and returns the new value.
func (c *Context) IncrementAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := c.values[attemptCountKey].(int)
	n++
	c.values[attemptCountKey] = n
	return n
}
