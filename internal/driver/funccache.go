package driver

import (
	"sync"
)

type cached struct {
	digest Digest
	res    Result
}

// FuncCache is a per-process cache of lowering results keyed by function
// name and digest.
type FuncCache struct {
	mu     sync.RWMutex
	byName map[string]cached
}

// NewFuncCache creates a FuncCache with the given capacity hint.
func NewFuncCache(capHint int) *FuncCache {
	return &FuncCache{byName: make(map[string]cached, capHint)}
}

// Get returns the result stored for name when its digest matches.
func (c *FuncCache) Get(name string, d Digest) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	c.mu.RLock()
	rec, ok := c.byName[name]
	c.mu.RUnlock()
	if !ok || rec.digest != d {
		return Result{}, false
	}
	return rec.res, true
}

// Put stores r under its name and digest.
func (c *FuncCache) Put(d Digest, r Result) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byName[r.Name] = cached{digest: d, res: r}
	c.mu.Unlock()
}

// Len is the number of cached functions.
func (c *FuncCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}
