package desktop

import (
	"sync"
	"time"

	"github.com/mj1618/locator-cli/internal/env/snapshot"
	"github.com/mj1618/locator-cli/internal/platform"
)

// cacheKey identifies a unique tree read scope.
type cacheKey struct {
	App      string
	Window   string
	WindowID int
	PID      int
}

func keyFor(opts platform.ReadOptions) cacheKey {
	return cacheKey{App: opts.App, Window: opts.Window, WindowID: opts.WindowID, PID: opts.PID}
}

type cacheEntry struct {
	doc       *snapshot.Document
	timestamp time.Time
}

// TreeCache keeps converted accessibility trees for a short TTL so that the
// several queries of one resolution share a single tree read.
type TreeCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewTreeCache creates a new cache. A ttl of 0 disables caching.
func NewTreeCache(ttl time.Duration) *TreeCache {
	return &TreeCache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Document returns the cached tree for opts if within TTL, otherwise reads
// and converts a fresh one.
func (c *TreeCache) Document(reader platform.Reader, opts platform.ReadOptions) (*snapshot.Document, error) {
	if c.ttl == 0 {
		return read(reader, opts)
	}

	key := keyFor(opts)
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.timestamp) < c.ttl {
		c.mu.Unlock()
		return entry.doc, nil
	}
	c.mu.Unlock()

	doc, err := read(reader, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{doc: doc, timestamp: c.now()}
	c.mu.Unlock()
	return doc, nil
}

func read(reader platform.Reader, opts platform.ReadOptions) (*snapshot.Document, error) {
	elements, err := reader.ReadElements(opts)
	if err != nil {
		return nil, err
	}
	return Convert(elements), nil
}

// InvalidateAll clears the entire cache.
func (c *TreeCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}
