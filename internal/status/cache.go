package status

import (
	"strings"
	"sync"
)

// Cache is a thread-safe mapping from normalized asset path to its
// last-known status entry.
//
// Reads vastly outnumber writes: the refresh loop and operation
// post-processing write, everything else reads. All methods are safe for
// concurrent use; the internal lock is held only for the map mutation
// itself, never during parsing or I/O.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache creates an empty status cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
	}
}

// NormalizePath converts a path to the cache's canonical form:
// forward slashes, no trailing slash.
func NormalizePath(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Get returns the entry for the given path. Lookups never fail: a path
// that was never queried yields DefaultEntry.
func (c *Cache) Get(path string) Entry {
	path = NormalizePath(path)

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()

	if !ok {
		return DefaultEntry(path)
	}
	return entry
}

// Set stores the entry under its normalized path.
func (c *Cache) Set(path string, entry Entry) {
	path = NormalizePath(path)
	entry.Path = path

	c.mu.Lock()
	c.entries[path] = entry
	c.mu.Unlock()
}

// Merge stores every entry in the given map. The merge is atomic per
// entry, not per batch; last writer wins per path.
func (c *Cache) Merge(entries map[string]Entry) {
	c.mu.Lock()
	for path, entry := range entries {
		path = NormalizePath(path)
		entry.Path = path
		c.entries[path] = entry
	}
	c.mu.Unlock()
}

// MarkPending flags the path as having a query in flight, preserving the
// previous concrete status so readers see "stale but pending" rather
// than nothing.
func (c *Cache) MarkPending(path string) {
	path = NormalizePath(path)

	c.mu.Lock()
	entry, ok := c.entries[path]
	if !ok {
		entry = DefaultEntry(path)
		entry.Status = StatusPending
	}
	entry.Reflection = ReflectionPending
	c.entries[path] = entry
	c.mu.Unlock()
}

// Remove deletes the entries for the given paths. Unknown paths are ignored.
func (c *Cache) Remove(paths []string) {
	c.mu.Lock()
	for _, path := range paths {
		delete(c.entries, NormalizePath(path))
	}
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}

// Keys returns a snapshot of all cached paths.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for path := range c.entries {
		keys = append(keys, path)
	}
	c.mu.RUnlock()
	return keys
}

// Filter returns the paths whose entries satisfy the predicate. The
// predicate runs under the read lock and must not block.
func (c *Cache) Filter(pred func(Entry) bool) []string {
	c.mu.RLock()
	var paths []string
	for path, entry := range c.entries {
		if pred(entry) {
			paths = append(paths, path)
		}
	}
	c.mu.RUnlock()
	return paths
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of all entries, for persistence.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.RLock()
	out := make(map[string]Entry, len(c.entries))
	for path, entry := range c.entries {
		out[path] = entry
	}
	c.mu.RUnlock()
	return out
}
