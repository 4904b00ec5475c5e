// Package cache persists archive sizes probed from download servers so plan
// previews and byte-weighted progress do not re-query every file.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauern/modsync/internal/util"
)

// Entry is a cached archive size.
type Entry struct {
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Filename string    `json:"filename,omitempty"`
	CachedAt time.Time `json:"cached_at"`
}

// Cache maps file ids to probed sizes. It is safe for concurrent use.
type Cache struct {
	Version string           `json:"version"`
	Entries map[string]Entry `json:"entries"`

	path string
	ttl  time.Duration
	mu   sync.RWMutex
	now  func() time.Time
}

const (
	cacheVersion = "1.0"
	// DefaultTTL is the default time-to-live for cache entries
	DefaultTTL = 24 * time.Hour
)

// New creates or loads the cache named name (e.g. "sizes") in cacheDir.
// If cacheDir is empty, defaults to ~/.modsync/cache. A ttl of zero uses
// DefaultTTL.
func New(name, cacheDir string, ttl time.Duration) (*Cache, error) {
	if cacheDir == "" {
		cacheDir = util.ModsyncCachePath()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return nil, err
	}

	cachePath := filepath.Join(cacheDir, name+".json")
	c := &Cache{
		Version: cacheVersion,
		Entries: make(map[string]Entry),
		path:    cachePath,
		ttl:     ttl,
		now:     time.Now,
	}

	// #nosec G304 - cachePath is constructed from trusted configuration path
	if data, err := os.ReadFile(cachePath); err == nil {
		if err := json.Unmarshal(data, c); err != nil {
			// Corrupted cache, start fresh
			c.Entries = make(map[string]Entry)
		}
		if c.Version != cacheVersion {
			c.Entries = make(map[string]Entry)
			c.Version = cacheVersion
		}
		if c.Entries == nil {
			c.Entries = make(map[string]Entry)
		}
	}

	return c, nil
}

// Get returns the cached entry for id if it was probed from the same url
// and has not expired.
func (c *Cache) Get(id, url string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.Entries[id]
	if !ok || entry.URL != url {
		return Entry{}, false
	}
	if c.now().Sub(entry.CachedAt) > c.ttl {
		return Entry{}, false
	}
	return entry, true
}

// Set stores the probed size for id.
func (c *Cache) Set(id, url string, size int64, filename string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries[id] = Entry{URL: url, Size: size, Filename: filename, CachedAt: c.now()}
}

// Save persists the cache to disk
func (c *Cache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	// #nosec G306 - cache files should be readable by user
	return os.WriteFile(c.path, data, 0o644)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.Entries = make(map[string]Entry)
	c.mu.Unlock()
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Size returns the number of entries in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Prune removes expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	pruned := 0
	for key, entry := range c.Entries {
		if c.now().Sub(entry.CachedAt) > c.ttl {
			delete(c.Entries, key)
			pruned++
		}
	}
	return pruned
}
