package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetched detail description is reused
const DefaultCacheTTL = 7 * 24 * time.Hour

// DescriptionCache keeps full descriptions by detail URL so repeated runs
// do not fetch unchanged detail pages again. It is safe for concurrent use.
type DescriptionCache struct {
	Descriptions map[string]string    `json:"descriptions"` // detail URL → description
	CachedAt     map[string]time.Time `json:"cached_at"`
	TTL          time.Duration        `json:"-"`

	mu  sync.Mutex
	now func() time.Time
}

// NewDescriptionCache creates an empty cache. A ttl <= 0 uses
// DefaultCacheTTL.
func NewDescriptionCache(ttl time.Duration) *DescriptionCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &DescriptionCache{
		Descriptions: make(map[string]string),
		CachedAt:     make(map[string]time.Time),
		TTL:          ttl,
		now:          time.Now,
	}
}

// LoadDescriptionCache reads a cache written by Save. A missing file yields
// an empty cache.
func LoadDescriptionCache(path string, ttl time.Duration) (*DescriptionCache, error) {
	c := NewDescriptionCache(ttl)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading description cache: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing description cache %s: %w", path, err)
	}
	if c.Descriptions == nil {
		c.Descriptions = make(map[string]string)
	}
	if c.CachedAt == nil {
		c.CachedAt = make(map[string]time.Time)
	}
	c.CleanExpired()
	return c, nil
}

// Get returns the cached description for detailURL. Expired entries are
// removed and reported as missing.
func (c *DescriptionCache) Get(detailURL string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	description, exists := c.Descriptions[detailURL]
	if !exists {
		return "", false
	}

	cachedTime, hasTime := c.CachedAt[detailURL]
	if !hasTime || c.now().Sub(cachedTime) > c.TTL {
		delete(c.Descriptions, detailURL)
		delete(c.CachedAt, detailURL)
		return "", false
	}
	return description, true
}

// Set stores a description
func (c *DescriptionCache) Set(detailURL, description string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Descriptions[detailURL] = description
	c.CachedAt[detailURL] = c.now()
}

// CleanExpired removes expired entries and returns how many were removed
func (c *DescriptionCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, cachedTime := range c.CachedAt {
		if now.Sub(cachedTime) > c.TTL {
			delete(c.Descriptions, key)
			delete(c.CachedAt, key)
			removed++
		}
	}
	for key := range c.Descriptions {
		if _, ok := c.CachedAt[key]; !ok {
			delete(c.Descriptions, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached entries
func (c *DescriptionCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Descriptions)
}

// Save writes the cache to path, replacing it atomically.
func (c *DescriptionCache) Save(path string) error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding description cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing description cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing description cache: %w", err)
	}
	return nil
}
