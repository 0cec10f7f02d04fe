package effect

import (
	"sync"

	"golang.org/x/crypto/blake2b"
)

// defaultCacheSize bounds how many distinct manifests a Cache keeps.
const defaultCacheSize = 16

// Digest identifies manifest contents.
type Digest [blake2b.Size256]byte

// Cache holds parsed manifests keyed by the BLAKE2b-256 digest of their
// bytes. Cached manifests are shared and must not be modified.
type Cache struct {
	mu      sync.Mutex
	size    int
	entries map[Digest]*Manifest
	order   []Digest
	hits    uint64
	misses  uint64
}

// NewCache returns a cache holding at most size manifests. size < 1 uses
// the default.
func NewCache(size int) *Cache {
	if size < 1 {
		size = defaultCacheSize
	}
	return &Cache{
		size:    size,
		entries: make(map[Digest]*Manifest),
	}
}

// Parse returns the manifest for data, parsing it only when the digest has
// not been seen. Parse failures are not cached.
func (c *Cache) Parse(data []byte) (*Manifest, Digest, error) {
	digest := Digest(blake2b.Sum256(data))

	c.mu.Lock()
	if m, ok := c.entries[digest]; ok {
		c.hits++
		c.mu.Unlock()
		return m, digest, nil
	}
	c.misses++
	c.mu.Unlock()

	m, err := ParseManifest(data)
	if err != nil {
		return nil, digest, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[digest]; !ok {
		c.entries[digest] = m
		c.order = append(c.order, digest)
		if len(c.order) > c.size {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
	}
	return m, digest, nil
}

// Len returns the number of cached manifests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache hits and misses.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
