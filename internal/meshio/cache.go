package meshio

import (
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ironsheep/mesh-tools-mcp/internal/mesh"
)

// Cache provides thread-safe caching of decoded meshes to avoid re-parsing
// the same file on every tool call.
//
// Entries are keyed by the exact path string. A cached entry is reused only
// while the file's size and modification time are unchanged, so a mesh
// rewritten by another process is picked up on the next Load.
//
//	cache := meshio.NewCache()
//	m, err := cache.Load("/tmp/sphere.stl")
type Cache struct {
	mu     sync.RWMutex
	meshes map[string]cacheEntry
}

type cacheEntry struct {
	mesh    *mesh.Mesh
	size    int64
	modTime time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		meshes: make(map[string]cacheEntry),
	}
}

// Load returns the mesh at path, decoding it only if it is not cached or the
// file changed since it was cached. Callers must not modify the result.
func (c *Cache) Load(path string) (*mesh.Mesh, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mesh")
	}

	c.mu.RLock()
	entry, ok := c.meshes[path]
	c.mu.RUnlock()
	if ok && entry.size == stat.Size() && entry.modTime.Equal(stat.ModTime()) {
		return entry.mesh, nil
	}

	m, err := Read(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.meshes[path] = cacheEntry{mesh: m, size: stat.Size(), modTime: stat.ModTime()}
	c.mu.Unlock()

	return m, nil
}

// Save writes m to path and drops any cached entry for it.
func (c *Cache) Save(path string, m *mesh.Mesh) error {
	c.Evict(path)
	return Write(path, m)
}

// Evict removes a single path from the cache. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.meshes, path)
	c.mu.Unlock()
}

// Clear removes every cached mesh.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.meshes = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of cached meshes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.meshes)
}
