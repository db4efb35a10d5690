// Package assets handles asset file lookup and caching across resource
// packs, archives and folders.
package assets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/cubemodel/internal/logger"
	"github.com/Faultbox/cubemodel/pkg/resource"
)

// Manager searches a stack of providers and caches what it reads.
// It implements resource.Loader.
type Manager struct {
	providers []Provider
	cache     *Cache
	mu        sync.RWMutex
	log       *zap.Logger
}

var _ resource.Loader = (*Manager)(nil)

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// AddRoot opens a folder or a zip/jar archive and adds it to the manager.
func (m *Manager) AddRoot(path string) error {
	p, err := OpenProvider(path)
	if err != nil {
		return err
	}
	m.AddProvider(p)
	return nil
}

// AddProvider adds a provider. Providers are searched in reverse order
// (last added = highest priority), so later resource packs override
// earlier ones.
func (m *Manager) AddProvider(p Provider) {
	m.mu.Lock()
	m.providers = append(m.providers, p)
	// Earlier lookups may now resolve differently.
	m.cache.Clear()
	m.mu.Unlock()

	m.log.Debug("added asset source", zap.Stringer("provider", p))
}

// Providers returns the number of providers.
func (m *Manager) Providers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.providers)
}

// Load loads a file from the providers.
func (m *Manager) Load(path string) ([]byte, error) {
	path = normalizePath(path)

	// The cache is only touched under mu so a concurrent AddProvider
	// cannot leave bytes from the old provider stack behind.
	m.mu.RLock()
	defer m.mu.RUnlock()

	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	for i := len(m.providers) - 1; i >= 0; i-- {
		data, err := m.providers[i].Read(path)
		if err == nil {
			m.cache.Set(path, data)
			return data, nil
		}
		if !errors.Is(err, resource.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", m.providers[i], err)
		}
	}

	return nil, fmt.Errorf("%w: %s", resource.ErrNotFound, path)
}

// List returns every path starting with prefix across all providers,
// deduplicated and sorted.
func (m *Manager) List(prefix string) []string {
	prefix = normalizePath(prefix)

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	for _, p := range m.providers {
		for _, path := range p.List() {
			if strings.HasPrefix(path, prefix) {
				seen[path] = true
			}
		}
	}

	result := make([]string, 0, len(seen))
	for path := range seen {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Models lists the model identifiers under namespace, e.g. block/stone for
// assets/minecraft/models/block/stone.json.
func (m *Manager) Models(namespace string) []resource.Identifier {
	prefix := "assets/" + namespace + "/models/"
	var ids []resource.Identifier
	for _, path := range m.List(prefix) {
		rel, ok := strings.CutSuffix(strings.TrimPrefix(path, prefix), ".json")
		if !ok {
			continue
		}
		ids = append(ids, resource.Identifier{Namespace: namespace, Path: rel})
	}
	return ids
}

// Cache returns the manager's byte cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Close closes all providers.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, p := range m.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.providers = nil
	m.cache.Clear()
	return errors.Join(errs...)
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	// Write lock: the stats counters change on every lookup.
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
