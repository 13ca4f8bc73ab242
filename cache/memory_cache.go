package cache

import (
	"context"
	"sync"
	"time"

	"github.com/idelsangithub/node-tree-api/models"
)

// MemoryCache implements CacheProvider using in-memory storage
type MemoryCache struct {
	mu       sync.RWMutex
	data     map[string]*models.Page
	ttl      time.Duration
	expiries map[string]time.Time
	gen      Generation
}

// NewMemoryCache creates a new in-memory cache provider
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		ttl:      DefaultTTL,
		data:     make(map[string]*models.Page),
		expiries: make(map[string]time.Time),
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MemoryCache) Initialize(ctx context.Context) error {
	return nil
}

// GetPage retrieves a page from cache if available
func (c *MemoryCache) GetPage(ctx context.Context, key PageKey) (*models.Page, Generation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	k := key.String()
	expiry, exists := c.expiries[k]
	if !exists || time.Now().After(expiry) {
		return nil, c.gen, false
	}

	page, ok := c.data[k]
	return page, c.gen, ok
}

// SetPage stores a page in cache unless the cache was invalidated after gen
func (c *MemoryCache) SetPage(ctx context.Context, key PageKey, page *models.Page, gen Generation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	k := key.String()
	c.data[k] = page
	c.expiries[k] = time.Now().Add(c.ttl)
}

// InvalidateCache removes all cached data
func (c *MemoryCache) InvalidateCache(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*models.Page)
	c.expiries = make(map[string]time.Time)
	c.gen++
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MemoryCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
	// Update all existing expiries
	now := time.Now()
	for key := range c.data {
		c.expiries[key] = now.Add(ttl)
	}
}
