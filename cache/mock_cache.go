package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/idelsangithub/node-tree-api/models"
)

// ErrMockFailure is returned by MockCache when it is configured to fail
var ErrMockFailure = errors.New("mock cache failure")

// MockCache is a cache provider that can be used for testing
type MockCache struct {
	mu              sync.RWMutex
	pages           map[string]*models.Page
	ttl             time.Duration
	gen             Generation
	GetPageCalls    int
	SetPageCalls    int
	InvalidateCalls int
	SetTTLCalls     int
	InitCalls       int
	ShouldFail      bool
}

// NewMockCache creates a new mock cache provider
func NewMockCache() *MockCache {
	return &MockCache{
		pages: make(map[string]*models.Page),
		ttl:   DefaultTTL,
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MockCache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InitCalls++
	if c.ShouldFail {
		return ErrMockFailure
	}
	return nil
}

// GetPage retrieves a page from cache if available
func (c *MockCache) GetPage(ctx context.Context, key PageKey) (*models.Page, Generation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetPageCalls++

	if c.ShouldFail {
		return nil, NoGeneration, false
	}
	page, ok := c.pages[key.String()]
	return page, c.gen, ok
}

// SetPage stores a page in cache unless it was invalidated after gen
func (c *MockCache) SetPage(ctx context.Context, key PageKey, page *models.Page, gen Generation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetPageCalls++

	if !c.ShouldFail && gen == c.gen {
		c.pages[key.String()] = page
	}
}

// InvalidateCache removes every page from cache
func (c *MockCache) InvalidateCache(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InvalidateCalls++

	if c.ShouldFail {
		return ErrMockFailure
	}
	c.pages = make(map[string]*models.Page)
	c.gen++
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MockCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetTTLCalls++
	c.ttl = ttl
}

// Len returns the number of cached pages
func (c *MockCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

// GetCallCounts returns the number of times each method was called
func (c *MockCache) GetCallCounts() (getPage, setPage, invalidate, setTTL, init int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.GetPageCalls, c.SetPageCalls, c.InvalidateCalls, c.SetTTLCalls, c.InitCalls
}

// SetShouldFail makes the mock cache fail all operations
func (c *MockCache) SetShouldFail(shouldFail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ShouldFail = shouldFail
}
