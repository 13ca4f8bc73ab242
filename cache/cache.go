package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/idelsangithub/node-tree-api/config"
	"github.com/idelsangithub/node-tree-api/models"

	"go.uber.org/zap"
)

// DefaultTTL is the lifetime of a cached page unless configured otherwise
const DefaultTTL = 5 * time.Minute

// ErrCacheInitialization is returned when a provider cannot be set up
var ErrCacheInitialization = errors.New("cache initialization failed")

// CacheProvider defines the interface for cache implementations.
// It caches formatted listing pages.
type CacheProvider interface {
	// GetPage retrieves a cached page.
	// Returns:
	//   - The cached page
	//   - The generation the lookup ran under
	//   - A boolean indicating whether the page was found in cache
	GetPage(ctx context.Context, key PageKey) (*models.Page, Generation, bool)

	// SetPage stores a page computed under gen. The page is dropped when an
	// invalidation happened after gen was read.
	SetPage(ctx context.Context, key PageKey, page *models.Page, gen Generation)

	// InvalidateCache drops every cached page.
	// This is called whenever the tree or its translations change.
	InvalidateCache(ctx context.Context) error

	// SetCacheTTL sets the cache time-to-live duration.
	SetCacheTTL(ttl time.Duration)

	// Initialize performs any necessary setup for the cache provider.
	// This may include establishing connections or creating tables.
	Initialize(ctx context.Context) error
}

// Generation is an invalidation epoch. Every InvalidateCache starts a new one.
type Generation int64

// NoGeneration is returned when the current generation could not be read.
// Pages set under it are never stored.
const NoGeneration Generation = -1

// PageKey identifies one listing page as requested by a client
type PageKey struct {
	Kind     string // "roots" or "children"
	NodeID   int64
	Depth    int
	Page     int
	PerPage  int
	Locale   string
	Timezone string
}

// String renders the key; generation scopes it to one invalidation epoch
func (k PageKey) String() string {
	return fmt.Sprintf("nodes:%s:%d:%d:%d:%d:%s:%s",
		k.Kind, k.NodeID, k.Depth, k.Page, k.PerPage, k.Locale, k.Timezone)
}

// pageKey scopes a page key to one generation
func pageKey(key PageKey, gen Generation) string {
	return fmt.Sprintf("%s:g%d", key.String(), gen)
}

// New builds and initializes the provider selected by the configuration
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (CacheProvider, error) {
	var provider CacheProvider
	switch cfg.CacheBackend {
	case config.CacheNone:
		provider = NewNoopCache()
	case config.CacheMemory:
		provider = NewMemoryCache()
	case config.CacheRedis:
		provider = NewRedisCache(cfg.RedisAddr, logger)
	case config.CacheDynamoDB:
		dynamo, err := NewDynamoDBCache(ctx, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheInitialization, err)
		}
		provider = dynamo
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrCacheInitialization, cfg.CacheBackend)
	}

	provider.SetCacheTTL(cfg.CacheTTL)
	if err := provider.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheInitialization, err)
	}
	return provider, nil
}

// NoopCache never stores anything
type NoopCache struct{}

// NewNoopCache creates a cache that always misses
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (NoopCache) GetPage(ctx context.Context, key PageKey) (*models.Page, Generation, bool) {
	return nil, NoGeneration, false
}
func (NoopCache) SetPage(ctx context.Context, key PageKey, page *models.Page, gen Generation) {}
func (NoopCache) InvalidateCache(ctx context.Context) error                                  { return nil }
func (NoopCache) SetCacheTTL(ttl time.Duration)                                              {}
func (NoopCache) Initialize(ctx context.Context) error                                       { return nil }
