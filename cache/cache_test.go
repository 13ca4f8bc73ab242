package cache

import (
	"context"
	"testing"
	"time"

	"github.com/idelsangithub/node-tree-api/config"
	"github.com/idelsangithub/node-tree-api/models"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPage() *models.Page {
	parent := int64(1)
	return models.NewPage([]*models.NodeItem{
		{ID: 2, Parent: &parent, Title: "two", CreatedAt: "2024-01-15 12:30:45"},
	}, 1, 15, 1)
}

func rootsKey(locale string) PageKey {
	return PageKey{Kind: "roots", Page: 1, PerPage: 15, Locale: locale, Timezone: "UTC"}
}

func testCacheProvider(t *testing.T, provider CacheProvider) {
	ctx := context.Background()
	page := testPage()

	// Test SetPage and GetPage
	_, gen, found := provider.GetPage(ctx, rootsKey("en"))
	require.False(t, found)
	provider.SetPage(ctx, rootsKey("en"), page, gen)
	cached, _, found := provider.GetPage(ctx, rootsKey("en"))
	assert.True(t, found)
	assert.Equal(t, page, cached)

	// Keys differing in one field are distinct pages
	_, _, found = provider.GetPage(ctx, rootsKey("es"))
	assert.False(t, found)

	// Test cache invalidation
	require.NoError(t, provider.InvalidateCache(ctx))
	_, gen, found = provider.GetPage(ctx, rootsKey("en"))
	assert.False(t, found)

	// Pages stored after an invalidation are served again
	provider.SetPage(ctx, rootsKey("en"), page, gen)
	_, _, found = provider.GetPage(ctx, rootsKey("en"))
	assert.True(t, found)

	// A page computed before an invalidation is never served after it
	_, stale, found := provider.GetPage(ctx, rootsKey("es"))
	require.False(t, found)
	require.NoError(t, provider.InvalidateCache(ctx))
	provider.SetPage(ctx, rootsKey("es"), page, stale)
	_, _, found = provider.GetPage(ctx, rootsKey("es"))
	assert.False(t, found)
}

func TestMemoryCache(t *testing.T) {
	memoryCache := NewMemoryCache()
	assert.NoError(t, memoryCache.Initialize(context.Background()))

	testCacheProvider(t, memoryCache)
}

func TestMemoryCacheExpiration(t *testing.T) {
	ctx := context.Background()
	memoryCache := NewMemoryCache()
	memoryCache.SetCacheTTL(50 * time.Millisecond)

	_, gen, _ := memoryCache.GetPage(ctx, rootsKey("en"))
	memoryCache.SetPage(ctx, rootsKey("en"), testPage(), gen)
	time.Sleep(100 * time.Millisecond)

	_, _, found := memoryCache.GetPage(ctx, rootsKey("en"))
	assert.False(t, found)
}

func TestDynamoDBCache(t *testing.T) {
	// Create DynamoDB cache provider with mock client
	mockClient := NewMockDynamoDBClient()
	dynamoCache := NewDynamoDBCacheWithClient(mockClient, nil)
	assert.NoError(t, dynamoCache.Initialize(context.Background()))

	testCacheProvider(t, dynamoCache)
}

func TestDynamoDBCacheExpiration(t *testing.T) {
	ctx := context.Background()
	mockClient := NewMockDynamoDBClient()
	dynamoCache := NewDynamoDBCacheWithClient(mockClient, nil)
	require.NoError(t, dynamoCache.Initialize(ctx))

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	dynamoCache.now = func() time.Time { return now }
	dynamoCache.SetCacheTTL(time.Minute)
	dynamoCache.SetPage(ctx, rootsKey("en"), testPage(), 0)
	assert.Equal(t, 1, mockClient.ItemCount(tableName))

	now = now.Add(2 * time.Minute)
	_, _, found := dynamoCache.GetPage(ctx, rootsKey("en"))
	assert.False(t, found)
	assert.Equal(t, 0, mockClient.ItemCount(tableName), "expired item should be deleted")
}

func TestDynamoDBCacheInitializeCreatesTableOnce(t *testing.T) {
	ctx := context.Background()
	mockClient := NewMockDynamoDBClient()
	dynamoCache := NewDynamoDBCacheWithClient(mockClient, nil)

	require.NoError(t, dynamoCache.Initialize(ctx))
	require.NoError(t, dynamoCache.Initialize(ctx))
	assert.Equal(t, 0, mockClient.ItemCount(tableName))
}

func TestMockCache(t *testing.T) {
	ctx := context.Background()
	mockCache := NewMockCache()
	assert.NoError(t, mockCache.Initialize(ctx))

	// Test basic functionality
	testCacheProvider(t, mockCache)

	// Test call counts
	getPage, setPage, invalidate, _, init := mockCache.GetCallCounts()
	assert.Greater(t, getPage, 0, "GetPage should have been called")
	assert.Greater(t, setPage, 0, "SetPage should have been called")
	assert.Equal(t, 2, invalidate, "InvalidateCache should have been called twice")
	assert.Equal(t, 1, init, "Initialize should have been called once")

	// Test failure mode
	mockCache.SetShouldFail(true)
	assert.Error(t, mockCache.Initialize(ctx), "Initialize should fail when ShouldFail is true")
	page, gen, found := mockCache.GetPage(ctx, rootsKey("en"))
	assert.Nil(t, page, "GetPage should return nil when ShouldFail is true")
	assert.Equal(t, NoGeneration, gen)
	assert.False(t, found, "GetPage should return false when ShouldFail is true")
	assert.Error(t, mockCache.InvalidateCache(ctx))
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	noop := NewNoopCache()
	require.NoError(t, noop.Initialize(ctx))

	noop.SetPage(ctx, rootsKey("en"), testPage(), 0)
	_, _, found := noop.GetPage(ctx, rootsKey("en"))
	assert.False(t, found)
	assert.NoError(t, noop.InvalidateCache(ctx))
}

func TestRedisCacheUnavailableTripsBreaker(t *testing.T) {
	ctx := context.Background()

	// Nothing listens on port 1
	redisCache := NewRedisCache("127.0.0.1:1", nil)
	defer redisCache.Close()
	assert.Error(t, redisCache.Initialize(ctx))

	for i := 0; i < 5; i++ {
		_, gen, found := redisCache.GetPage(ctx, rootsKey("en"))
		assert.False(t, found)
		assert.Equal(t, NoGeneration, gen)
	}
	assert.Equal(t, gobreaker.StateOpen, redisCache.BreakerState())

	// An open breaker fails fast instead of dialing
	assert.ErrorIs(t, redisCache.InvalidateCache(ctx), gobreaker.ErrOpenState)
}

func TestMemoryCacheDropsFillFromRetiredGeneration(t *testing.T) {
	ctx := context.Background()
	memoryCache := NewMemoryCache()

	_, before, _ := memoryCache.GetPage(ctx, rootsKey("en"))
	require.NoError(t, memoryCache.InvalidateCache(ctx))
	_, after, _ := memoryCache.GetPage(ctx, rootsKey("en"))
	assert.NotEqual(t, before, after)

	memoryCache.SetPage(ctx, rootsKey("en"), testPage(), before)
	_, _, found := memoryCache.GetPage(ctx, rootsKey("en"))
	assert.False(t, found)

	memoryCache.SetPage(ctx, rootsKey("en"), testPage(), after)
	_, _, found = memoryCache.GetPage(ctx, rootsKey("en"))
	assert.True(t, found)
}

func TestPageKeyString(t *testing.T) {
	key := PageKey{Kind: "children", NodeID: 7, Depth: 3, Page: 2, PerPage: 10, Locale: "es", Timezone: "Europe/Madrid"}
	assert.Equal(t, "nodes:children:7:3:2:10:es:Europe/Madrid", key.String())
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		backend  config.CacheBackend
		expected CacheProvider
	}{
		{config.CacheNone, &NoopCache{}},
		{config.CacheMemory, &MemoryCache{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			provider, err := New(ctx, &config.AppConfig{CacheBackend: tt.backend, CacheTTL: time.Minute}, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, provider)
		})
	}

	_, err := New(ctx, &config.AppConfig{CacheBackend: "memcached", CacheTTL: time.Minute}, nil)
	assert.ErrorIs(t, err, ErrCacheInitialization)
}
