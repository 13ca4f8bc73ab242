package service

import (
	"context"
	"testing"

	"github.com/idelsangithub/node-tree-api/cache"
	"github.com/idelsangithub/node-tree-api/metrics"
	"github.com/idelsangithub/node-tree-api/models"
	"github.com/idelsangithub/node-tree-api/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*NodeService, *repository.MemoryRepository, *cache.MockCache, *metrics.Collector) {
	t.Helper()
	repo := newTestRepo(t)
	mockCache := cache.NewMockCache()
	collector := metrics.NewCollector("test")
	return NewNodeService(repo, mockCache, collector, nil), repo, mockCache, collector
}

func utcContext(t *testing.T) RequestContext {
	t.Helper()
	rc, err := NewRequestContext("en", "UTC")
	require.NoError(t, err)
	return rc
}

func TestServiceScenario(t *testing.T) {
	svc, _, _, collector := setupService(t)
	ctx := context.Background()
	rc := utcContext(t)

	a, err := svc.CreateNode(ctx, nil)
	require.NoError(t, err)
	b, err := svc.CreateNode(ctx, &a.ID)
	require.NoError(t, err)
	c, err := svc.CreateNode(ctx, &b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, []int64{a.ID, b.ID, c.ID})

	page, err := svc.ListChildren(ctx, rc, a.ID, 2, 1, 15)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "two", page.Items[0].Title)
	assert.Equal(t, "three", page.Items[1].Title)

	page, err = svc.ListChildren(ctx, rc, a.ID, 1, 1, 15)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(2), page.Items[0].ID)

	outcome, err := svc.DeleteNode(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, HasChildrenConflict, outcome)

	for _, id := range []int64{c.ID, b.ID, a.ID} {
		outcome, err := svc.DeleteNode(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, Deleted, outcome)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(collector.NodesCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.NodesDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.DeleteConflicts))
}

func TestServiceCreateNodeMissingParent(t *testing.T) {
	svc, _, mockCache, _ := setupService(t)

	_, err := svc.CreateNode(context.Background(), int64Ptr(99))
	assert.ErrorIs(t, err, repository.ErrParentNotFound)
	assert.Equal(t, 0, mockCache.InvalidateCalls)
}

func TestServiceListChildrenMissingParent(t *testing.T) {
	svc, _, _, _ := setupService(t)
	rc := utcContext(t)

	for _, depth := range []int{1, 3} {
		_, err := svc.ListChildren(context.Background(), rc, 404, depth, 1, 15)
		assert.ErrorIs(t, err, repository.ErrNodeNotFound)
	}
}

func TestServiceListChildrenPaginatesDescendants(t *testing.T) {
	svc, repo, _, _ := setupService(t)
	ctx := context.Background()
	rc := utcContext(t)

	root, err := repo.CreateNode(ctx, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		child, err := repo.CreateNode(ctx, &root.ID)
		require.NoError(t, err)
		_, err = repo.CreateNode(ctx, &child.ID)
		require.NoError(t, err)
	}

	page, err := svc.ListChildren(ctx, rc, root.ID, 2, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), page.Total)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(6), page.Items[0].ID)
	assert.Equal(t, int64(7), page.Items[1].ID)
}

func TestServiceListChildrenNoDescendants(t *testing.T) {
	svc, repo, _, _ := setupService(t)
	ctx := context.Background()

	leaf, err := repo.CreateNode(ctx, nil)
	require.NoError(t, err)

	page, err := svc.ListChildren(ctx, utcContext(t), leaf.ID, 3, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestServiceCachesPages(t *testing.T) {
	svc, repo, mockCache, collector := setupService(t)
	seedForest(t, repo)
	ctx := context.Background()
	rc := utcContext(t)

	first, err := svc.ListRoots(ctx, rc, 1, 15)
	require.NoError(t, err)
	second, err := svc.ListRoots(ctx, rc, 1, 15)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, mockCache.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CacheMisses))

	// A different locale is a different page
	es, err := NewRequestContext("es", "UTC")
	require.NoError(t, err)
	_, err = svc.ListRoots(ctx, es, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, 2, mockCache.Len())
}

func TestServiceWritesInvalidateCache(t *testing.T) {
	svc, repo, mockCache, _ := setupService(t)
	seedForest(t, repo)
	ctx := context.Background()
	rc := utcContext(t)

	_, err := svc.ListRoots(ctx, rc, 1, 15)
	require.NoError(t, err)
	require.Equal(t, 1, mockCache.Len())

	require.NoError(t, svc.SetTranslation(ctx, 1, "en", "first"))
	assert.Equal(t, 0, mockCache.Len())

	page, err := svc.ListRoots(ctx, rc, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, "first", page.Items[0].Title)

	_, err = svc.CreateNode(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, mockCache.Len())

	page, err = svc.ListRoots(ctx, rc, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	outcome, err := svc.DeleteNode(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, Deleted, outcome)
	assert.Equal(t, 0, mockCache.Len())
}

func TestServiceCacheFailureIsNotFatal(t *testing.T) {
	svc, _, mockCache, _ := setupService(t)
	mockCache.SetShouldFail(true)

	node, err := svc.CreateNode(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), node.ID)
	assert.Equal(t, 1, mockCache.InvalidateCalls)
}

func TestServiceSetTranslationMissingNode(t *testing.T) {
	svc, _, _, _ := setupService(t)

	err := svc.SetTranslation(context.Background(), 7, "es", "siete")
	assert.ErrorIs(t, err, repository.ErrNodeNotFound)
}

func TestServiceRejectsBadPaging(t *testing.T) {
	svc, repo, _, _ := setupService(t)
	seedForest(t, repo)
	rc := utcContext(t)
	ctx := context.Background()

	var validationErr *ValidationError
	_, err := svc.ListRoots(ctx, rc, 0, 15)
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.ListChildren(ctx, rc, 1, 0, 1, 15)
	assert.ErrorAs(t, err, &validationErr)
}

// interleavedStore runs a hook after the store has answered ListRoots and
// before the caller fills the cache
type interleavedStore struct {
	*repository.MemoryRepository
	afterListRoots func()
}

func (s *interleavedStore) ListRoots(ctx context.Context, page, pageSize int) ([]*models.Node, int64, error) {
	nodes, total, err := s.MemoryRepository.ListRoots(ctx, page, pageSize)
	if hook := s.afterListRoots; hook != nil {
		s.afterListRoots = nil
		hook()
	}
	return nodes, total, err
}

func TestServiceWriteDuringListingIsNotCached(t *testing.T) {
	providers := map[string]cache.CacheProvider{
		"memory":   cache.NewMemoryCache(),
		"mock":     cache.NewMockCache(),
		"dynamodb": cache.NewDynamoDBCacheWithClient(cache.NewMockDynamoDBClient(), nil),
	}

	for name, provider := range providers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rc := utcContext(t)
			require.NoError(t, provider.Initialize(ctx))

			store := &interleavedStore{MemoryRepository: newTestRepo(t)}
			svc := NewNodeService(store, provider, metrics.NewCollector("test"), nil)

			_, err := svc.CreateNode(ctx, nil)
			require.NoError(t, err)

			store.afterListRoots = func() {
				_, err := svc.CreateNode(ctx, nil)
				require.NoError(t, err)
			}

			// The in-flight listing may miss the concurrent create
			inFlight, err := svc.ListRoots(ctx, rc, 1, 15)
			require.NoError(t, err)
			assert.Equal(t, int64(1), inFlight.Total)

			// Every later listing sees it
			page, err := svc.ListRoots(ctx, rc, 1, 15)
			require.NoError(t, err)
			assert.Equal(t, int64(2), page.Total)
			assert.Len(t, page.Items, 2)
		})
	}
}
