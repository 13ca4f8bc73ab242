package service

import (
	"context"
	"fmt"

	"github.com/idelsangithub/node-tree-api/cache"
	"github.com/idelsangithub/node-tree-api/logging"
	"github.com/idelsangithub/node-tree-api/metrics"
	"github.com/idelsangithub/node-tree-api/models"
	"github.com/idelsangithub/node-tree-api/repository"

	"go.uber.org/zap"
)

const (
	kindRoots    = "roots"
	kindChildren = "children"
)

// NodeService composes the store, resolvers, guard and page cache into the
// operations exposed over HTTP
type NodeService struct {
	store       repository.Repository
	cache       cache.CacheProvider
	titles      *TranslationResolver
	descendants *DescendantResolver
	guard       *DeletionGuard
	formatter   *Formatter
	metrics     *metrics.Collector
	logger      *zap.Logger
}

// NewNodeService wires a NodeService. A nil cache disables caching and a
// nil collector gets a private registry.
func NewNodeService(store repository.Repository, pageCache cache.CacheProvider, collector *metrics.Collector, logger *zap.Logger) *NodeService {
	if pageCache == nil {
		pageCache = cache.NewNoopCache()
	}
	if collector == nil {
		collector = metrics.NewCollector("nodetree")
	}

	titles := NewTranslationResolver(store)
	return &NodeService{
		store:       store,
		cache:       pageCache,
		titles:      titles,
		descendants: NewDescendantResolver(store, collector),
		guard:       NewDeletionGuard(store),
		formatter:   NewFormatter(titles),
		metrics:     collector,
		logger:      logging.OrNop(logger),
	}
}

// CreateNode creates a node under parentID, or a root when parentID is nil.
// Returns repository.ErrParentNotFound when the parent does not exist.
func (s *NodeService) CreateNode(ctx context.Context, parentID *int64) (*models.Node, error) {
	node, err := s.store.CreateNode(ctx, parentID)
	if err != nil {
		return nil, err
	}

	s.metrics.NodesCreated.Inc()
	s.invalidate(ctx)
	s.logger.Info("node created", zap.Int64("node_id", node.ID), zap.Int64p("parent_id", node.ParentID))
	return node, nil
}

// ListRoots returns one page of root nodes
func (s *NodeService) ListRoots(ctx context.Context, rc RequestContext, page, perPage int) (*models.Page, error) {
	if err := checkPaging(page, perPage); err != nil {
		return nil, err
	}

	key := cache.PageKey{
		Kind:     kindRoots,
		Page:     page,
		PerPage:  perPage,
		Locale:   rc.Locale,
		Timezone: rc.Timezone(),
	}
	cached, gen, ok := s.cachedPage(ctx, key)
	if ok {
		return cached, nil
	}

	nodes, total, err := s.store.ListRoots(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("error listing roots: %w", err)
	}
	return s.formatAndCache(ctx, key, gen, rc, nodes, total, page, perPage)
}

// ListChildren returns one page of the descendants of parentID up to depth
// levels below it. Depth 1 lists direct children only. Returns
// repository.ErrNodeNotFound when the parent does not exist.
func (s *NodeService) ListChildren(ctx context.Context, rc RequestContext, parentID int64, depth, page, perPage int) (*models.Page, error) {
	if err := checkPaging(page, perPage); err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, depthError()
	}

	// A missing parent is reported before anything else, including cache hits
	if _, err := s.store.GetNode(ctx, parentID); err != nil {
		return nil, err
	}

	key := cache.PageKey{
		Kind:     kindChildren,
		NodeID:   parentID,
		Depth:    depth,
		Page:     page,
		PerPage:  perPage,
		Locale:   rc.Locale,
		Timezone: rc.Timezone(),
	}
	cached, gen, ok := s.cachedPage(ctx, key)
	if ok {
		return cached, nil
	}

	nodes, total, err := s.descendants.ListDescendants(ctx, parentID, depth, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("error listing children of %d: %w", parentID, err)
	}
	return s.formatAndCache(ctx, key, gen, rc, nodes, total, page, perPage)
}

// DeleteNode deletes a node that has no children
func (s *NodeService) DeleteNode(ctx context.Context, id int64) (DeleteOutcome, error) {
	outcome, err := s.guard.DeleteNode(ctx, id)
	if err != nil {
		return outcome, err
	}

	switch outcome {
	case Deleted:
		s.metrics.NodesDeleted.Inc()
		s.invalidate(ctx)
		s.logger.Info("node deleted", zap.Int64("node_id", id))
	case HasChildrenConflict:
		s.metrics.DeleteConflicts.Inc()
	}
	return outcome, nil
}

// SetTranslation stores the title of a node for locale. Returns
// repository.ErrNodeNotFound when the node does not exist.
func (s *NodeService) SetTranslation(ctx context.Context, nodeID int64, locale, title string) error {
	if err := s.store.UpsertTranslation(ctx, nodeID, locale, title); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Ping checks that the store is reachable
func (s *NodeService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// cachedPage looks key up. The returned generation is read before the store
// is queried, so a write committed in between keeps the fill out of the cache.
func (s *NodeService) cachedPage(ctx context.Context, key cache.PageKey) (*models.Page, cache.Generation, bool) {
	page, gen, ok := s.cache.GetPage(ctx, key)
	if ok {
		s.metrics.CacheHits.Inc()
		return page, gen, true
	}
	s.metrics.CacheMisses.Inc()
	return nil, gen, false
}

func (s *NodeService) formatAndCache(ctx context.Context, key cache.PageKey, gen cache.Generation, rc RequestContext, nodes []*models.Node, total int64, page, perPage int) (*models.Page, error) {
	result, err := s.formatter.Format(ctx, nodes, total, perPage, page, rc.Locale, rc.Location)
	if err != nil {
		return nil, fmt.Errorf("error formatting page: %w", err)
	}
	s.cache.SetPage(ctx, key, result, gen)
	return result, nil
}

// invalidate drops cached pages after a write. On failure pages stay stale
// until their TTL runs out.
func (s *NodeService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCache(ctx); err != nil {
		s.logger.Warn("error invalidating page cache", zap.Error(err))
	}
}

func checkPaging(page, perPage int) error {
	if page < 1 {
		return &ValidationError{Field: "page", Message: "must be at least 1"}
	}
	if perPage < 1 {
		return &ValidationError{Field: "per_page", Message: "must be at least 1"}
	}
	return nil
}
