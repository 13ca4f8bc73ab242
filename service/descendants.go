package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/idelsangithub/node-tree-api/metrics"
	"github.com/idelsangithub/node-tree-api/models"
	"github.com/idelsangithub/node-tree-api/repository"
)

// DescendantResolver collects the descendants of a node breadth-first,
// fetching each level with a single batched lookup
type DescendantResolver struct {
	store   repository.NodeStore
	metrics *metrics.Collector
}

// NewDescendantResolver creates a resolver; collector may be nil
func NewDescendantResolver(store repository.NodeStore, collector *metrics.Collector) *DescendantResolver {
	return &DescendantResolver{store: store, metrics: collector}
}

// Descendants returns the ids of every node within maxDepth levels below
// rootID, ascending and without duplicates. A root without descendants
// yields an empty slice. Returns repository.ErrNodeNotFound when rootID
// does not exist.
func (r *DescendantResolver) Descendants(ctx context.Context, rootID int64, maxDepth int) ([]int64, error) {
	if maxDepth < 1 {
		return nil, depthError()
	}
	if _, err := r.store.GetNode(ctx, rootID); err != nil {
		return nil, err
	}
	return r.collect(ctx, rootID, maxDepth)
}

// ListDescendants returns one page of the nodes within maxDepth levels below
// rootID, ordered by id, and their total. Depth 1 goes straight to the
// store's ListChildren. The caller has already checked that rootID exists.
func (r *DescendantResolver) ListDescendants(ctx context.Context, rootID int64, maxDepth, page, perPage int) ([]*models.Node, int64, error) {
	if maxDepth < 1 {
		return nil, 0, depthError()
	}
	if maxDepth == 1 {
		r.observe(maxDepth, 1)
		return r.store.ListChildren(ctx, rootID, page, perPage)
	}

	ids, err := r.collect(ctx, rootID, maxDepth)
	if err != nil {
		return nil, 0, err
	}
	return r.store.ListByIDs(ctx, ids, page, perPage)
}

// collect walks the levels below rootID, one ChildIDs call per level
func (r *DescendantResolver) collect(ctx context.Context, rootID int64, maxDepth int) ([]int64, error) {
	seen := map[int64]struct{}{rootID: {}}
	frontier := []int64{rootID}
	result := make([]int64, 0)
	levels := 0

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		children, err := r.store.ChildIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}
		levels++

		next := make([]int64, 0, len(children))
		for _, id := range children {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			next = append(next, id)
		}
		result = append(result, next...)
		frontier = next
	}
	r.observe(maxDepth, levels)

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func (r *DescendantResolver) observe(maxDepth, levels int) {
	if r.metrics != nil {
		r.metrics.DescendantQueries.WithLabelValues(strconv.Itoa(maxDepth)).Observe(float64(levels))
	}
}

func depthError() error {
	return &ValidationError{Field: "depth", Message: "must be at least 1"}
}
