// Package seed loads the demo forest into an empty store.
package seed

import (
	"context"
	"fmt"

	"github.com/idelsangithub/node-tree-api/logging"
	"github.com/idelsangithub/node-tree-api/repository"

	"go.uber.org/zap"
)

type demoNode struct {
	parent int // index into demoForest, -1 for a root
	titles map[string]string
}

// demoForest is 1 -> 2 -> 3 and 4 -> 5
var demoForest = []demoNode{
	{parent: -1, titles: map[string]string{"en": "one", "es": "uno"}},
	{parent: 0, titles: map[string]string{"en": "two", "es": "dos"}},
	{parent: 1, titles: map[string]string{"en": "three", "es": "tres"}},
	{parent: -1, titles: map[string]string{"en": "four", "es": "cuatro"}},
	{parent: 3, titles: map[string]string{"en": "five", "es": "cinco"}},
}

// Result reports what Run did
type Result struct {
	Skipped bool
	NodeIDs []int64
}

// Run creates the demo forest unless the store already holds nodes
func Run(ctx context.Context, repo repository.Repository, logger *zap.Logger) (*Result, error) {
	logger = logging.OrNop(logger)

	count, err := repo.CountNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting nodes: %w", err)
	}
	if count > 0 {
		logger.Info("store already seeded", zap.Int64("nodes", count))
		return &Result{Skipped: true}, nil
	}

	ids := make([]int64, len(demoForest))
	for i, demo := range demoForest {
		var parentID *int64
		if demo.parent >= 0 {
			parentID = &ids[demo.parent]
		}

		node, err := repo.CreateNode(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("error creating demo node %d: %w", i+1, err)
		}
		ids[i] = node.ID

		for locale, title := range demo.titles {
			if err := repo.UpsertTranslation(ctx, node.ID, locale, title); err != nil {
				return nil, fmt.Errorf("error storing %s title of node %d: %w", locale, node.ID, err)
			}
		}
	}

	logger.Info("demo forest seeded", zap.Int64s("node_ids", ids))
	return &Result{NodeIDs: ids}, nil
}
