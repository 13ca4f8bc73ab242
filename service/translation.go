package service

import (
	"context"

	"github.com/idelsangithub/node-tree-api/models"
	"github.com/idelsangithub/node-tree-api/repository"
)

// TranslationResolver maps nodes to display titles for a locale. Only an
// exact locale match counts; anything else gets the id-derived fallback.
type TranslationResolver struct {
	store repository.TranslationStore
}

// NewTranslationResolver creates a resolver over the given translation store
func NewTranslationResolver(store repository.TranslationStore) *TranslationResolver {
	return &TranslationResolver{store: store}
}

// Resolve returns the title of a single node
func (r *TranslationResolver) Resolve(ctx context.Context, node *models.Node, locale string) (string, error) {
	titles, err := r.ResolveAll(ctx, []*models.Node{node}, locale)
	if err != nil {
		return "", err
	}
	return titles[node.ID], nil
}

// ResolveAll returns a title for every node using one store lookup
func (r *TranslationResolver) ResolveAll(ctx context.Context, nodes []*models.Node, locale string) (map[int64]string, error) {
	ids := make([]int64, len(nodes))
	for i, node := range nodes {
		ids[i] = node.ID
	}

	stored, err := r.store.Titles(ctx, ids, locale)
	if err != nil {
		return nil, err
	}

	titles := make(map[int64]string, len(nodes))
	for _, id := range ids {
		if title, ok := stored[id]; ok && title != "" {
			titles[id] = title
			continue
		}
		titles[id] = models.FallbackTitle(id)
	}
	return titles, nil
}
