package service

import (
	"context"
	"time"

	"github.com/idelsangithub/node-tree-api/models"
)

// Formatter turns a page of nodes into the listing envelope
type Formatter struct {
	titles *TranslationResolver
}

// NewFormatter creates a formatter resolving titles with the given resolver
func NewFormatter(titles *TranslationResolver) *Formatter {
	return &Formatter{titles: titles}
}

// Format resolves titles for locale and renders created_at in loc
func (f *Formatter) Format(ctx context.Context, nodes []*models.Node, total int64, perPage, currentPage int, locale string, loc *time.Location) (*models.Page, error) {
	if loc == nil {
		loc = time.UTC
	}

	titles, err := f.titles.ResolveAll(ctx, nodes, locale)
	if err != nil {
		return nil, err
	}

	items := make([]*models.NodeItem, len(nodes))
	for i, node := range nodes {
		var parent *int64
		if node.ParentID != nil {
			p := *node.ParentID
			parent = &p
		}
		items[i] = &models.NodeItem{
			ID:        node.ID,
			Parent:    parent,
			Title:     titles[node.ID],
			CreatedAt: node.CreatedAt.In(loc).Format(models.TimestampLayout),
		}
	}

	return models.NewPage(items, total, perPage, currentPage), nil
}
