package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/idelsangithub/node-tree-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	repo := newTestRepo(t)
	seedForest(t, repo)
	ctx := context.Background()

	nodes, total, err := repo.ListChildren(ctx, 1, 1, 15)
	require.NoError(t, err)

	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	page, err := NewFormatter(NewTranslationResolver(repo)).Format(ctx, nodes, total, 15, 1, "en", madrid)
	require.NoError(t, err)

	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 15, page.PerPage)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.LastPage)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, int64(2), item.ID)
	require.NotNil(t, item.Parent)
	assert.Equal(t, int64(1), *item.Parent)
	assert.Equal(t, "two", item.Title)
	// 12:30:45 UTC is 13:30:45 in Madrid in January
	assert.Equal(t, "2024-01-15 13:30:45", item.CreatedAt)
}

func TestFormatDefaultsToUTC(t *testing.T) {
	repo := newTestRepo(t)
	seedForest(t, repo)
	ctx := context.Background()

	nodes, total, err := repo.ListRoots(ctx, 1, 15)
	require.NoError(t, err)

	page, err := NewFormatter(NewTranslationResolver(repo)).Format(ctx, nodes, total, 15, 1, "en", nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Nil(t, page.Items[0].Parent)
	assert.Equal(t, "2024-01-15 12:30:45", page.Items[0].CreatedAt)
}

func TestFormatEnvelopeShape(t *testing.T) {
	page, err := NewFormatter(NewTranslationResolver(newTestRepo(t))).Format(context.Background(), nil, 31, 15, 3, "en", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3, page.LastPage)

	body, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":31,"per_page":15,"current_page":3,"last_page":3,"items":[]}`, string(body))

	item, err := json.Marshal(&models.NodeItem{ID: 1, Title: "one", CreatedAt: "2024-01-15 12:30:45"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"parent":null,"title":"one","created_at":"2024-01-15 12:30:45"}`, string(item))
}
