package seed

import (
	"context"
	"testing"

	"github.com/idelsangithub/node-tree-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()

	result, err := Run(ctx, repo, nil)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, result.NodeIDs)

	roots, total, err := repo.ListRoots(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), roots[0].ID)
	assert.Equal(t, int64(4), roots[1].ID)

	grandchildren, err := repo.ChildIDs(ctx, []int64{2})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, grandchildren)

	es, err := repo.Titles(ctx, result.NodeIDs, "es")
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "uno", 2: "dos", 3: "tres", 4: "cuatro", 5: "cinco"}, es)

	en, err := repo.Titles(ctx, []int64{5}, "en")
	require.NoError(t, err)
	assert.Equal(t, "five", en[5])
}

func TestRunSkipsSeededStore(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.CreateNode(ctx, nil)
	require.NoError(t, err)

	result, err := Run(ctx, repo, nil)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	count, err := repo.CountNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
