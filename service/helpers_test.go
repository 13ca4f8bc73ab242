package service

import (
	"context"
	"testing"
	"time"

	"github.com/idelsangithub/node-tree-api/repository"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 12, 30, 45, 0, time.UTC)

func newTestRepo(t *testing.T) *repository.MemoryRepository {
	t.Helper()
	repo := repository.NewMemoryRepository()
	repo.SetClock(func() time.Time { return fixedNow })
	require.NoError(t, repo.Initialize(context.Background()))
	return repo
}

// seedForest builds 1 -> 2 -> 3 and 4 -> 5
func seedForest(t *testing.T, repo *repository.MemoryRepository) {
	t.Helper()
	ctx := context.Background()

	create := func(parent *int64) int64 {
		node, err := repo.CreateNode(ctx, parent)
		require.NoError(t, err)
		return node.ID
	}

	one := create(nil)
	two := create(&one)
	create(&two)
	four := create(nil)
	create(&four)
}

func int64Ptr(v int64) *int64 {
	return &v
}
