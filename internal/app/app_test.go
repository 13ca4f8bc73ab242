package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/idelsangithub/node-tree-api/cache"
	"github.com/idelsangithub/node-tree-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithMemoryStore(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("CACHE_BACKEND", "memory")

	application := newTestApp(t)
	assert.IsType(t, &repository.MemoryRepository{}, application.Repo)
	assert.IsType(t, &cache.MemoryCache{}, application.Cache)
	assert.Equal(t, 15, application.Config.DefaultPerPage)

	w := httptest.NewRecorder()
	application.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nodes/roots", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewWithSQLiteStore(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "nodes.db"))
	t.Setenv("CACHE_BACKEND", "none")

	application := newTestApp(t)
	assert.IsType(t, &repository.SQLiteRepository{}, application.Repo)

	node, err := application.Nodes.CreateNode(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), node.ID)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := New(context.Background(), envProvider(), nil)
	assert.Error(t, err)
}
