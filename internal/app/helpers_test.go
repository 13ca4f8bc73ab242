package app

import (
	"context"
	"testing"

	"github.com/idelsangithub/node-tree-api/config"

	"github.com/stretchr/testify/require"
)

func envProvider() config.Provider {
	return config.NewEnvProvider("")
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	application, err := New(context.Background(), envProvider(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = application.Close(context.Background())
	})
	return application
}
