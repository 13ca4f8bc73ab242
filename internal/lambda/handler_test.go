package lambda

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/idelsangithub/node-tree-api/handlers"
	"github.com/idelsangithub/node-tree-api/metrics"
	"github.com/idelsangithub/node-tree-api/repository"
	"github.com/idelsangithub/node-tree-api/service"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.Initialize(context.Background()))

	collector := metrics.NewCollector("test")
	svc := service.NewNodeService(repo, nil, collector, nil)
	return NewHandler(handlers.NewRouter(handlers.NewNodeHandler(svc, 15, nil), collector, nil))
}

func TestHandleCreateAndList(t *testing.T) {
	handler := newTestHandler(t)
	ctx := context.Background()

	resp, err := handler.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/api/nodes",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = handler.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/api/nodes/roots",
		Headers:    map[string]string{"Accept-Language": "en"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Total int64 `json:"total"`
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "one", page.Items[0].Title)
}

func TestHandleUnknownNode(t *testing.T) {
	handler := newTestHandler(t)

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodDelete,
		Path:       "/api/nodes/7",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
