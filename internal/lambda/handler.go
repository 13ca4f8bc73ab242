package lambda

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
)

// Handler represents the Lambda handler with its dependencies
type Handler struct {
	adapter *ginadapter.GinLambda
}

// NewHandler creates a Handler serving API Gateway events through the given
// gin engine, so both deployments share one routing table
func NewHandler(engine *gin.Engine) *Handler {
	return &Handler{
		adapter: ginadapter.New(engine),
	}
}

// Handle processes API Gateway events
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.adapter.ProxyWithContext(ctx, request)
}
