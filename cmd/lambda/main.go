package main

import (
	"context"
	"log"

	"github.com/idelsangithub/node-tree-api/config"
	"github.com/idelsangithub/node-tree-api/internal/app"
	"github.com/idelsangithub/node-tree-api/internal/lambda"
	"github.com/idelsangithub/node-tree-api/logging"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	cfgProvider, err := config.NewProvider()
	if err != nil {
		log.Fatalf("Failed to create config provider: %v", err)
	}

	logger, err := logging.New(cfgProvider.GetEnvironment())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connections are reused across warm invocations
	application, err := app.New(ctx, cfgProvider, logger)
	if err != nil {
		logger.Fatal("Failed to wire service", zap.Error(err))
	}

	handler := lambda.NewHandler(application.Router)

	// Start Lambda
	awslambda.Start(handler.Handle)
}
