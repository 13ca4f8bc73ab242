// Package app wires the node tree service from its configuration.
package app

import (
	"context"
	"fmt"

	"github.com/idelsangithub/node-tree-api/cache"
	"github.com/idelsangithub/node-tree-api/config"
	"github.com/idelsangithub/node-tree-api/handlers"
	"github.com/idelsangithub/node-tree-api/logging"
	"github.com/idelsangithub/node-tree-api/metrics"
	"github.com/idelsangithub/node-tree-api/repository"
	"github.com/idelsangithub/node-tree-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const metricsNamespace = "nodetree"

// App holds the wired components of a running service
type App struct {
	Config  *config.AppConfig
	Repo    repository.Repository
	Cache   cache.CacheProvider
	Metrics *metrics.Collector
	Nodes   *service.NodeService
	Router  *gin.Engine
	Logger  *zap.Logger
}

// NewRepository builds the storage backend selected by cfg without
// initializing it
func NewRepository(ctx context.Context, cfg *config.AppConfig, provider config.Provider) (repository.Repository, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return repository.NewPostgresRepository(ctx, provider)
	case config.DriverSQLite:
		return repository.NewSQLiteRepository(cfg.SQLitePath), nil
	case config.DriverMemory:
		return repository.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// New reads the configuration and wires every component. Close releases
// what New acquired.
func New(ctx context.Context, provider config.Provider, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)

	cfg, err := config.GetAppConfig(ctx, provider)
	if err != nil {
		return nil, err
	}

	repo, err := NewRepository(ctx, cfg, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	if err := repo.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	pageCache, err := cache.New(ctx, cfg, logger)
	if err != nil {
		// Listings still work uncached
		logger.Warn("page cache unavailable, continuing without it",
			zap.String("backend", string(cfg.CacheBackend)),
			zap.Error(err),
		)
		pageCache = cache.NewNoopCache()
	}

	collector := metrics.NewCollector(metricsNamespace)
	nodes := service.NewNodeService(repo, pageCache, collector, logger)
	nodeHandler := handlers.NewNodeHandler(nodes, cfg.DefaultPerPage, logger)

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("service wired",
		zap.String("environment", string(cfg.Environment)),
		zap.String("db_driver", string(cfg.DBDriver)),
		zap.String("cache_backend", string(cfg.CacheBackend)),
	)

	return &App{
		Config:  cfg,
		Repo:    repo,
		Cache:   pageCache,
		Metrics: collector,
		Nodes:   nodes,
		Router:  handlers.NewRouter(nodeHandler, collector, logger),
		Logger:  logger,
	}, nil
}

// Close releases the repository and cache connections
func (a *App) Close(ctx context.Context) error {
	if closer, ok := a.Cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn("error closing page cache", zap.Error(err))
		}
	}
	return a.Repo.Cleanup(ctx)
}
