package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/idelsangithub/node-tree-api/config"
	"github.com/idelsangithub/node-tree-api/internal/app"
	"github.com/idelsangithub/node-tree-api/logging"
	"github.com/idelsangithub/node-tree-api/migrations"
	"github.com/idelsangithub/node-tree-api/repository"
	"github.com/idelsangithub/node-tree-api/seed"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Globals are shared by every command
type Globals struct {
	Provider config.Provider
	Logger   *zap.Logger
}

type CLI struct {
	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP API."`
	Migrate MigrateCmd `cmd:"" help:"Apply or roll back schema migrations."`
	Seed    SeedCmd    `cmd:"" help:"Load the demo forest into an empty store."`
}

// ServeCmd runs the HTTP server until interrupted
type ServeCmd struct {
	Addr string `help:"Listen address, overrides HTTP_ADDR."`
}

func (cmd *ServeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, g.Provider, g.Logger)
	if err != nil {
		return err
	}
	defer application.Close(context.Background())

	addr := application.Config.HTTPAddr
	if cmd.Addr != "" {
		addr = cmd.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           application.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.Logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	g.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// MigrateCmd applies pending migrations or rolls back the last one
type MigrateCmd struct {
	Down bool `help:"Roll back the last applied migration."`
}

// sqlRepository is a store whose schema is managed by migrations
type sqlRepository interface {
	repository.Repository
	Open(ctx context.Context) error
	DB() *sql.DB
}

func (cmd *MigrateCmd) Run(g *Globals) error {
	ctx := context.Background()

	cfg, err := config.GetAppConfig(ctx, g.Provider)
	if err != nil {
		return err
	}

	var dialect migrations.Dialect
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialect = migrations.Postgres
	case config.DriverSQLite:
		dialect = migrations.SQLite
	default:
		return fmt.Errorf("DB_DRIVER %q has no schema to migrate", cfg.DBDriver)
	}

	repo, err := app.NewRepository(ctx, cfg, g.Provider)
	if err != nil {
		return err
	}
	store, ok := repo.(sqlRepository)
	if !ok {
		return fmt.Errorf("DB_DRIVER %q has no schema to migrate", cfg.DBDriver)
	}
	if err := store.Open(ctx); err != nil {
		return err
	}
	defer store.Cleanup(ctx)

	if cmd.Down {
		err = migrations.RollbackMigration(store.DB(), dialect)
	} else {
		err = migrations.RunMigrations(store.DB(), dialect)
	}
	if err != nil {
		return err
	}

	version, dirty, err := migrations.Version(store.DB(), dialect)
	if err != nil {
		return err
	}
	g.Logger.Info("migrations done", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// SeedCmd loads the demo forest
type SeedCmd struct{}

func (cmd *SeedCmd) Run(g *Globals) error {
	ctx := context.Background()

	application, err := app.New(ctx, g.Provider, g.Logger)
	if err != nil {
		return err
	}
	defer application.Close(ctx)

	if _, err := seed.Run(ctx, application.Repo, g.Logger); err != nil {
		return err
	}
	return application.Cache.InvalidateCache(ctx)
}

func main() {
	// A missing .env file is fine; the environment may already be set
	_ = godotenv.Load()

	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name("nodetree"),
		kong.Description("Hierarchical node tree API with localized titles."),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nodetree: %v\n", err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfgProvider, err := config.NewProvider()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nodetree: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfgProvider.GetEnvironment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "nodetree: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	err = ctx.Run(&Globals{Provider: cfgProvider, Logger: logger})
	ctx.FatalIfErrorf(err)
}
