package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poundsaver/backend/config"
	httpDelivery "github.com/poundsaver/backend/internal/delivery/http"
	"github.com/poundsaver/backend/internal/domain"
	"github.com/poundsaver/backend/internal/infrastructure/cache"
	"github.com/poundsaver/backend/internal/infrastructure/catalog"
	"github.com/poundsaver/backend/internal/infrastructure/history"
	"github.com/poundsaver/backend/internal/infrastructure/seed"
	"github.com/poundsaver/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// serveCmd starts the API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("Starting PoundSaver backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog", cfg.Catalog.Driver),
		zap.String("cache", cfg.Cache.Type),
		zap.Duration("cacheTTL", cfg.Cache.TTL))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router, closeApp, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeApp()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type cacheStore interface {
	domain.CacheRepository
	io.Closer
}

// buildApp wires stores, services and the router from configuration. The
// returned func releases everything that was opened.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close failed", zap.Error(err))
			}
		}
	}

	var store domain.CatalogStore
	switch cfg.Catalog.Driver {
	case "sqlite":
		sqliteStore, err := catalog.OpenSQLite(cfg.Catalog.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, sqliteStore)
		store = sqliteStore
	default:
		store = catalog.NewMemoryStore()
	}

	historyRepo, err := history.OpenSQLite(cfg.History.SQLitePath)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, historyRepo)

	var searchCache cacheStore
	switch cfg.Cache.Type {
	case "lru":
		searchCache = cache.NewLRUCache(cfg.Cache.Size, cfg.Cache.TTL)
	default:
		searchCache = cache.NewMemoryCache(time.Minute)
	}
	closers = append(closers, searchCache)

	catalogService := usecase.NewCatalogService(store, historyRepo, logger.Named("catalog"))
	if cfg.Catalog.Seed {
		if err := seedCatalog(ctx, catalogService, logger); err != nil {
			closeAll()
			return nil, nil, err
		}
	}

	searchService := usecase.NewSearchService(store, searchCache, usecase.SearchServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	}, logger.Named("search"))
	comparisonService := usecase.NewComparisonService(searchService, logger.Named("compare"))
	historyService := usecase.NewHistoryService(store, historyRepo, logger.Named("history"))

	handler := httpDelivery.NewHandler(catalogService, searchService, comparisonService, historyService, logger)
	return httpDelivery.SetupRouter(cfg, handler, logger.Named("http")), closeAll, nil
}

// seedCatalog loads the embedded demo catalog into an empty store
func seedCatalog(ctx context.Context, catalogService *usecase.CatalogService, logger *zap.Logger) error {
	n, err := catalogService.Len(ctx)
	if err != nil {
		return fmt.Errorf("read catalog size: %w", err)
	}
	if n > 0 {
		logger.Info("Catalog already populated, skipping seed", zap.Int("products", n))
		return nil
	}

	products, err := seed.Products(time.Now().UTC())
	if err != nil {
		return err
	}
	result, err := catalogService.InsertBulk(ctx, products)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info("Catalog seeded",
		zap.Int("inserted", len(result.Inserted)),
		zap.Int("failed", len(result.Failed)))
	return nil
}
