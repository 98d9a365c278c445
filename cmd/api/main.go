package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"marketplace-bulk-api/internal/catalog"
	"marketplace-bulk-api/internal/config"
	"marketplace-bulk-api/internal/handler"
	"marketplace-bulk-api/internal/logging"
	"marketplace-bulk-api/internal/middleware"
	"marketplace-bulk-api/internal/repository"
	"marketplace-bulk-api/internal/router"
	"marketplace-bulk-api/internal/service"
	"marketplace-bulk-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting marketplace bulk API",
		"version", cfg.App.Version,
		"env", cfg.App.Environment,
		"store", cfg.Store.Type,
	)

	// Initialize the key-value store based on config
	kv, err := store.Open(cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "type", cfg.Store.Type, "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	slog.Info("store initialized", "type", cfg.Store.Type)

	// SQL and MongoDB backends keep expired rows until swept
	var sweeper *service.ExpirySweeper
	if purger, ok := kv.(store.Purger); ok {
		sweeper = service.NewExpirySweeper(purger, service.SweeperConfig{Interval: cfg.Store.SweepInterval})
		sweeper.Start()
	}

	// Repositories
	keys := repository.NewKeys(cfg.Store.KeyPrefix)
	listingRepo := repository.NewStoreListingRepository(kv, keys)
	syncRepo := repository.NewStoreSyncRepository(kv, keys)

	// Marketplace client
	client := catalog.NewClient(nil, catalog.Config{
		BaseURL:    cfg.Catalog.BaseURL,
		APIVersion: cfg.Catalog.APIVersion,
		Timeout:    cfg.Catalog.HTTPTimeout,
	})
	syncer := catalog.NewSyncer(client, catalog.SyncerConfig{
		MaxItems: cfg.Catalog.MaxItems,
		MaxBytes: cfg.Catalog.MaxBatchBytes,
		Interval: cfg.Catalog.BatchInterval,
	})

	// Services
	listingService := service.NewListingService(listingRepo)
	authService := service.NewAuthService(kv, keys, service.AuthConfig{
		AppID:       cfg.Auth.AppID,
		RedirectURI: cfg.Auth.RedirectURI,
		Scope:       cfg.Auth.Scope,
		DialogURL:   cfg.Auth.DialogURL,
		APIVersion:  cfg.Catalog.APIVersion,
		StateTTL:    cfg.Auth.StateTTL,
	})
	syncService := service.NewSyncService(listingRepo, syncRepo, authService, client, syncer)
	if !authService.Configured() {
		slog.Warn("FACEBOOK_APP_ID is not set, marketplace login is disabled")
	}

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		APIKeys:     cfg.App.APIKeys,
		PublicPaths: middleware.DefaultPublicPaths,
	})
	if len(cfg.App.APIKeys) == 0 {
		slog.Warn("APP_API_KEYS is not set, the API is open")
	}

	r := router.New(router.Config{
		Handler:            handler.New(cfg.App.Name, cfg.App.Version, kv),
		ListingHandler:     handler.NewListingHandler(listingService),
		SpreadsheetHandler: handler.NewSpreadsheetHandler(listingService, cfg.App.MaxUploadBytes),
		AuthHandler:        handler.NewAuthHandler(authService),
		CatalogHandler:     handler.NewCatalogHandler(syncService),
		AdminHandler:       handler.NewAdminHandler(kv, cfg.Store.Type, listingService, syncService),
		AuthMiddleware:     authMiddleware,
		AllowedOrigins:     cfg.App.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// A running sync records its remaining listings as cancelled
	syncService.Shutdown()
	if sweeper != nil {
		sweeper.Stop()
	}

	slog.Info("server stopped")
}
