package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopgate/internal/catalog"
	"shopgate/internal/config"
	"shopgate/internal/database"
	"shopgate/internal/fulfillment"
	"shopgate/internal/handler"
	"shopgate/internal/ledger"
	"shopgate/internal/offer"
	"shopgate/internal/router"
	"shopgate/internal/search"
	"shopgate/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration; missing required configuration is fatal here and
	// nowhere else.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting shopgate API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the catalog. With S3 enabled the object store is preferred and
	// the local file is the fallback; the built-in allow-list is the last
	// resort so the process can still start.
	loader := catalog.NewFileLoader(cfg.Catalog.Path, logger)
	if cfg.Catalog.S3Enabled {
		s3Loader, err := catalog.NewS3Loader(ctx, cfg.Catalog.S3Bucket, cfg.Catalog.S3Region, cfg.Catalog.S3Key, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 catalog loader, using local file only")
		} else {
			loader = catalog.NewFallbackLoader(s3Loader, loader, logger)
		}
	}
	defaultASIN, entries, err := loader.Load(ctx)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("file", cfg.Catalog.Path).
			Msg("failed to load catalog, using built-in catalog")
		defaultASIN, entries = catalog.Builtin()
	}

	validator, err := catalog.NewValidator(defaultASIN, entries, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise catalog validator: %w", err)
	}

	signer := offer.NewSigner([]byte(cfg.Signing.Secret))

	// Initialise the idempotency ledger.
	retention := time.Duration(cfg.Ledger.RetentionSeconds) * time.Second
	reapInterval := time.Duration(cfg.Ledger.ReapIntervalSeconds) * time.Second

	var purchaseLedger ledger.Ledger
	switch cfg.Ledger.Backend {
	case config.LedgerBackendPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialise ledger database: %w", err)
		}
		defer pool.Close()

		purchaseLedger, err = ledger.NewPostgresLedger(ctx, pool, retention, reapInterval, logger)
		if err != nil {
			return fmt.Errorf("failed to initialise postgres ledger: %w", err)
		}
	default:
		purchaseLedger = ledger.NewMemoryLedger(retention, reapInterval, logger)
	}
	defer purchaseLedger.Close()

	// Initialise collaborator clients
	searchClient := search.NewHTTPClient(
		cfg.Search.BaseURL,
		cfg.Search.APIKey,
		cfg.Search.Source,
		time.Duration(cfg.Search.TimeoutSeconds)*time.Second,
		logger,
	)
	fulfillmentClient := fulfillment.NewHTTPClient(
		cfg.Fulfillment.BaseURL,
		cfg.Fulfillment.APIKey,
		time.Duration(cfg.Fulfillment.TimeoutSeconds)*time.Second,
		logger,
	)

	// Initialise services
	quoteService := service.NewQuoteService(searchClient, signer, logger)
	purchaseService := service.NewPurchaseService(
		signer,
		validator,
		purchaseLedger,
		fulfillmentClient,
		cfg.Fulfillment.Recipient,
		logger,
	)

	// Initialise HTTP handlers
	searchHandler := handler.NewSearchHandler(quoteService, logger)
	catalogHandler := handler.NewCatalogHandler(validator, logger)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService, handler.PaymentConfig{
		PayTo:   cfg.Payment.PayTo,
		Asset:   cfg.Payment.Asset,
		Network: cfg.Payment.Network,
	}, logger)

	mux := router.New(searchHandler, catalogHandler, purchaseHandler, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
