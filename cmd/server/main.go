package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docextract/internal/catalog"
	"docextract/internal/config"
	"docextract/internal/handler"
	"docextract/internal/logger"
	"docextract/internal/metrics"
	"docextract/internal/parser"
	"docextract/internal/parser/providers"
	"docextract/internal/repository/postgres"
	"docextract/internal/router"
	"docextract/internal/scheduler"
	"docextract/internal/service"
	s3storage "docextract/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

// @title docextract API
// @version 1.0
// @description Structured field extraction from identity documents through configurable AI providers.
// @securityDefinitions.apikey OrganizationID
// @in header
// @name X-Organization-ID
// @securityDefinitions.apikey AdminToken
// @in header
// @name X-Admin-Token
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	providerRepo := postgres.NewProviderConfigRepo(db)
	usageRepo := postgres.NewUsageRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize provider dialects and transport
	registry := providers.NewRegistry()
	if err := registry.Validate(); err != nil {
		return fmt.Errorf("provider registry: %w", err)
	}
	providerCatalog, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("failed to load provider catalog: %w", err)
	}
	client := parser.NewClient(parser.ClientConfig{
		AttemptTimeout:   cfg.Extraction.AttemptTimeout,
		MaxResponseBytes: cfg.Extraction.MaxResponseBytes,
		BreakerEnabled:   cfg.Extraction.BreakerEnabled,
		BreakerFailures:  cfg.Extraction.BreakerFailures,
		BreakerOpenFor:   cfg.Extraction.BreakerOpenFor,
	}, zl.Named("client"))
	m := metrics.New()

	// Initialize services
	usageSvc := service.NewUsageService(usageRepo, m, zl)
	extractionSvc := service.NewExtractionService(providerRepo, usageSvc, registry, client, s3Client, cfg.S3.Bucket, m, zl)
	providerSvc := service.NewProviderConfigService(providerRepo, usageRepo, providerCatalog, zl)

	// Monthly usage reset
	resetJob, err := scheduler.NewUsageReset(cfg.Usage.ResetSchedule, extractionSvc, zl)
	if err != nil {
		return fmt.Errorf("usage reset schedule: %w", err)
	}
	resetJob.Start()

	// Initialize handlers
	extractionH := handler.NewExtractionHandler(extractionSvc, zl)
	providerH := handler.NewProviderHandler(providerSvc, extractionSvc, zl)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, zl, m, extractionH, providerH, healthH)
	if cfg.Server.AdminToken == "" {
		zl.Warn("admin token not set; maintenance routes are disabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", srv.Addr), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			resetJob.Stop(context.Background())
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	resetJob.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	zl.Info("server stopped")
	return nil
}
