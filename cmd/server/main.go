package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shoproute/backend/config"
	httpDelivery "github.com/shoproute/backend/internal/delivery/http"
	"github.com/shoproute/backend/internal/domain"
	"github.com/shoproute/backend/internal/infrastructure/assistant"
	"github.com/shoproute/backend/internal/infrastructure/catalogcsv"
	"github.com/shoproute/backend/internal/infrastructure/trainingstore"
	"github.com/shoproute/backend/internal/logging"
	"github.com/shoproute/backend/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Server.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting shoproute backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port))

	// Durable state: catalog tables and the fuzzy training cache
	catalog, err := catalogcsv.Load(cfg.Catalog.InventoryPath, cfg.Catalog.ShopsPath, logger)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	training := trainingstore.Load(cfg.Catalog.TrainingPath, logger)

	// Core services
	matcher := usecase.NewMatcherService(training, usecase.MatcherConfig{
		Threshold: cfg.Matching.Threshold,
	}, logger)

	engine := usecase.NewRecommendationService(catalog, matcher, usecase.RecommendationConfig{
		TopShops:  cfg.Matching.TopShops,
		PathCount: cfg.Matching.PathCount,
	}, logger)

	// Free-text categorization is optional; without an API key the manual
	// evaluate option reports the collaborator as unconfigured
	var parser domain.TextParser
	if cfg.Assistant.APIKey != "" {
		parser = assistant.NewClient(assistant.Config{
			APIKey:  cfg.Assistant.APIKey,
			BaseURL: cfg.Assistant.BaseURL,
			Model:   cfg.Assistant.Model,
			Timeout: cfg.Assistant.Timeout,
		}, catalog.Categories(), logger)
		logger.Info("assistant configured", zap.String("model", cfg.Assistant.Model))
	} else {
		logger.Warn("assistant API key not set, manual input disabled")
	}

	defaultLocation := domain.Location{
		Lat: cfg.Matching.DefaultLat,
		Lon: cfg.Matching.DefaultLon,
	}
	handler := httpDelivery.NewHandler(engine, parser, defaultLocation, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Commits rewrite the catalog files, so drain in-flight requests on
	// shutdown instead of killing them mid-write
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("server exited")
}
