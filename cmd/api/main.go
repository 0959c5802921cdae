package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"property-price-api/internal/artifact"
	"property-price-api/internal/config"
	"property-price-api/internal/database"
	"property-price-api/internal/dataset"
	"property-price-api/internal/features"
	"property-price-api/internal/handlers"
	"property-price-api/internal/logging"
	"property-price-api/internal/metrics"
	"property-price-api/internal/models"
	"property-price-api/internal/predictor"
	"property-price-api/internal/ratelimit"
	"property-price-api/internal/search"
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.New(appConfig.Logging)
	gin.SetMode(appConfig.Server.Mode)

	// Artifacts are required: refuse to start without a consistent bundle
	bundle, err := artifact.Load(appConfig.Artifacts)
	if err != nil {
		logger.Error("failed to load model artifacts", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("model artifacts loaded",
		slog.String("run_id", bundle.RunID()),
		slog.String("dir", appConfig.Artifacts.Dir),
		slog.Int("features", len(bundle.Features())),
	)

	encoder, err := features.NewEncoder(bundle.Encoders(), bundle.Features(),
		features.RangesFromConfig(appConfig.Validation, time.Now()))
	if err != nil {
		logger.Error("invalid feature configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	policy, err := predictor.NewPolicy(appConfig.Confidence, bundle.Metadata())
	if err != nil {
		logger.Error("invalid confidence policy", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reference dataset
	loadCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	records, err := database.Load(loadCtx, appConfig)
	cancel()
	if err != nil {
		logger.Error("failed to load reference dataset",
			slog.String("source", appConfig.Dataset.Source),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("reference dataset loaded",
		slog.String("source", appConfig.Dataset.Source),
		slog.Int("records", len(records)),
	)

	deps := handlers.Deps{
		Bundle:    bundle,
		Encoder:   encoder,
		Predictor: predictor.New(bundle.Model(), policy),
		Dataset:   dataset.New(records),
		Metrics:   metrics.New(),
	}

	if appConfig.Search.Meilisearch.Enabled {
		if client := initSearch(logger, appConfig.Search.Meilisearch, records); client != nil {
			deps.Search = client
		}
	}

	// Initialize rate limiter
	if appConfig.RateLimit.Enabled {
		deps.Limiter = ratelimit.NewRateLimiter(
			appConfig.RateLimit.RequestsPerMinute,
			appConfig.RateLimit.RequestsPerHour,
			true,
		)
		logger.Info("rate limiter initialized",
			slog.Int("per_minute", appConfig.RateLimit.RequestsPerMinute),
			slog.Int("per_hour", appConfig.RateLimit.RequestsPerHour),
		)
	}

	router := handlers.NewRouter(appConfig.Server, appConfig.Logging, logger, handlers.NewHandler(deps))

	srv := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", slog.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.GetShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// initSearch mirrors the dataset into meilisearch and only returns a client
// once the index is queryable. Failures are logged and search stays disabled.
func initSearch(logger *slog.Logger, cfg config.MeilisearchConfig, records []models.PropertyRecord) *search.SearchClient {
	client := search.NewSearchClient(cfg.Host, cfg.APIKey, cfg.Index)
	if !client.Healthy() {
		logger.Warn("meilisearch is not reachable, search disabled", slog.String("host", cfg.Host))
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := client.InitIndex(ctx); err != nil {
		logger.Warn("failed to initialize search index", slog.String("error", err.Error()))
		return nil
	}
	if err := client.IndexRecords(ctx, records); err != nil {
		logger.Warn("failed to index reference dataset", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("reference dataset indexed", slog.String("index", cfg.Index), slog.Int("records", len(records)))
	return client
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
