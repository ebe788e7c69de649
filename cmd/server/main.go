package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maraichr/curator/internal/api"
	"github.com/maraichr/curator/internal/chunker"
	"github.com/maraichr/curator/internal/classify"
	"github.com/maraichr/curator/internal/config"
	"github.com/maraichr/curator/internal/crawler"
	"github.com/maraichr/curator/internal/embedding"
	"github.com/maraichr/curator/internal/extract"
	"github.com/maraichr/curator/internal/ingestion"
	"github.com/maraichr/curator/internal/progress"
	"github.com/maraichr/curator/internal/store"
	minioclient "github.com/maraichr/curator/internal/store/minio"
	"github.com/maraichr/curator/internal/store/postgres"
	vk "github.com/maraichr/curator/internal/store/valkey"
)

func main() {
	_ = godotenv.Load(".env") // ignore error if .env missing

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	s := store.New(pool)

	deps := &api.RouterDeps{}

	// Valkey (optional — enables progress broadcast)
	var broadcast progress.Broadcaster
	vkClient, err := vk.NewClient(cfg.Valkey)
	if err != nil {
		logger.Warn("valkey connection failed, progress broadcast disabled", slog.String("error", err.Error()))
	} else {
		broadcast = vk.NewProgressPublisher(vkClient, logger)
		defer vkClient.Close()
		logger.Info("connected to valkey")
	}

	// MinIO (optional — enables uploads)
	mc, err := minioclient.NewClient(cfg.MinIO)
	if err != nil {
		logger.Warn("minio connection failed, uploads disabled", slog.String("error", err.Error()))
	} else {
		if err := mc.EnsureBucket(ctx); err != nil {
			logger.Error("minio bucket setup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		deps.MinIO = mc
		logger.Info("connected to minio", slog.String("bucket", mc.Bucket()))
	}

	embedder, err := embedding.NewClient(cfg.Bedrock)
	if err != nil {
		logger.Error("embedder init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("embeddings enabled", slog.String("model", embedder.ModelID()))

	tracker := progress.NewTracker(logger, broadcast)
	registry := ingestion.NewRegistry()

	var objects ingestion.ObjectStore
	if mc != nil && deps.MinIO != nil {
		objects = mc
	}

	orch := ingestion.NewOrchestrator(
		tracker,
		registry,
		crawler.New(cfg.Crawler, logger),
		extract.New(logger),
		classify.New(classify.Thresholds{
			MinLength:     cfg.Extractor.MinBlockLength,
			MaxProseRatio: cfg.Extractor.MaxProseRatio,
			MinIndicators: cfg.Extractor.MinIndicators,
		}, logger),
		embedder,
		s,
		objects,
		chunker.Config{
			TargetSize: cfg.Extractor.ChunkSize,
			Overlap:    cfg.Extractor.ChunkOverlap,
		},
		logger,
	)

	router := api.NewRouter(logger, s, tracker, orch, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
