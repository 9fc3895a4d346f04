package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/windfall/truevoice/internal/analysis"
	"github.com/windfall/truevoice/internal/audio"
	"github.com/windfall/truevoice/internal/client"
	"github.com/windfall/truevoice/internal/config"
	"github.com/windfall/truevoice/internal/handler/http"
	"github.com/windfall/truevoice/internal/logger"
	"github.com/windfall/truevoice/internal/repository"
	"github.com/windfall/truevoice/internal/server"
	"github.com/windfall/truevoice/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("env", cfg.Environment).Msg("Starting truevoice")

	// Resolve the operating mode once. Everything below branches on it.
	mode := config.ResolveMode(cfg, log)
	log.Info().Str("mode", string(mode)).Msg("Operating mode resolved")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients
	var postgresClient *client.PostgresClient
	var blobStore client.BlobStore
	var redisClient *client.RedisClient
	var pronunciation analysis.PronunciationScorer

	if mode == config.ModeConnected {
		postgresClient, err = client.NewPostgresClient(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Postgres client")
		}
		log.Info().Msg("Postgres client initialized")

		switch cfg.StorageBackend {
		case "s3":
			blobStore, err = client.NewS3BlobStore(ctx, cfg.S3AccessKeyID, cfg.S3SecretKey, cfg.S3Endpoint, cfg.S3Bucket)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize S3 blob store")
			}
			log.Info().Str("bucket", cfg.S3Bucket).Msg("S3 blob store initialized")
		default:
			blobStore, err = client.NewGCSBlobStore(ctx, cfg.GCSBucket)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize GCS blob store")
			}
			log.Info().Str("bucket", cfg.GCSBucket).Msg("GCS blob store initialized")
		}

		azureSpeechClient := client.NewAzureSpeechClient(cfg.AzureSpeechKey, cfg.AzureRegion, cfg.SpeechLanguage)
		pronunciation = analysis.NewProviderScorer(azureSpeechClient, log)

		if cfg.RedisURL != "" {
			redisClient, err = client.NewRedisClient(cfg.RedisURL)
			if err != nil {
				log.Error().Err(err).Msg("Failed to initialize Redis client, continuing without result cache")
				redisClient = nil
			} else {
				log.Info().Msg("Redis client initialized")
			}
		}
	}

	// Initialize repositories
	var recordingRepo repository.RecordingRepository
	var resultRepo repository.ResultRepository
	if postgresClient != nil {
		recordingRepo = repository.NewPostgresRecordingRepository(postgresClient)
		resultRepo = repository.NewPostgresResultRepository(postgresClient)
	} else {
		recordingRepo = repository.NewInMemoryRecordingRepository()
		resultRepo = repository.NewInMemoryResultRepository()
	}

	if pronunciation == nil {
		pronunciation = analysis.NewOfflineScorer(rand.NewSource(time.Now().UnixNano()))
	}

	// Initialize services
	normalizer := audio.NewNormalizer(cfg.FFmpegBin, log)
	analysisService := service.NewAnalysisService(
		mode, recordingRepo, resultRepo, blobStore, normalizer, pronunciation, redisClient, log,
	)

	// Initialize handlers
	healthHandler := http.NewHealthHandler(mode)
	analysisHandler := http.NewAnalysisHandler(log, analysisService)

	// Initialize HTTP server
	httpServer := server.NewHTTPServer(cfg, log, healthHandler, analysisHandler)

	// Start server
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	log.Info().
		Str("http_addr", cfg.HTTPAddress()).
		Msg("Server started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Close clients
	if redisClient != nil {
		redisClient.Close()
	}
	if postgresClient != nil {
		postgresClient.Close()
	}

	log.Info().Msg("Server stopped")
}
