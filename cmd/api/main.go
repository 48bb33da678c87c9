package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mliu/reelgen/internal/api"
	"github.com/mliu/reelgen/internal/api/middleware"
	"github.com/mliu/reelgen/internal/config"
	"github.com/mliu/reelgen/internal/logger"
	"github.com/mliu/reelgen/internal/media"
	"github.com/mliu/reelgen/internal/narration"
	"github.com/mliu/reelgen/internal/render"
	"github.com/mliu/reelgen/internal/repository"
	"github.com/mliu/reelgen/internal/status"
	"github.com/mliu/reelgen/internal/storage"
	"github.com/mliu/reelgen/internal/textproc"
	"github.com/mliu/reelgen/internal/uploads"
	"github.com/mliu/reelgen/internal/video"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	ctx := context.Background()

	// Initialize status store
	statusStore, err := status.NewRedisStore(ctx, &status.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Jobs.TTL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to status store")
	}
	defer statusStore.Close()

	// Initialize database and uploaded image index
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	imageRepo := repository.NewImageRepository(db)

	// Initialize object storage
	objectStorage, err := storage.NewS3Storage(&storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	// Initialize pipeline stages
	analyzer := textproc.NewAnalyzer(cfg.Video.MinSegmentSecs, cfg.Video.MaxSegments)

	generator := media.NewGenerator(&media.GeneratorConfig{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		ChatModel:      cfg.OpenAI.ChatModel,
		ImageModel:     cfg.OpenAI.ImageModel,
		ImageSize:      cfg.OpenAI.ImageSize,
		PhotoBaseURL:   cfg.PhotoAPI.BaseURL,
		PhotoAccessKey: cfg.PhotoAPI.AccessKey,
	})
	resolver := media.NewResolver(imageRepo, objectStorage, generator, media.NewFetcher())

	renderer := render.NewFFmpegRenderer(&render.FFmpegConfig{
		FFmpegPath:  cfg.Video.FFmpegPath,
		FFprobePath: cfg.Video.FFprobePath,
		AspectRatio: cfg.Video.AspectRatio,
		FPS:         cfg.Video.FPS,
	})
	assembler := render.NewAssembler(renderer, cfg.Video.RenderWorkers)
	muxer := render.NewMuxer(renderer)

	synthesizer := narration.NewSynthesizer(&narration.Config{
		BaseURL: cfg.TTS.BaseURL,
		APIKey:  cfg.TTS.APIKey,
		Model:   cfg.TTS.Model,
		Voice:   cfg.TTS.Voice,
	}, renderer)

	publisher := video.NewStoragePublisher(objectStorage, cfg.Storage.SignedURLTTL)

	orchestrator := video.NewOrchestrator(
		statusStore, resolver, synthesizer, assembler, muxer, publisher,
		analyzer,
		video.Options{
			WorkdirRoot:     cfg.Video.WorkdirRoot,
			CaptionsEnabled: cfg.Video.CaptionsEnabled,
		},
	)

	// Initialize upload service
	uploadValidator := uploads.NewValidator(cfg.Uploads.MaxFiles, cfg.Uploads.MaxFileSize)
	uploadService := uploads.NewService(imageRepo, objectStorage, uploadValidator)

	// Setup router
	router := api.SetupRouter(orchestrator, uploadService, statusStore, cfg.Server.Mode, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout. In-flight jobs keep running until the
	// process exits; their status records survive in the store.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
