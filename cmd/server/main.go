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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eros-universe/motion-backend/internal/config"
	"github.com/eros-universe/motion-backend/internal/handlers"
	"github.com/eros-universe/motion-backend/internal/kling"
	"github.com/eros-universe/motion-backend/internal/middleware"
	"github.com/eros-universe/motion-backend/internal/storage"
	"github.com/eros-universe/motion-backend/internal/watermark"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logHandler slog.Handler = slog.NewTextHandler(os.Stdout, nil)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logHandler = slog.NewJSONHandler(os.Stdout, nil)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Error("failed to create upload directory", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	klingClient := kling.NewClient(cfg.KlingAPIBaseURL, cfg.KlingAccessKey, cfg.KlingSecretKey)

	var uploader handlers.ReferenceUploader
	if cfg.StorageEnabled {
		up, err := storage.NewUploader(context.Background(), storage.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			URLExpiry: cfg.S3URLExpiry,
		})
		if err != nil {
			logger.Error("failed to initialize object store", "error", err)
			os.Exit(1)
		}
		uploader = up
	} else {
		logger.Warn("object store disabled, references will be inlined as base64")
	}

	processor := watermark.NewProcessor(cfg.LogoPath, cfg.UploadDir, logger)

	generateHandler := handlers.NewGenerateHandler(klingClient, uploader, cfg.UploadDir, logger)
	taskHandler := handlers.NewTaskHandler(klingClient, logger)
	downloadHandler := handlers.NewDownloadHandler(klingClient, processor, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics())
	// Exact-match origin allowlist; requests without an Origin header (curl,
	// same-origin) pass through.
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", handlers.HealthHandler)
	api.POST("/generate", generateHandler.Generate)
	api.GET("/task/:taskId", taskHandler.GetStatus)
	api.GET("/download/:taskId", downloadHandler.Download)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}
