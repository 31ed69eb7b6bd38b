package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"femiforge/media-api/internal/api"
	"femiforge/media-api/internal/config"
	"femiforge/media-api/internal/repository/mongo"
	"femiforge/media-api/internal/service"
	"femiforge/media-api/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("could not load config: " + err.Error())
	}

	// --- Logger ---
	logger, err := newLogger(cfg.Log.Mode)
	if err != nil {
		panic("could not build logger: " + err.Error())
	}
	defer logger.Sync()
	logger.Info("starting media catalog server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("db", cfg.Database.Name))

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureAssetIndexes(ctx, appDB.Collection("assets")); err != nil {
			logger.Warn("failed to create asset indexes", zap.Error(err))
		}
		if err := mongo.EnsureUserIndexes(ctx, appDB.Collection("users")); err != nil {
			logger.Warn("failed to create user indexes", zap.Error(err))
		}
	}()

	// --- Artifact Store ---
	artifactStore, err := storage.NewDiskStore(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatal("failed to initialize artifact store", zap.Error(err))
	}
	logger.Info("artifact store initialized", zap.String("dir", cfg.Storage.UploadDir))

	// --- Repositories ---
	assetRepo := mongo.NewMongoAssetRepository(appDB)
	userRepo := mongo.NewMongoUserRepository(appDB)

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, logger)
	assetService := service.NewAssetService(assetRepo, artifactStore, service.UploadLimits{
		MaxPhotoBytes:     cfg.Storage.MaxPhotoSizeMB << 20,
		MaxVideoBytes:     cfg.Storage.MaxVideoSizeMB << 20,
		MaxThumbnailBytes: cfg.Storage.MaxThumbnailSizeMB << 20,
	}, logger)

	// --- Admin Bootstrap ---
	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(bootstrapCtx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		bootstrapCancel()
		logger.Fatal("failed to bootstrap admin account", zap.Error(err))
	}
	bootstrapCancel()

	// --- Router ---
	if cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, cfg.JWT.Secret, authService, assetService, cfg.Storage.UploadDir)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "prod" || mode == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
