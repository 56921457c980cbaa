package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	_ "github.com/dmaldonado1992/MedVerify/docs/swagger"
	"github.com/dmaldonado1992/MedVerify/internal/auth"
	"github.com/dmaldonado1992/MedVerify/internal/config"
	"github.com/dmaldonado1992/MedVerify/internal/logger"
	"github.com/dmaldonado1992/MedVerify/internal/metrics"
	"github.com/dmaldonado1992/MedVerify/internal/notify"
	"github.com/dmaldonado1992/MedVerify/internal/presigned"
	"github.com/dmaldonado1992/MedVerify/internal/server"
	"github.com/dmaldonado1992/MedVerify/internal/storage"
	"github.com/dmaldonado1992/MedVerify/internal/user"
	"github.com/dmaldonado1992/MedVerify/internal/video"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	log, err := logger.Init()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if cfg.Postgres.Migrate {
		if err := storage.Migrate(cfg.Postgres.DSN()); err != nil {
			log.Fatal("migrate schema", zap.Error(err))
		}
	}

	minioClient, err := storage.NewMinIOClient(cfg.Storage)
	if err != nil {
		log.Fatal("create storage client", zap.Error(err))
	}
	if cfg.Storage.EnsureBucket {
		if err := storage.EnsureBucket(ctx, minioClient, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			log.Fatal("ensure bucket", zap.Error(err))
		}
	}
	objects := storage.NewObjectClient(minioClient, cfg.Storage.Bucket)

	signerService, err := presigned.NewService(minioClient, cfg.Storage)
	if err != nil {
		log.Fatal("configure presigner", zap.Error(err))
	}
	var signer presigned.Presigner = signerService

	redisClient, err := storage.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("link cache disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		signer = presigned.NewCachedPresigner(signerService, presigned.NewRedisCache(redisClient), log)
	}

	dispatcher := notify.NewDispatcherFromConfig(cfg.Email, log)
	if len(dispatcher.Providers()) == 0 {
		log.Warn("no email provider configured, notifications will fail")
	}

	userRepo := user.NewRepository(dbPool)
	userService := user.NewService(userRepo, cfg.Auth.BcryptCost)
	authService := auth.NewService(userRepo, cfg.Auth)

	videoService := video.NewService(video.NewRepository(dbPool), userService, objects, signer, dispatcher, video.Options{
		MaxBytes:  cfg.Upload.MaxBytes,
		UploadTTL: cfg.Storage.UploadURLTTL,
		ReadTTL:   cfg.Storage.ReadURLTTL,
		Mode:      signerService.Mode(),
	}, log)

	handler := server.NewHandler(server.Dependencies{
		Config:       cfg,
		DB:           dbPool,
		ObjectStore:  objects,
		AuthService:  authService,
		UserService:  userService,
		VideoService: videoService,
		Dispatcher:   dispatcher,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("MedVerify API listening",
			zap.String("addr", cfg.Server.Address()),
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("presign_mode", string(signerService.Mode())))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
