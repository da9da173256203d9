package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/questboard/api/handler"
	"github.com/fastygo/questboard/internal/config"
	"github.com/fastygo/questboard/internal/infrastructure/buffer"
	"github.com/fastygo/questboard/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/questboard/internal/infrastructure/redis"
	"github.com/fastygo/questboard/internal/middleware"
	"github.com/fastygo/questboard/internal/router"
	"github.com/fastygo/questboard/internal/services"
	"github.com/fastygo/questboard/internal/services/lifecycle"
	"github.com/fastygo/questboard/internal/storage"
	"github.com/fastygo/questboard/pkg/httpcontext"
	"github.com/fastygo/questboard/pkg/logger"
	redisRepo "github.com/fastygo/questboard/repository/redis"
	"github.com/fastygo/questboard/usecase"
	authUC "github.com/fastygo/questboard/usecase/auth"
	profileUC "github.com/fastygo/questboard/usecase/profile"
	progressUC "github.com/fastygo/questboard/usecase/progress"
	taskUC "github.com/fastygo/questboard/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		AppName:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	backend, err := storage.Open(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage init failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	manager.Register("storage", func(ctx context.Context) error {
		return backend.Close(zapLogger)
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "buffer", cfg.Buffer.MaxSize)
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(monitor.Probes{
		Driver:   backend.Driver,
		Database: backend.Ping,
		Redis:    redisInfra.Ping(redisClient),
		Buffer:   bufferStore.Size,
	}, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Session.TTL)

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		services.ReplayTargets{Users: backend.Users, Tasks: backend.Store.Tasks()},
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  cfg.Buffer.Retention,
		},
	)
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	bufferBridge := services.NewBufferBridge(bufferProcessor)

	var progressCache usecase.ProgressCache
	if cfg.Progress.CacheEnabled {
		progressCache = redisRepo.NewProgressCache(redisClient, cfg.Progress.CacheTTL)
	}
	loc := cfg.Location()

	authUseCase := authUC.New(backend.Users, sessionRepo, zapLogger)
	profileUseCase := profileUC.New(backend.Users, backend.Store.Stats(), bufferBridge, zapLogger)
	taskUseCase := taskUC.New(backend.Store, bufferBridge, zapLogger,
		taskUC.WithLocation(loc),
		taskUC.WithProgressCache(progressCache),
	)
	progressUseCase := progressUC.New(backend.Store, zapLogger,
		progressUC.WithLocation(loc),
		progressUC.WithCache(progressCache),
	)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.Session.TTL),
		Profile:  apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:     apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Progress: apiHandler.NewProgressHandler(progressUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware, router.Options{
		EnableMetrics: cfg.HTTP.EnableMetrics,
		EnablePprof:   cfg.HTTP.EnablePprof,
	})

	server := &fasthttp.Server{
		Handler:      middleware.AccessLog(middleware.Metrics(r.Handler), zapLogger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	zapLogger.Info("server starting",
		zap.String("address", cfg.Address()),
		zap.String("storage", backend.Driver),
		zap.String("timezone", loc.String()))
	manager.Go("http_server", func() error {
		return server.ListenAndServe(cfg.Address())
	})

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	if err := manager.Err(); err != nil {
		zapLogger.Sync()
		os.Exit(1)
	}
}
