package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/internal/config"
	"github.com/fastygo/todo/internal/infrastructure/boltdb"
	pgInfra "github.com/fastygo/todo/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/todo/internal/infrastructure/redis"
	"github.com/fastygo/todo/internal/middleware"
	"github.com/fastygo/todo/internal/router"
	"github.com/fastygo/todo/internal/services/lifecycle"
	"github.com/fastygo/todo/pkg/httpcontext"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
	boltRepo "github.com/fastygo/todo/repository/bolt"
	"github.com/fastygo/todo/repository/postgres"
	redisRepo "github.com/fastygo/todo/repository/redis"
	todoUC "github.com/fastygo/todo/usecase/todo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger = zapLogger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment))

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.Listen(context.Background())
	defer stop()

	todoRepo, err := openTodoRepository(appCtx, cfg, manager, zapLogger)
	if err != nil {
		manager.Fatal("storage initialization failed", err)
	}

	if cfg.Cache.Enabled {
		redisClient, err := redisInfra.NewClient(cfg.Redis, zapLogger)
		if err != nil {
			manager.Fatal("redis connection failed", err)
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		todoRepo = redisRepo.NewCachedTodoRepository(todoRepo, redisClient, cfg.Cache.TTL, zapLogger)
	}

	todoUseCase := todoUC.New(todoRepo, time.Now, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Todo:   apiHandler.NewTodoHandler(todoUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(ctxAdapter, zapLogger),
	}

	r := router.New(handlers, zapLogger)

	server := &fasthttp.Server{
		Handler:      middleware.AccessLog(zapLogger)(r.Handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("cache", cfg.Cache.Enabled))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			manager.Fatal("server crashed", err)
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openTodoRepository connects the configured storage driver and registers its
// shutdown hook.
func openTodoRepository(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (repository.TodoRepository, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, zapLogger); err != nil {
			return nil, err
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		return postgres.NewTodoRepository(pool), nil

	default:
		db, err := boltdb.Open(cfg.Bolt.Path, zapLogger, boltRepo.Bucket)
		if err != nil {
			return nil, err
		}
		manager.Register("bolt", func(ctx context.Context) error {
			return db.Close()
		})
		return boltRepo.NewTodoRepository(db), nil
	}
}
