package bootstrap

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/feeltime/internal/config"
	"github.com/locvowork/feeltime/internal/database"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/handler"
	"github.com/locvowork/feeltime/internal/logger"
	"github.com/locvowork/feeltime/internal/repository"
	"github.com/locvowork/feeltime/internal/service"
)

type App struct {
	Echo   *echo.Echo
	Store  domain.EmotionStore
	Config *config.EnvConfig
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	cfg, err := config.LoadEnvConfig()
	if err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	a.Config = cfg

	// Initialize logging
	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	// Initialize storage
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Store = store

	// Initialize dependencies
	emotionSvc := service.NewEmotionService(store)
	emotionHandler := handler.NewEmotionHandler(emotionSvc)

	// Register Middlewares
	a.RegisterMiddlewares()

	// Register Routes
	handler.RegisterRoutes(a.Echo, emotionHandler)

	return nil
}

// OpenStore builds the storage backend selected by the configuration.
func OpenStore(ctx context.Context, cfg *config.EnvConfig) (domain.EmotionStore, error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, err
	}

	switch backend {
	case config.BackendPostgres:
		db, err := database.NewPostgresDB(ctx, database.Config{
			URL:             cfg.DATABASE_URL,
			MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
		})
		if err != nil {
			return nil, err
		}
		store, err := repository.NewPostgresStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.InfoLog(ctx, "Using postgres storage")
		return store, nil

	case config.BackendGCS:
		bucket, err := database.NewGCSBucket(ctx, cfg.GCS_BUCKET)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewObjectStore(ctx, bucket,
			repository.WithPrefix(cfg.GCS_PREFIX),
			repository.WithScanWorkers(cfg.OBJECT_SCAN_WORKERS),
		)
		if err != nil {
			bucket.Close()
			return nil, err
		}
		logger.InfoLog(ctx, "Using object storage gs://%s/%s", cfg.GCS_BUCKET, cfg.GCS_PREFIX)
		return store, nil

	default:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLITE_PATH)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewSQLiteStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.InfoLog(ctx, "Using sqlite storage at %s", cfg.SQLITE_PATH)
		return store, nil
	}
}

func (a *App) RegisterMiddlewares() {
	a.Echo.HTTPErrorHandler = handler.ErrorHandler
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
	a.Echo.Use(middleware.RequestID())
	a.Echo.Use(logger.EchoMiddleware())
}

// Run blocks serving HTTP until the server is shut down.
func (a *App) Run() error {
	return a.Echo.Start(":" + a.Config.APP_PORT)
}

// Close releases the storage handle.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
