package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mdq-screening-server/internal/api"
	"github.com/mdq-screening-server/internal/cache"
	"github.com/mdq-screening-server/internal/config"
	"github.com/mdq-screening-server/internal/database"
	"github.com/mdq-screening-server/internal/service"
	"github.com/mdq-screening-server/internal/storage"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(&cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open assessment store: %v", err)
	}
	defer cleanup()

	analysisCache, err := newAnalysisCache(ctx, &cfg.Cache, logger)
	if err != nil {
		log.Fatalf("Failed to initialize analysis cache: %v", err)
	}

	svc, err := service.NewScreeningService(
		service.Config{
			Scheme:       configManager.SchemeKind(),
			HistoryLimit: cfg.Screening.HistoryLimit,
		},
		store, analysisCache, logger,
	)
	if err != nil {
		log.Fatalf("Failed to create screening service: %v", err)
	}

	server := api.NewServer(cfg, svc, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host":   cfg.Server.Host,
		"port":   cfg.Server.Port,
		"scheme": cfg.Screening.Scheme,
		"driver": cfg.Database.Driver,
	}).Info("Starting MDQ screening server")

	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

func newLogger(cfg *config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}

// openStore selects the storage backend from the configured driver. The
// returned cleanup func closes the store and, for postgres, the pool behind
// it.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (storage.Store, func(), error) {
	switch cfg.Database.Driver {
	case "postgres":
		dbConfig := database.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			Database:    cfg.Database.Database,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			SSLMode:     cfg.Database.SSLMode,
			MaxConns:    int32(cfg.Database.MaxOpenConns),
			MinConns:    int32(cfg.Database.MaxIdleConns),
			MaxConnLife: cfg.Database.ConnMaxLifetime,
		}

		if cfg.Database.AutoMigrate {
			if err := runMigrations(dbConfig.URL(), cfg.Database.MigrationsPath, logger); err != nil {
				return nil, nil, err
			}
		}

		db, err := database.NewConnection(ctx, dbConfig, logger)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgresStore(db.Pool, logger), db.Close, nil

	default:
		store, err := storage.NewSQLiteStore(cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}

func runMigrations(databaseURL, migrationsPath string, logger *logrus.Logger) error {
	runner, err := database.NewMigrationRunner(databaseURL, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up()
}

func newAnalysisCache(ctx context.Context, cfg *config.CacheConfig, logger *logrus.Logger) (*cache.AnalysisCache, error) {
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if cfg.PoolSize > 0 {
			opts.PoolSize = cfg.PoolSize
		}
		if cfg.PoolTimeout > 0 {
			opts.PoolTimeout = cfg.PoolTimeout
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable, falling back to in-process cache only")
			redisClient = nil
		}
	}

	return cache.NewAnalysisCache(
		cache.Config{LocalSize: cfg.LocalSize, TTL: cfg.DefaultTTL},
		redisClient, logger,
	)
}
