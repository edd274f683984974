package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seat-booking/cmd"
	"seat-booking/internal/data/cache"
	"seat-booking/internal/data/repository"
	"seat-booking/internal/event"
	"seat-booking/internal/wire"
	"seat-booking/migrations"
	"seat-booking/pkg/database"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("store", config.App.StoreDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore := openStore(ctx, config, logger)
	defer closeStore()

	seatCache := openCache(ctx, config.Redis, logger)
	events := openPublisher(config.RabbitMQ, logger)
	defer events.Close()

	// Wire all dependencies
	app := wire.Wiring(repos, seatCache, events, config, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}

func openStore(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func()) {
	if config.App.StoreDriver == utils.StoreDriverMemory {
		logger.Warn("Using in-memory seat store; data is lost on restart")
		return repository.NewMemoryRepository(logger), func() {}
	}

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := migrations.Apply(migrateCtx, db); err != nil {
		db.Close()
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	return repository.NewRepository(db, logger), db.Close
}

func openCache(ctx context.Context, config utils.RedisConfig, logger *zap.Logger) cache.SeatCache {
	if !config.Enabled {
		return cache.NewNoopSeatCache()
	}

	rdb, err := cache.NewRedisClient(ctx, config)
	if err != nil {
		logger.Warn("Redis unavailable, seat listing cache disabled", zap.Error(err))
		return cache.NewNoopSeatCache()
	}

	logger.Info("Redis connected", zap.String("addr", config.Addr))
	return cache.NewRedisSeatCache(rdb, config.CacheTTL, logger)
}

func openPublisher(config utils.RabbitMQConfig, logger *zap.Logger) event.Publisher {
	if !config.Enabled {
		return event.NewNoopPublisher()
	}

	publisher, err := event.NewAMQPPublisher(config.URL, config.Queue, logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, seat events disabled", zap.Error(err))
		return event.NewNoopPublisher()
	}

	logger.Info("RabbitMQ connected", zap.String("queue", config.Queue))
	return publisher
}
