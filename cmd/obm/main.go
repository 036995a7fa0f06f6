package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/akhil9281/AlgoTest-OrderApi/internal/app/engine"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/checkpoint"
	eventpublisher "github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/event-publisher"
	orderreader "github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/order-reader"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/orderbook"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/wal"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/config"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/redis"
)

var cfg *config.OBMConfig
var log *logger.Logger

func init() {
	var err error
	cfg = &config.OBMConfig{}
	if err = config.Load(cfg); err != nil {
		panic(err)
	}

	logger, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}

	log = logger
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	redisConfig := redis.DefaultConfig()
	redisConfig.Addrs = cfg.RedisConfig.Addrs
	redisConfig.Username = cfg.RedisConfig.Username
	redisConfig.Password = cfg.RedisConfig.Password
	redisConfig.DB = cfg.RedisConfig.DB

	rclient := redis.NewClient(log, redisConfig)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_redis"})
		return
	}

	walStore, err := wal.Open(cfg.WALConfig, log)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "open_wal"})
		return
	}

	checkpoints, err := checkpoint.NewStore(cfg.CheckpointConfig.Dir)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "open_checkpoint_store"})
		return
	}

	book := orderbook.NewBook()
	reader := orderreader.NewReader(cfg.KafkaConfig, log)
	publisher := eventpublisher.NewPublisher(cfg.KafkaConfig, cfg.RedisConfig, rclient, log)

	options := app.DefaultEngineOptions()
	options.SnapshotInterval = cfg.EngineConfig.SnapshotInterval
	options.SnapshotDepth = cfg.EngineConfig.SnapshotDepth
	options.RecentRequests = cfg.EngineConfig.RecentRequests
	options.CheckpointDelta = cfg.CheckpointConfig.RecordDelta

	engine := app.NewEngineWithOptions(book, walStore, reader, publisher, checkpoints, log, options)

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "start_engine"})
		return
	}

	log.Info("obm service started",
		logger.Field{Key: "instrument", Value: cfg.Instrument},
	)

	sig := <-sigChan
	log.Info("received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_engine"})
	}

	if err := publisher.Close(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_publisher"})
	}
	if err := walStore.Close(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_wal"})
	}
	if err := checkpoints.Close(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "close_checkpoint_store"})
	}
	if err := rclient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "disconnect_redis"})
	}

	log.Info("obm service shutdown complete")
}
