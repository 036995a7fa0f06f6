package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akhil9281/AlgoTest-OrderApi/internal/infrastructure/postgresql/order"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/infrastructure/postgresql/stream"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/infrastructure/postgresql/trade"
	orderwriter "github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/order-writer"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/config"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/migration"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/postgresql"
)

var cfg *config.WriterConfig
var log *logger.Logger

func init() {
	var err error
	cfg = &config.WriterConfig{}
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

	db, err := postgresql.NewClient(ctx, cfg.PostgresConfig)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_postgres"})
		return
	}
	defer db.Close()

	runner := migration.NewRunner(db, migration.Config{
		MigrationDir: cfg.PostgresConfig.MigrationsDir,
	})
	if err := runner.Up(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "run_migrations"})
		return
	}

	writer := orderwriter.NewWriter(
		*cfg,
		db,
		order.NewRepository(db, log),
		trade.NewRepository(db, log),
		stream.NewRepository(db),
		log,
	)

	done := make(chan error, 1)
	go func() {
		done <- writer.Run(ctx)
	}()

	log.Info("order writer service started",
		logger.Field{Key: "consumer", Value: cfg.ConsumerName},
	)

	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "run_writer"})
		}
	}

	log.Info("order writer shutdown complete")
}
