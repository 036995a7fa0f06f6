package orderwriter

import (
	"context"
	"encoding/json"
	"time"

	walv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/wal/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/infrastructure/postgresql/order"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/infrastructure/postgresql/stream"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/infrastructure/postgresql/trade"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/config"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/postgresql"
	"github.com/segmentio/kafka-go"
)

// Writer mirrors the persistence stream into PostgreSQL. Delivery is
// at-least-once; records at or below the stored stream position are
// skipped, and every write is idempotent, so redelivery never double-counts
// a fill. The writer's lag never blocks the engine.
type Writer struct {
	kafkaReader *kafka.Reader
	tx          postgresql.Transaction
	orders      order.Repository
	trades      trade.Repository
	positions   stream.Repository
	consumer    string
	logger      *logger.Logger

	position uint64
}

// NewWriter creates the persistence stream consumer.
func NewWriter(
	cfg config.WriterConfig,
	db postgresql.PostgreSQLClient,
	orders order.Repository,
	trades trade.Repository,
	positions stream.Repository,
	log *logger.Logger,
) *Writer {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.RecordTopic,
		GroupID:  cfg.ConsumerName,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &Writer{
		kafkaReader: kafkaReader,
		tx:          postgresql.NewTransaction(db),
		orders:      orders,
		trades:      trades,
		positions:   positions,
		consumer:    cfg.ConsumerName,
		logger:      log,
	}
}

// Run consumes records until the context is cancelled.
func (w *Writer) Run(ctx context.Context) error {
	position, err := w.positions.Position(ctx, w.consumer)
	if err != nil {
		return err
	}
	w.position = position

	w.logger.Info("order writer started",
		logger.Field{Key: "consumer", Value: w.consumer},
		logger.Field{Key: "position", Value: position},
	)

	for {
		msg, err := w.kafkaReader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return w.kafkaReader.Close()
			}
			w.logger.Error(errors.NewErrorDetails(err.Error(), string(errors.KafkaReadError), "fetch"))
			time.Sleep(time.Second)
			continue
		}

		var rec walv1.Record
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			w.logger.Warn("skipping malformed stream record",
				logger.Field{Key: "offset", Value: msg.Offset},
				logger.Field{Key: "error", Value: err.Error()},
			)
			w.commit(ctx, msg)
			continue
		}

		if rec.LSN <= w.position {
			w.commit(ctx, msg)
			continue
		}

		if err := w.applyRecord(ctx, &rec); err != nil {
			// Leave the message uncommitted; it is redelivered and applied
			// once the database recovers.
			w.logger.Error(err,
				logger.Field{Key: "lsn", Value: rec.LSN},
				logger.Field{Key: "kind", Value: rec.Kind},
			)
			time.Sleep(time.Second)
			continue
		}

		w.position = rec.LSN
		w.commit(ctx, msg)
	}
}

// applyRecord mirrors one record and advances the stream position in a
// single transaction.
func (w *Writer) applyRecord(ctx context.Context, rec *walv1.Record) error {
	txCtx, err := w.tx.Begin(ctx)
	if err != nil {
		return errors.TracerFromError(err)
	}

	if err := w.mirror(txCtx, rec); err != nil {
		_ = w.tx.Rollback(txCtx)
		return err
	}

	if err := w.positions.SetPosition(txCtx, w.consumer, rec.LSN); err != nil {
		_ = w.tx.Rollback(txCtx)
		return err
	}

	return w.tx.Commit(txCtx)
}

func (w *Writer) mirror(ctx context.Context, rec *walv1.Record) error {
	switch rec.Kind {
	case walv1.KindOrderInsert:
		return w.orders.Store(ctx, order.FromDomain(&rec.Insert.Order))

	case walv1.KindOrderModify:
		m := rec.Modify
		return w.orders.UpdatePrice(ctx, m.OrderID, m.NewPricePaise, m.NewArrivalSeq, rec.Timestamp)

	case walv1.KindOrderCancel:
		return w.orders.UpdateStatus(ctx, rec.Cancel.OrderID, "CANCELLED", rec.Timestamp)

	case walv1.KindTrade:
		return w.trades.Store(ctx, trade.FromDomain(rec.Trade, rec.LSN))

	case walv1.KindOrderUpdate:
		u := rec.Update
		return w.orders.UpdateFill(ctx, u.OrderID, u.TradedQty, u.AvgPricePaise, string(u.Status), rec.Timestamp)
	}

	w.logger.Warn("ignoring unknown record kind",
		logger.Field{Key: "lsn", Value: rec.LSN},
		logger.Field{Key: "kind", Value: rec.Kind},
	)
	return nil
}

func (w *Writer) commit(ctx context.Context, msg kafka.Message) {
	if err := w.kafkaReader.CommitMessages(ctx, msg); err != nil {
		w.logger.Error(errors.NewErrorDetails(err.Error(), string(errors.KafkaCommitError), "commit"))
	}
}
