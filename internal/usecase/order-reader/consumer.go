package orderreader

import (
	"context"
	"encoding/json"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/config"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Reader consumes request messages from the ingress topic. Offsets are
// committed explicitly, so an unacknowledged request is redelivered after a
// crash and the engine's idempotency set decides whether to re-apply it.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      logger.Interface
}

// NewReader creates a Kafka reader on the request topic.
func NewReader(cfg config.KafkaConfig, log logger.Interface) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.RequestTopic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// Fetch blocks until the next request message arrives. Messages whose
// payload does not parse are committed and skipped; they can never be
// processed and redelivery would loop forever.
func (r *Reader) Fetch(ctx context.Context) (kafka.Message, *orderv1.Request, error) {
	for {
		msg, err := r.kafkaReader.FetchMessage(ctx)
		if err != nil {
			return kafka.Message{}, nil, errors.NewErrorDetails(err.Error(), string(errors.KafkaReadError), "fetch")
		}

		var request orderv1.Request
		if err := json.Unmarshal(msg.Value, &request); err != nil {
			r.logger.Warn("skipping malformed request message",
				logger.Field{Key: "offset", Value: msg.Offset},
				logger.Field{Key: "error", Value: err.Error()},
			)
			if err := r.Commit(ctx, msg); err != nil {
				return kafka.Message{}, nil, err
			}
			continue
		}

		r.logger.Debug("fetched request",
			logger.Field{Key: "requestID", Value: request.RequestID},
			logger.Field{Key: "op", Value: request.Op},
			logger.Field{Key: "offset", Value: msg.Offset},
		)

		return msg, &request, nil
	}
}

// Commit acknowledges the messages to the queue.
func (r *Reader) Commit(ctx context.Context, msgs ...kafka.Message) error {
	if err := r.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		return errors.NewErrorDetails(err.Error(), string(errors.KafkaCommitError), "commit")
	}
	return nil
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	return r.kafkaReader.Close()
}
