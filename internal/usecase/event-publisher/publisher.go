package eventpublisher

import (
	"context"
	"encoding/binary"
	"encoding/json"

	eventpublisherv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/event-publisher/v1"
	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	snapshotv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/snapshot/v1"
	walv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/wal/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/config"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/redis"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
)

// latestSnapshotKey caches the newest depth snapshot for late subscribers.
const latestSnapshotKey = "orderapi:snapshot:latest"

// Publisher fans engine output out to the broadcast channels, the
// persistence stream and the reply channel. Trade and snapshot broadcasts
// go over Redis Pub/Sub; the persistence stream and replies are Kafka
// topics.
type Publisher struct {
	redisClient   redis.Client
	recordWriter  *kafka.Writer
	replyWriter   *kafka.Writer
	tradeChannel  string
	snapshotChann string
	logger        logger.Interface
}

// NewPublisher creates the publisher with its Kafka writers and Redis client.
func NewPublisher(kafkaCfg config.KafkaConfig, redisCfg config.RedisConfig, redisClient redis.Client, log logger.Interface) *Publisher {
	recordWriter := &kafka.Writer{
		Addr:     kafka.TCP(kafkaCfg.Brokers...),
		Topic:    kafkaCfg.RecordTopic,
		Balancer: &kafka.LeastBytes{},
	}
	replyWriter := &kafka.Writer{
		Addr:     kafka.TCP(kafkaCfg.Brokers...),
		Topic:    kafkaCfg.ReplyTopic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Publisher{
		redisClient:   redisClient,
		recordWriter:  recordWriter,
		replyWriter:   replyWriter,
		tradeChannel:  redisCfg.TradeChannel,
		snapshotChann: redisCfg.SnapshotChannel,
		logger:        log,
	}
}

// PublishTrades broadcasts trade events in order on the trade channel.
func (p *Publisher) PublishTrades(ctx context.Context, events []eventpublisherv1.TradeEvent) error {
	for i := range events {
		events[i].EventID = ulid.Make().String()

		buf, err := json.Marshal(events[i])
		if err != nil {
			return errors.NewTracer("trade_event_marshal_error").Wrap(err)
		}

		if _, err := p.redisClient.Publish(ctx, p.tradeChannel, buf); err != nil {
			return err
		}
	}
	return nil
}

// PublishSnapshot broadcasts a depth snapshot and caches the latest one so
// freshly connected subscribers can prime their view.
func (p *Publisher) PublishSnapshot(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := p.redisClient.Set(ctx, latestSnapshotKey, buf, 0); err != nil {
		return err
	}

	if _, err := p.redisClient.Publish(ctx, p.snapshotChann, buf); err != nil {
		return err
	}
	return nil
}

// PublishRecords appends WAL records to the persistence stream. Messages are
// keyed by LSN so the mirror consumer can deduplicate redeliveries.
func (p *Publisher) PublishRecords(ctx context.Context, records []*walv1.Record) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		buf, err := json.Marshal(rec)
		if err != nil {
			return errors.NewTracer("wal_record_marshal_error").Wrap(err)
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, rec.LSN)
		msgs = append(msgs, kafka.Message{Key: key, Value: buf})
	}

	if err := p.recordWriter.WriteMessages(ctx, msgs...); err != nil {
		return errors.NewErrorDetails(err.Error(), string(errors.KafkaWriteError), "records")
	}
	return nil
}

// PublishReply reports a request outcome on the reply topic, keyed by
// request id.
func (p *Publisher) PublishReply(ctx context.Context, reply *orderv1.Reply) error {
	buf, err := json.Marshal(reply)
	if err != nil {
		return errors.NewTracer("reply_marshal_error").Wrap(err)
	}

	msg := kafka.Message{
		Key:   []byte(reply.RequestID),
		Value: buf,
	}

	if err := p.replyWriter.WriteMessages(ctx, msg); err != nil {
		return errors.NewErrorDetails(err.Error(), string(errors.KafkaWriteError), "reply")
	}
	return nil
}

// Close closes the Kafka writers.
func (p *Publisher) Close() error {
	var firstErr error
	if err := p.recordWriter.Close(); err != nil {
		firstErr = err
	}
	if err := p.replyWriter.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
