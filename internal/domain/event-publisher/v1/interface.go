package eventpublisherv1

import (
	"context"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	snapshotv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/snapshot/v1"
	walv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/wal/v1"
)

// Publisher delivers engine output to downstream consumers. The engine
// calls it strictly after WAL durability. Broadcast delivery is
// best-effort: subscriber absence never blocks the engine.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=eventpublisher_mock
type Publisher interface {
	// PublishTrades broadcasts trade events in order.
	PublishTrades(ctx context.Context, events []TradeEvent) error

	// PublishSnapshot broadcasts an aggregated depth snapshot.
	PublishSnapshot(ctx context.Context, snapshot *snapshotv1.Snapshot) error

	// PublishRecords appends WAL records to the persistence stream in LSN
	// order, at-least-once.
	PublishRecords(ctx context.Context, records []*walv1.Record) error

	// PublishReply reports a request outcome on the reply channel.
	PublishReply(ctx context.Context, reply *orderv1.Reply) error

	Close() error
}
