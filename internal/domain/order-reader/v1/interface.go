package orderreaderv1

import (
	"context"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	"github.com/segmentio/kafka-go"
)

// OrderReader consumes normalized requests from the ordered ingress queue.
// Fetch blocks for the next message; Commit acknowledges it, and is called
// by the engine only after the WAL flush for that request.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderreader_mock
type OrderReader interface {
	Fetch(ctx context.Context) (kafka.Message, *orderv1.Request, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
