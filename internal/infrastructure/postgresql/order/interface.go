package order

import (
	"context"
	"time"
)

// Repository mirrors order state into PostgreSQL. Every write is
// idempotent so the at-least-once persistence stream can be re-applied.
//
//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=order_mock
type Repository interface {
	Store(ctx context.Context, order *Order) error
	UpdatePrice(ctx context.Context, id string, pricePaise, arrivalSeq int64, updatedAt time.Time) error
	UpdateFill(ctx context.Context, id string, tradedQty, avgPricePaise int64, status string, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*Order, error)
}
