package trade

import (
	"context"
)

// Repository mirrors executed trades into PostgreSQL.
//
//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=trade_mock
type Repository interface {
	Store(ctx context.Context, trade *Trade) error
	StoreBatch(ctx context.Context, trades []*Trade) error
	GetByID(ctx context.Context, id string) (*Trade, error)
}
