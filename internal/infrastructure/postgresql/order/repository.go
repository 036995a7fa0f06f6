package order

import (
	"context"
	"time"

	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/postgresql"
	"github.com/jackc/pgx/v5/pgconn"
)

type repository struct {
	db     postgresql.PostgreSQLClient
	logger logger.Interface
}

// NewRepository creates a new order mirror repository.
func NewRepository(db postgresql.PostgreSQLClient, logger logger.Interface) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// exec routes through the transaction embedded in context when present.
func (r *repository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx, ok := postgresql.TxFromContext(ctx); ok {
		return tx.Exec(ctx, sql, args...)
	}
	return r.db.Exec(ctx, sql, args...)
}

// Store inserts an order row. Redelivered records hit the conflict clause
// and change nothing.
func (r *repository) Store(ctx context.Context, order *Order) error {
	query := `INSERT INTO orders (id, side, price_paise, original_qty, traded_qty, avg_price_paise, status, arrival_seq, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.exec(ctx, query,
		order.ID,
		order.Side,
		order.PricePaise,
		order.OriginalQty,
		order.TradedQty,
		order.AvgPricePaise,
		order.Status,
		order.ArrivalSeq,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return errors.TracerFromError(err)
	}

	return nil
}

// UpdatePrice mirrors an ORDER_MODIFY record.
func (r *repository) UpdatePrice(ctx context.Context, id string, pricePaise, arrivalSeq int64, updatedAt time.Time) error {
	query := `UPDATE orders SET price_paise = $1, arrival_seq = $2, updated_at = $3 WHERE id = $4`

	_, err := r.exec(ctx, query, pricePaise, arrivalSeq, updatedAt, id)
	if err != nil {
		return errors.TracerFromError(err)
	}

	return nil
}

// UpdateFill mirrors an ORDER_UPDATE record. Values are absolute, so
// re-applying a redelivered record is harmless.
func (r *repository) UpdateFill(ctx context.Context, id string, tradedQty, avgPricePaise int64, status string, updatedAt time.Time) error {
	query := `UPDATE orders SET traded_qty = $1, avg_price_paise = $2, status = $3, updated_at = $4 WHERE id = $5`

	_, err := r.exec(ctx, query, tradedQty, avgPricePaise, status, updatedAt, id)
	if err != nil {
		return errors.TracerFromError(err)
	}

	return nil
}

// UpdateStatus mirrors an ORDER_CANCEL record.
func (r *repository) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	_, err := r.exec(ctx, query, status, updatedAt, id)
	if err != nil {
		return errors.TracerFromError(err)
	}

	return nil
}

// GetByID gets an order by ID.
func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	query := `SELECT id, side, price_paise, original_qty, traded_qty, avg_price_paise, status, arrival_seq, created_at, updated_at FROM orders WHERE id = $1`

	order := &Order{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.Side,
		&order.PricePaise,
		&order.OriginalQty,
		&order.TradedQty,
		&order.AvgPricePaise,
		&order.Status,
		&order.ArrivalSeq,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}

	return order, nil
}
