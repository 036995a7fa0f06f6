package trade

import (
	"context"

	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/postgresql"
	"github.com/jackc/pgx/v5"
)

type repository struct {
	db     postgresql.PostgreSQLClient
	logger logger.Interface
}

// NewRepository creates a new trade mirror repository.
func NewRepository(db postgresql.PostgreSQLClient, logger logger.Interface) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// Store inserts a trade row. Redelivered records hit the conflict clause
// and change nothing.
func (r *repository) Store(ctx context.Context, trade *Trade) error {
	query := `INSERT INTO trades (id, bid_order_id, ask_order_id, price_paise, qty, lsn, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	var err error
	if tx, ok := postgresql.TxFromContext(ctx); ok {
		_, err = tx.Exec(ctx, query,
			trade.ID, trade.BidOrderID, trade.AskOrderID, trade.PricePaise, trade.Qty, trade.LSN, trade.Timestamp)
	} else {
		_, err = r.db.Exec(ctx, query,
			trade.ID, trade.BidOrderID, trade.AskOrderID, trade.PricePaise, trade.Qty, trade.LSN, trade.Timestamp)
	}
	if err != nil {
		return errors.TracerFromError(err)
	}

	return nil
}

// StoreBatch bulk-inserts trades with the COPY protocol. Used for backfills
// where the target table is known to be empty.
func (r *repository) StoreBatch(ctx context.Context, trades []*Trade) error {
	copyCount, err := r.db.CopyFrom(ctx, pgx.Identifier{"trades"}, []string{
		"id",
		"bid_order_id",
		"ask_order_id",
		"price_paise",
		"qty",
		"lsn",
		"executed_at",
	}, pgx.CopyFromSlice(len(trades), func(i int) ([]any, error) {
		t := trades[i]
		return []any{
			t.ID,
			t.BidOrderID,
			t.AskOrderID,
			t.PricePaise,
			t.Qty,
			t.LSN,
			t.Timestamp,
		}, nil
	}))

	if err != nil {
		return errors.TracerFromError(err)
	}

	r.logger.Info("inserted batch of trades", logger.Field{
		Key:   "copyCount",
		Value: copyCount,
	})

	return nil
}

// GetByID gets a trade by ID.
func (r *repository) GetByID(ctx context.Context, id string) (*Trade, error) {
	query := `SELECT id, bid_order_id, ask_order_id, price_paise, qty, lsn, executed_at FROM trades WHERE id = $1`

	trade := &Trade{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&trade.ID,
		&trade.BidOrderID,
		&trade.AskOrderID,
		&trade.PricePaise,
		&trade.Qty,
		&trade.LSN,
		&trade.Timestamp,
	)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}

	return trade, nil
}
