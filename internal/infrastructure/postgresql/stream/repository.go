package stream

import (
	"context"

	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/postgresql"
	"github.com/jackc/pgx/v5"
)

// Repository tracks each consumer's position in the persistence stream.
// The position is the highest LSN whose effects are in the database, so a
// restarted consumer skips redelivered records at or below it.
type Repository interface {
	Position(ctx context.Context, consumer string) (uint64, error)
	SetPosition(ctx context.Context, consumer string, lsn uint64) error
}

type repository struct {
	db postgresql.PostgreSQLClient
}

// NewRepository creates a new stream position repository.
func NewRepository(db postgresql.PostgreSQLClient) Repository {
	return &repository{db: db}
}

// Position returns the consumer's last applied LSN, or 0 for a new consumer.
func (r *repository) Position(ctx context.Context, consumer string) (uint64, error) {
	query := `SELECT last_lsn FROM stream_positions WHERE consumer = $1`

	var lsn int64
	err := r.db.QueryRow(ctx, query, consumer).Scan(&lsn)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, errors.TracerFromError(err)
	}

	return uint64(lsn), nil
}

// SetPosition advances the consumer's position.
func (r *repository) SetPosition(ctx context.Context, consumer string, lsn uint64) error {
	query := `INSERT INTO stream_positions (consumer, last_lsn) VALUES ($1, $2)
		ON CONFLICT (consumer) DO UPDATE SET last_lsn = EXCLUDED.last_lsn`

	var err error
	if tx, ok := postgresql.TxFromContext(ctx); ok {
		_, err = tx.Exec(ctx, query, consumer, int64(lsn))
	} else {
		_, err = r.db.Exec(ctx, query, consumer, int64(lsn))
	}
	if err != nil {
		return errors.TracerFromError(err)
	}

	return nil
}
