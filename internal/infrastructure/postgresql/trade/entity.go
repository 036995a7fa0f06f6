package trade

import (
	"time"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
)

// Trade is the relational mirror row for one executed trade.
type Trade struct {
	ID         string    `json:"id"`
	BidOrderID string    `json:"bidOrderID"`
	AskOrderID string    `json:"askOrderID"`
	PricePaise int64     `json:"pricePaise"`
	Qty        int64     `json:"qty"`
	LSN        int64     `json:"lsn"`
	Timestamp  time.Time `json:"timestamp"`
}

// FromDomain converts an engine trade into its mirror row.
func FromDomain(t *orderv1.Trade, lsn uint64) *Trade {
	return &Trade{
		ID:         t.ID,
		BidOrderID: t.BidOrderID,
		AskOrderID: t.AskOrderID,
		PricePaise: t.PricePaise,
		Qty:        t.Qty,
		LSN:        int64(lsn),
		Timestamp:  t.Timestamp,
	}
}
