package orderv1

import (
	"time"

	"github.com/google/uuid"
)

// Trade represents a completed match between two orders. The price is always
// the resting order's price, never the aggressor's.
type Trade struct {
	ID         string    `json:"id"`
	BidOrderID string    `json:"bidOrderID"`
	AskOrderID string    `json:"askOrderID"`
	PricePaise int64     `json:"pricePaise"`
	Qty        int64     `json:"qty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewTrade creates a trade record with a fresh id.
func NewTrade(bidOrderID, askOrderID string, pricePaise, qty int64, now time.Time) *Trade {
	return &Trade{
		ID:         uuid.NewString(),
		BidOrderID: bidOrderID,
		AskOrderID: askOrderID,
		PricePaise: pricePaise,
		Qty:        qty,
		Timestamp:  now,
	}
}
