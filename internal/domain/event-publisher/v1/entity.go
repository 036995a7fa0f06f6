package eventpublisherv1

import (
	"time"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
)

// TradeEvent is the broadcast payload for one executed trade. The LSN is
// the trade record's LSN so subscribers can deduplicate across reconnects.
type TradeEvent struct {
	EventID    string    `json:"event_id"`
	LSN        uint64    `json:"lsn"`
	TradeID    string    `json:"trade_id"`
	TS         time.Time `json:"ts"`
	PricePaise int64     `json:"price_paise"`
	Qty        int64     `json:"qty"`
	BidOrderID string    `json:"bid_order_id"`
	AskOrderID string    `json:"ask_order_id"`
}

// TradeEventFrom builds a broadcast event from a trade and the LSN of its
// TRADE record. The event id is assigned by the publisher.
func TradeEventFrom(lsn uint64, trade *orderv1.Trade) TradeEvent {
	return TradeEvent{
		LSN:        lsn,
		TradeID:    trade.ID,
		TS:         trade.Timestamp,
		PricePaise: trade.PricePaise,
		Qty:        trade.Qty,
		BidOrderID: trade.BidOrderID,
		AskOrderID: trade.AskOrderID,
	}
}
