package walv1

import (
	"time"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
)

// Kind identifies the operation a WAL record describes.
type Kind string

const (
	// KindOrderInsert is a full order snapshot as accepted by the engine.
	KindOrderInsert Kind = "ORDER_INSERT"
	// KindOrderModify is a price change with a fresh arrival sequence.
	KindOrderModify Kind = "ORDER_MODIFY"
	// KindOrderCancel removes a live order.
	KindOrderCancel Kind = "ORDER_CANCEL"
	// KindTrade is an executed trade between two orders.
	KindTrade Kind = "TRADE"
	// KindOrderUpdate records the fill-derived fields of one order after a trade.
	KindOrderUpdate Kind = "ORDER_UPDATE"
)

// Record is a single WAL entry. The LSN is assigned by the store on append
// and is strictly increasing by one. The request id ties the record to the
// ingress message that produced it so the idempotency set survives restarts.
type Record struct {
	LSN       uint64    `json:"lsn"`
	Timestamp time.Time `json:"ts"`
	Kind      Kind      `json:"kind"`
	RequestID string    `json:"request_id,omitempty"`

	Insert *OrderInsert   `json:"insert,omitempty"`
	Modify *OrderModify   `json:"modify,omitempty"`
	Cancel *OrderCancel   `json:"cancel,omitempty"`
	Trade  *orderv1.Trade `json:"trade,omitempty"`
	Update *OrderUpdate   `json:"update,omitempty"`
}

// OrderInsert carries the full order state as accepted.
type OrderInsert struct {
	Order orderv1.Order `json:"order"`
}

// OrderModify carries a price change. Time priority is forfeited, so the
// new arrival sequence is recorded to keep replay deterministic.
type OrderModify struct {
	OrderID       string `json:"orderID"`
	NewPricePaise int64  `json:"newPricePaise"`
	NewArrivalSeq int64  `json:"newArrivalSeq"`
}

// OrderCancel removes an order from the book.
type OrderCancel struct {
	OrderID string `json:"orderID"`
}

// OrderUpdate carries the mutated fill fields of one order after a trade.
// The running notional is recorded alongside the derived average so replay
// reconstructs the exact integer state.
type OrderUpdate struct {
	OrderID       string         `json:"orderID"`
	TradedQty     int64          `json:"tradedQty"`
	NotionalPaise int64          `json:"notionalPaise"`
	AvgPricePaise int64          `json:"avgPricePaise"`
	Status        orderv1.Status `json:"status"`
}

// NewOrderInsert builds an ORDER_INSERT record.
func NewOrderInsert(requestID string, order *orderv1.Order, now time.Time) *Record {
	return &Record{
		Timestamp: now,
		Kind:      KindOrderInsert,
		RequestID: requestID,
		Insert:    &OrderInsert{Order: *order},
	}
}

// NewOrderModify builds an ORDER_MODIFY record.
func NewOrderModify(requestID, orderID string, newPricePaise, newArrivalSeq int64, now time.Time) *Record {
	return &Record{
		Timestamp: now,
		Kind:      KindOrderModify,
		RequestID: requestID,
		Modify: &OrderModify{
			OrderID:       orderID,
			NewPricePaise: newPricePaise,
			NewArrivalSeq: newArrivalSeq,
		},
	}
}

// NewOrderCancel builds an ORDER_CANCEL record.
func NewOrderCancel(requestID, orderID string, now time.Time) *Record {
	return &Record{
		Timestamp: now,
		Kind:      KindOrderCancel,
		RequestID: requestID,
		Cancel:    &OrderCancel{OrderID: orderID},
	}
}

// NewTrade builds a TRADE record.
func NewTrade(requestID string, trade *orderv1.Trade, now time.Time) *Record {
	return &Record{
		Timestamp: now,
		Kind:      KindTrade,
		RequestID: requestID,
		Trade:     trade,
	}
}

// NewOrderUpdate builds an ORDER_UPDATE record from the order's current state.
func NewOrderUpdate(requestID string, order *orderv1.Order, now time.Time) *Record {
	return &Record{
		Timestamp: now,
		Kind:      KindOrderUpdate,
		RequestID: requestID,
		Update: &OrderUpdate{
			OrderID:       order.ID,
			TradedQty:     order.TradedQty,
			NotionalPaise: order.NotionalPaise,
			AvgPricePaise: order.AvgTradedPricePaise(),
			Status:        order.Status,
		},
	}
}
