package orderv1

import (
	"math"
	"time"

	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
)

// Side represents the side of an order. The wire encoding is +1 for buy
// and -1 for sell.
type Side int8

const (
	// Buy represents a bid.
	Buy Side = 1
	// Sell represents an ask.
	Sell Side = -1
)

// Valid reports whether the side is one of the two recognized values.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	return -s
}

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Status represents the lifecycle status of an order.
type Status string

const (
	// StatusOpen is an order resting in the book with no fills.
	StatusOpen Status = "OPEN"
	// StatusPartiallyFilled is an order resting in the book with some fills.
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	// StatusFilled is an order whose traded quantity reached its original quantity.
	StatusFilled Status = "FILLED"
	// StatusCancelled is an order removed from the book by a cancel request.
	StatusCancelled Status = "CANCELLED"
)

// Order is the canonical book entity. All prices are integer paise, all
// quantities positive integers; no floating point arithmetic happens here.
type Order struct {
	ID          string `json:"id"`
	Side        Side   `json:"side"`
	PricePaise  int64  `json:"pricePaise"`
	OriginalQty int64  `json:"originalQty"`
	TradedQty   int64  `json:"tradedQty"`

	// NotionalPaise is the running sum of fill price times fill quantity.
	// The average traded price is always derived from it by floor division
	// so repeated fills never accumulate rounding error.
	NotionalPaise int64 `json:"notionalPaise"`

	Status     Status    `json:"status"`
	ArrivalSeq int64     `json:"arrivalSeq"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewOrder creates a new open order with the given parameters.
func NewOrder(id string, side Side, pricePaise, qty, arrivalSeq int64, now time.Time) *Order {
	return &Order{
		ID:          id,
		Side:        side,
		PricePaise:  pricePaise,
		OriginalQty: qty,
		Status:      StatusOpen,
		ArrivalSeq:  arrivalSeq,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Remaining returns the quantity still open for matching.
func (o *Order) Remaining() int64 {
	return o.OriginalQty - o.TradedQty
}

// AvgTradedPricePaise returns the integer weighted average fill price, or 0
// when nothing has traded yet.
func (o *Order) AvgTradedPricePaise() int64 {
	if o.TradedQty == 0 {
		return 0
	}
	return o.NotionalPaise / o.TradedQty
}

// ApplyFill records a fill of qty at pricePaise and transitions the status.
func (o *Order) ApplyFill(qty, pricePaise int64, now time.Time) {
	o.TradedQty += qty
	o.NotionalPaise += qty * pricePaise
	o.UpdatedAt = now

	if o.Remaining() == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// IsLive reports whether the order is still eligible to rest in the book.
func (o *Order) IsLive() bool {
	return o.Status == StatusOpen || o.Status == StatusPartiallyFilled
}

// Crosses reports whether this order, acting as the aggressor, crosses a
// resting order priced at restingPaise.
func (o *Order) Crosses(restingPaise int64) bool {
	if o.Side == Buy {
		return o.PricePaise >= restingPaise
	}
	return o.PricePaise <= restingPaise
}

// PriceToPaise converts an external floating-point price to integer paise.
// Prices with more than two decimal places are not representable and are
// rejected rather than silently rounded.
func PriceToPaise(price float64) (int64, error) {
	if price <= 0 {
		return 0, errors.NewErrorDetails("price must be positive", string(errors.ErrInvalidPrice), "price")
	}

	scaled := price * 100
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-6 {
		return 0, errors.NewErrorDetails("price must be a multiple of 0.01", string(errors.ErrInvalidPrice), "price")
	}

	return int64(rounded), nil
}

// PaiseToPrice converts integer paise back to the external float representation.
func PaiseToPrice(paise int64) float64 {
	return float64(paise) / 100.0
}
