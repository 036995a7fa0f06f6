package order

import (
	"time"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
)

// Order is the relational mirror row for one order.
type Order struct {
	ID            string    `json:"id"`
	Side          string    `json:"side"`
	PricePaise    int64     `json:"pricePaise"`
	OriginalQty   int64     `json:"originalQty"`
	TradedQty     int64     `json:"tradedQty"`
	AvgPricePaise int64     `json:"avgPricePaise"`
	Status        string    `json:"status"`
	ArrivalSeq    int64     `json:"arrivalSeq"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FromDomain converts an engine order snapshot into its mirror row.
func FromDomain(o *orderv1.Order) *Order {
	return &Order{
		ID:            o.ID,
		Side:          o.Side.String(),
		PricePaise:    o.PricePaise,
		OriginalQty:   o.OriginalQty,
		TradedQty:     o.TradedQty,
		AvgPricePaise: o.AvgTradedPricePaise(),
		Status:        string(o.Status),
		ArrivalSeq:    o.ArrivalSeq,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
