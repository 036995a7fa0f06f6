package orderv1

import (
	"time"

	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
)

// Op represents the operation requested by the ingress producer.
type Op string

const (
	// OpInsert places a new limit order.
	OpInsert Op = "INSERT"
	// OpModify changes the price of a live order, forfeiting time priority.
	OpModify Op = "MODIFY"
	// OpCancel removes a live order from the book.
	OpCancel Op = "CANCEL"
)

// OrderPayload is the order portion of an ingress request.
type OrderPayload struct {
	ID         string `json:"id,omitempty"`
	Side       Side   `json:"side"`
	PricePaise int64  `json:"price_paise"`
	Qty        int64  `json:"qty"`
}

// Request is a normalized ingress queue message. The producer assigns the
// request id; the engine assigns the order id when absent.
type Request struct {
	RequestID string       `json:"request_id"`
	TS        time.Time    `json:"ts"`
	Op        Op           `json:"op"`
	Order     OrderPayload `json:"order"`
}

// Validate checks the request against the validation rules. It returns nil
// for a well-formed request; validation failures never reach the WAL or
// the book.
func (r *Request) Validate() error {
	switch r.Op {
	case OpInsert:
		if !r.Order.Side.Valid() {
			return errors.NewErrorDetails("side must be 1 (buy) or -1 (sell)", string(errors.ErrInvalidSide), "order.side")
		}
		if r.Order.PricePaise <= 0 {
			return errors.NewErrorDetails("price must be positive", string(errors.ErrInvalidPrice), "order.price_paise")
		}
		if r.Order.Qty <= 0 {
			return errors.NewErrorDetails("qty must be positive", string(errors.ErrInvalidQty), "order.qty")
		}
	case OpModify:
		if r.Order.ID == "" {
			return errors.NewErrorDetails("order id is required", string(errors.ErrUnknownOrder), "order.id")
		}
		if r.Order.PricePaise <= 0 {
			return errors.NewErrorDetails("price must be positive", string(errors.ErrInvalidPrice), "order.price_paise")
		}
	case OpCancel:
		if r.Order.ID == "" {
			return errors.NewErrorDetails("order id is required", string(errors.ErrUnknownOrder), "order.id")
		}
	default:
		return errors.NewErrorDetails("unrecognized operation", string(errors.ErrUnknownOperation), "op")
	}

	return nil
}

// ReplyStatus is the outcome of a request, reported on the reply channel.
type ReplyStatus string

const (
	// ReplyOK acknowledges a successfully applied request.
	ReplyOK ReplyStatus = "OK"
	// ReplyRejected reports a validation failure.
	ReplyRejected ReplyStatus = "REJECTED"
)

// Reply is sent back to the producer through the queue's reply channel.
type Reply struct {
	RequestID string      `json:"request_id"`
	Status    ReplyStatus `json:"status"`
	Reason    string      `json:"reason,omitempty"`
}
