package engine

import (
	"time"

	eventpublisherv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/event-publisher/v1"
	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	walv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/wal/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
)

// applyResult carries everything a request produced: the WAL records staged
// for the flush and the trade events buffered for emission.
type applyResult struct {
	records     []*walv1.Record
	tradeEvents []eventpublisherv1.TradeEvent
}

// apply dispatches a validated request to its handler. It returns
// *errors.ErrorDetails for rejections against book state (no WAL entry, no
// mutation); any other error is fatal.
func (e *Engine) apply(request *orderv1.Request) (*applyResult, error) {
	now := time.Now().UTC()

	switch request.Op {
	case orderv1.OpInsert:
		return e.applyInsert(request, now)
	case orderv1.OpModify:
		return e.applyModify(request, now)
	case orderv1.OpCancel:
		return e.applyCancel(request, now)
	}

	// Unreachable: Validate rejects unknown operations.
	return nil, errors.NewErrorDetails("unrecognized operation", string(errors.ErrUnknownOperation), "op")
}

// applyInsert accepts a new limit order, writes its intent, matches it and
// rests any remainder.
func (e *Engine) applyInsert(request *orderv1.Request, now time.Time) (*applyResult, error) {
	id := assignOrderID(request)

	if _, live := e.book.Order(id); live {
		return nil, errors.NewErrorDetails(
			"an order with this id is already live",
			string(errors.ErrDuplicateOrder), "order.id")
	}

	order := orderv1.NewOrder(id, request.Order.Side, request.Order.PricePaise, request.Order.Qty, e.nextArrivalSeq(), now)

	result := &applyResult{}
	if err := e.appendRecord(result, walv1.NewOrderInsert(request.RequestID, order, now)); err != nil {
		return nil, err
	}

	if err := e.match(result, order, request.RequestID, now); err != nil {
		return nil, err
	}

	if order.Remaining() > 0 {
		if err := e.book.Insert(order); err != nil {
			return nil, err
		}
	}

	e.orders[order.ID] = order
	return result, nil
}

// applyModify re-prices a live order. The order forfeits its time priority,
// may cross the opposite side immediately, and rests again only with its
// unfilled remainder.
func (e *Engine) applyModify(request *orderv1.Request, now time.Time) (*applyResult, error) {
	if _, live := e.book.Order(request.Order.ID); !live {
		return nil, errors.NewErrorDetails(
			"order is not live", string(errors.ErrUnknownOrder), "order.id")
	}

	newSeq := e.nextArrivalSeq()

	result := &applyResult{}
	rec := walv1.NewOrderModify(request.RequestID, request.Order.ID, request.Order.PricePaise, newSeq, now)
	if err := e.appendRecord(result, rec); err != nil {
		return nil, err
	}

	order, err := e.book.Cancel(request.Order.ID)
	if err != nil {
		return nil, err
	}

	order.PricePaise = request.Order.PricePaise
	order.ArrivalSeq = newSeq
	order.UpdatedAt = now

	if err := e.match(result, order, request.RequestID, now); err != nil {
		return nil, err
	}

	if order.Remaining() > 0 {
		if err := e.book.Insert(order); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// applyCancel removes a live order from the book.
func (e *Engine) applyCancel(request *orderv1.Request, now time.Time) (*applyResult, error) {
	if _, live := e.book.Order(request.Order.ID); !live {
		return nil, errors.NewErrorDetails(
			"order is not live", string(errors.ErrUnknownOrder), "order.id")
	}

	result := &applyResult{}
	if err := e.appendRecord(result, walv1.NewOrderCancel(request.RequestID, request.Order.ID, now)); err != nil {
		return nil, err
	}

	order, err := e.book.Cancel(request.Order.ID)
	if err != nil {
		return nil, err
	}

	order.Status = orderv1.StatusCancelled
	order.UpdatedAt = now

	return result, nil
}

// match runs the matching loop for an aggressor that is not resting in the
// book. Trades execute at the resting order's price; each one appends a
// TRADE record plus one ORDER_UPDATE per touched order.
func (e *Engine) match(result *applyResult, aggressor *orderv1.Order, requestID string, now time.Time) error {
	opposite := aggressor.Side.Opposite()

	for aggressor.Remaining() > 0 {
		resting := e.book.Best(opposite)
		if resting == nil || !aggressor.Crosses(resting.PricePaise) {
			break
		}

		qty := min64(aggressor.Remaining(), resting.Remaining())
		price := resting.PricePaise

		bidID, askID := aggressor.ID, resting.ID
		if aggressor.Side == orderv1.Sell {
			bidID, askID = resting.ID, aggressor.ID
		}

		trade := orderv1.NewTrade(bidID, askID, price, qty, now)

		aggressor.ApplyFill(qty, price, now)
		resting = e.book.FillHead(opposite, qty, price, now)

		tradeRec := walv1.NewTrade(requestID, trade, now)
		if err := e.appendRecord(result, tradeRec); err != nil {
			return err
		}
		if err := e.appendRecord(result, walv1.NewOrderUpdate(requestID, aggressor, now)); err != nil {
			return err
		}
		if err := e.appendRecord(result, walv1.NewOrderUpdate(requestID, resting, now)); err != nil {
			return err
		}

		result.tradeEvents = append(result.tradeEvents, eventpublisherv1.TradeEventFrom(tradeRec.LSN, trade))
	}

	return nil
}

// appendRecord stages a record in the WAL batch and tracks it for the
// persistence stream.
func (e *Engine) appendRecord(result *applyResult, rec *walv1.Record) error {
	if err := e.wal.Append(rec); err != nil {
		return err
	}
	result.records = append(result.records, rec)
	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
