package engine

import (
	"fmt"
	"sort"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	walv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/wal/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
)

// recover rebuilds the book, the order history and the idempotency set from
// the checkpoint and the WAL tail. It runs before the ingress consumer
// opens, so no request is processed against a partially restored book.
func (e *Engine) recover() error {
	var checkpointLSN uint64

	if e.checkpoints != nil {
		state, found, err := e.checkpoints.Load()
		if err != nil {
			return err
		}
		if found {
			if err := e.restoreCheckpoint(state.Orders); err != nil {
				return err
			}
			e.arrivalSeq = state.ArrivalSeq
			checkpointLSN = state.LastLSN
			e.lastCheckpointLSN = state.LastLSN

			e.logger.Info("checkpoint restored",
				logger.Field{Key: "lsn", Value: state.LastLSN},
				logger.Field{Key: "liveOrders", Value: len(state.Orders)},
			)
		}
	}

	replayed := 0
	lastLSN, err := e.wal.Replay(func(rec *walv1.Record) error {
		if rec.LSN <= checkpointLSN {
			return nil
		}
		replayed++
		return e.applyRecord(rec)
	})
	if err != nil {
		return err
	}

	if lastLSN < checkpointLSN {
		lastLSN = checkpointLSN
		e.wal.Reset(checkpointLSN)
	}
	e.durableLSN.Store(lastLSN)

	e.logger.Info("recovery complete",
		logger.Field{Key: "durableLSN", Value: lastLSN},
		logger.Field{Key: "recordsReplayed", Value: replayed},
		logger.Field{Key: "liveOrders", Value: e.book.Len()},
	)

	return nil
}

// restoreCheckpoint reloads the live orders, oldest arrival first so every
// price level keeps its FIFO order.
func (e *Engine) restoreCheckpoint(orders []orderv1.Order) error {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].ArrivalSeq < orders[j].ArrivalSeq
	})

	for i := range orders {
		o := orders[i]
		if err := e.book.Insert(&o); err != nil {
			return err
		}
		e.orders[o.ID] = &o
	}
	return nil
}

// applyRecord applies one replayed record. Matching is never re-run: trades
// and their effects are replayed from the TRADE and ORDER_UPDATE records,
// which makes replay deterministic and bit-identical to the original run.
func (e *Engine) applyRecord(rec *walv1.Record) error {
	e.recent.add(rec.RequestID, &orderv1.Reply{RequestID: rec.RequestID, Status: orderv1.ReplyOK})

	switch rec.Kind {
	case walv1.KindOrderInsert:
		o := rec.Insert.Order
		if err := e.book.Insert(&o); err != nil {
			return corruptReplay(rec, err)
		}
		e.orders[o.ID] = &o
		if o.ArrivalSeq > e.arrivalSeq {
			e.arrivalSeq = o.ArrivalSeq
		}

	case walv1.KindOrderModify:
		if _, err := e.book.Modify(rec.Modify.OrderID, rec.Modify.NewPricePaise, rec.Modify.NewArrivalSeq, rec.Timestamp); err != nil {
			return corruptReplay(rec, err)
		}
		if rec.Modify.NewArrivalSeq > e.arrivalSeq {
			e.arrivalSeq = rec.Modify.NewArrivalSeq
		}

	case walv1.KindOrderCancel:
		order, err := e.book.Cancel(rec.Cancel.OrderID)
		if err != nil {
			return corruptReplay(rec, err)
		}
		order.Status = orderv1.StatusCancelled
		order.UpdatedAt = rec.Timestamp

	case walv1.KindTrade:
		// Book effects arrive via the paired ORDER_UPDATE records.

	case walv1.KindOrderUpdate:
		u := rec.Update
		if err := e.book.ApplyUpdate(u.OrderID, u.TradedQty, u.NotionalPaise, u.Status, rec.Timestamp); err != nil {
			return corruptReplay(rec, err)
		}

	default:
		return corruptReplay(rec, fmt.Errorf("unknown record kind %q", rec.Kind))
	}

	return nil
}

func corruptReplay(rec *walv1.Record, cause error) error {
	return errors.NewErrorDetails(
		fmt.Sprintf("wal replay failed at lsn %d (%s): %v", rec.LSN, rec.Kind, cause),
		string(errors.WALCorruptError), "replay")
}
