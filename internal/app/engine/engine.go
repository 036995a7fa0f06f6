package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	eventpublisherv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/event-publisher/v1"
	orderreaderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order-reader/v1"
	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	snapshotv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/snapshot/v1"
	walv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/wal/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/checkpoint"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/orderbook"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/util"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Engine is the sequential matching core. Exactly one request mutates the
// book at any time; every state transition is durable in the WAL before it
// is observable through events, replies or queue acknowledgment.
type Engine struct {
	book        *orderbook.Book
	wal         walv1.Store
	orderReader orderreaderv1.OrderReader
	publisher   eventpublisherv1.Publisher
	checkpoints *checkpoint.Store
	logger      *logger.Logger

	// stateMu spans each request's mutation-and-flush critical section so
	// the snapshot ticker always observes a state matching the durable LSN.
	stateMu sync.Mutex

	// orders retains every order ever accepted, live or not.
	orders     map[string]*orderv1.Order
	recent     *recentSet
	arrivalSeq int64

	durableLSN        atomic.Uint64
	lastCheckpointLSN uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	fatalMu  sync.Mutex
	fatalErr error

	options *Options
}

// NewEngine creates a new Engine with default options.
func NewEngine(
	book *orderbook.Book,
	wal walv1.Store,
	orderReader orderreaderv1.OrderReader,
	publisher eventpublisherv1.Publisher,
	checkpoints *checkpoint.Store,
	log *logger.Logger,
) *Engine {
	return NewEngineWithOptions(book, wal, orderReader, publisher, checkpoints, log, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new Engine with custom options.
func NewEngineWithOptions(
	book *orderbook.Book,
	wal walv1.Store,
	orderReader orderreaderv1.OrderReader,
	publisher eventpublisherv1.Publisher,
	checkpoints *checkpoint.Store,
	log *logger.Logger,
	options *Options,
) *Engine {
	return &Engine{
		book:        book,
		wal:         wal,
		orderReader: orderReader,
		publisher:   publisher,
		checkpoints: checkpoints,
		logger:      log,
		orders:      make(map[string]*orderv1.Order),
		recent:      newRecentSet(options.RecentRequests),
		options:     options,
	}
}

// Start runs recovery, publishes the initial snapshot and launches the
// request processor and the snapshot ticker.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	if err := e.recover(); err != nil {
		return err
	}

	e.publishSnapshot(e.ctx)

	e.wg.Add(2)
	go e.runOrderProcessor()
	go e.runSnapshotManager()

	e.logger.Info("engine started",
		logger.Field{Key: "durableLSN", Value: e.durableLSN.Load()},
		logger.Field{Key: "liveOrders", Value: e.book.Len()},
	)

	return nil
}

// Stop finishes the in-flight request and halts before dequeuing the next.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("engine stopped gracefully")
		return e.Err()
	case <-ctx.Done():
		e.logger.Warn("engine stop timeout exceeded")
		return ctx.Err()
	}
}

// Err returns the fatal error that halted the engine, if any.
func (e *Engine) Err() error {
	e.fatalMu.Lock()
	defer e.fatalMu.Unlock()
	return e.fatalErr
}

// fatal records the first fatal error and shuts the engine down. Durability
// and invariant failures are never recovered in-process.
func (e *Engine) fatal(err error) {
	e.fatalMu.Lock()
	if e.fatalErr == nil {
		e.fatalErr = err
	}
	e.fatalMu.Unlock()

	e.logger.Error(errors.NewTracer("engine halting").Wrap(err))
	e.cancel()
}

// runOrderProcessor consumes and processes requests one at a time, in strict
// queue-arrival order.
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()

	e.logger.Info("starting order processor")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("order processor shutting down")
			if err := e.orderReader.Close(); err != nil {
				e.logger.Error(err, logger.Field{Key: "action", Value: "close_order_reader"})
			}
			return
		default:
			msg, request, err := e.orderReader.Fetch(e.ctx)
			if err != nil {
				if e.ctx.Err() != nil {
					continue
				}
				e.logger.ErrorContext(e.ctx, err, logger.Field{Key: "action", Value: "fetch_request"})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if err := e.processRequest(e.ctx, msg, request); err != nil {
				e.fatal(err)
				continue
			}

			e.maybeCheckpoint()
		}
	}
}

// processRequest drives one request to completion: idempotency check,
// validation, WAL intent, book mutation, matching, flush, emission, reply
// and acknowledgment. A non-nil return is fatal.
func (e *Engine) processRequest(ctx context.Context, msg kafka.Message, request *orderv1.Request) error {
	ctx = util.WithRequestID(ctx, request.RequestID)

	// Redelivery: acknowledge with the prior outcome without re-applying.
	if reply, seen := e.recent.get(request.RequestID); seen {
		e.logger.InfoContext(ctx, "duplicate request acknowledged without re-applying")
		e.reply(ctx, reply)
		e.commit(ctx, msg)
		return nil
	}

	if err := request.Validate(); err != nil {
		e.reject(ctx, msg, request, err)
		return nil
	}

	e.stateMu.Lock()
	result, err := e.apply(request)
	if err != nil {
		e.stateMu.Unlock()

		// Validation against book state: no WAL entry was written.
		if details, ok := err.(*errors.ErrorDetails); ok {
			e.reject(ctx, msg, request, details)
			return nil
		}
		return err
	}

	if len(result.records) > 0 {
		if err := e.wal.Flush(); err != nil {
			e.stateMu.Unlock()
			return errors.NewTracer("wal flush failed").Wrap(err)
		}
		e.durableLSN.Store(e.wal.LastLSN())
	}

	if err := e.checkInvariants(); err != nil {
		e.stateMu.Unlock()
		return err
	}
	e.stateMu.Unlock()

	// Everything below is observable only after durability.
	if err := e.publisher.PublishRecords(ctx, result.records); err != nil {
		e.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "publish_records"})
	}
	if len(result.tradeEvents) > 0 {
		if err := e.publisher.PublishTrades(ctx, result.tradeEvents); err != nil {
			e.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "publish_trades"})
		}
	}

	reply := &orderv1.Reply{RequestID: request.RequestID, Status: orderv1.ReplyOK}
	e.recent.add(request.RequestID, reply)
	e.reply(ctx, reply)
	e.commit(ctx, msg)

	e.logger.InfoContext(ctx, "request applied",
		logger.Field{Key: "op", Value: request.Op},
		logger.Field{Key: "trades", Value: len(result.tradeEvents)},
		logger.Field{Key: "durableLSN", Value: e.durableLSN.Load()},
	)

	return nil
}

// reject replies to a validation failure. Nothing reached the WAL or the
// book; the rejection outcome itself is retained for idempotent redelivery.
func (e *Engine) reject(ctx context.Context, msg kafka.Message, request *orderv1.Request, cause error) {
	reply := &orderv1.Reply{
		RequestID: request.RequestID,
		Status:    orderv1.ReplyRejected,
		Reason:    cause.Error(),
	}

	e.logger.InfoContext(ctx, "request rejected",
		logger.Field{Key: "op", Value: request.Op},
		logger.Field{Key: "reason", Value: cause.Error()},
	)

	e.recent.add(request.RequestID, reply)
	e.reply(ctx, reply)
	e.commit(ctx, msg)
}

// reply publishes a reply; emission failure is logged and never escalates.
func (e *Engine) reply(ctx context.Context, reply *orderv1.Reply) {
	if reply == nil {
		return
	}
	if err := e.publisher.PublishReply(ctx, reply); err != nil {
		e.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "publish_reply"})
	}
}

// commit acknowledges the message to the queue. On failure the message is
// redelivered and the recent-request set absorbs the duplicate.
func (e *Engine) commit(ctx context.Context, msg kafka.Message) {
	if err := e.orderReader.Commit(ctx, msg); err != nil {
		e.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "commit_request"})
	}
}

// checkInvariants asserts the book is not crossed. A violation is a bug and
// halts the engine.
func (e *Engine) checkInvariants() error {
	bestBid, hasBid := e.book.BestBid()
	bestAsk, hasAsk := e.book.BestAsk()
	if hasBid && hasAsk && bestBid >= bestAsk {
		return errors.NewErrorDetails(
			"book is crossed after matching",
			string(errors.BookInvariantError), "book")
	}
	return nil
}

// runSnapshotManager publishes an aggregated depth snapshot on a fixed
// cadence. It reads engine state under stateMu and never mutates the book.
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.options.SnapshotInterval)
	defer ticker.Stop()

	e.logger.Info("starting snapshot manager",
		logger.Field{Key: "interval", Value: e.options.SnapshotInterval},
	)

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("snapshot manager shutting down")
			return
		case <-ticker.C:
			e.publishSnapshot(e.ctx)
		}
	}
}

// publishSnapshot builds a snapshot consistent with the durable LSN and
// hands it to the publisher. Emission failure is logged, never escalated.
func (e *Engine) publishSnapshot(ctx context.Context) {
	e.stateMu.Lock()
	bids, asks := e.book.Depth(e.options.SnapshotDepth)
	snapshot := &snapshotv1.Snapshot{
		LSN:       e.durableLSN.Load(),
		Timestamp: time.Now().UTC(),
		Bids:      bids,
		Asks:      asks,
	}
	e.stateMu.Unlock()

	if err := e.publisher.PublishSnapshot(ctx, snapshot); err != nil {
		e.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "publish_snapshot"})
	}
}

// maybeCheckpoint persists a checkpoint and prunes old WAL segments once
// enough records have accumulated since the last one.
func (e *Engine) maybeCheckpoint() {
	if e.checkpoints == nil {
		return
	}

	lsn := e.durableLSN.Load()
	if lsn == 0 || lsn-e.lastCheckpointLSN < e.options.CheckpointDelta {
		return
	}

	e.stateMu.Lock()
	state := &snapshotv1.State{
		LastLSN:    lsn,
		ArrivalSeq: e.arrivalSeq,
		Orders:     e.book.Orders(),
	}
	e.stateMu.Unlock()

	if err := e.checkpoints.Save(state); err != nil {
		e.logger.Error(err, logger.Field{Key: "action", Value: "save_checkpoint"})
		return
	}

	e.lastCheckpointLSN = lsn

	if err := e.wal.TruncateBefore(lsn); err != nil {
		e.logger.Error(err, logger.Field{Key: "action", Value: "truncate_wal"})
	}

	e.logger.Info("checkpoint saved",
		logger.Field{Key: "lsn", Value: lsn},
		logger.Field{Key: "liveOrders", Value: len(state.Orders)},
	)
}

// nextArrivalSeq returns the next arrival sequence number.
func (e *Engine) nextArrivalSeq() int64 {
	e.arrivalSeq++
	return e.arrivalSeq
}

// assignOrderID fills in a fresh order id when the producer left it out.
func assignOrderID(request *orderv1.Request) string {
	if request.Order.ID != "" {
		return request.Order.ID
	}
	return uuid.NewString()
}

// DurableLSN returns the highest LSN known flushed to stable storage.
func (e *Engine) DurableLSN() uint64 {
	return e.durableLSN.Load()
}

// Order returns the retained order with the given id, live or not.
func (e *Engine) Order(id string) (*orderv1.Order, bool) {
	o, ok := e.orders[id]
	return o, ok
}
