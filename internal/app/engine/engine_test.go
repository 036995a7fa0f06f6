package engine

import (
	"context"
	"testing"
	"time"

	eventpublisherv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/event-publisher/v1"
	eventpublishermock "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/event-publisher/v1/mock"
	orderreadermock "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order-reader/v1/mock"
	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	snapshotv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/snapshot/v1"
	walv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/wal/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/orderbook"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/usecase/wal"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/config"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFixture wires a real book and a real WAL in a temp dir to mocked
// queue endpoints, and captures everything the engine publishes.
type testFixture struct {
	ctrl      *gomock.Controller
	reader    *orderreadermock.MockOrderReader
	publisher *eventpublishermock.MockPublisher
	book      *orderbook.Book
	wal       *wal.Store
	engine    *Engine

	records   []*walv1.Record
	trades    []eventpublisherv1.TradeEvent
	replies   []*orderv1.Reply
	snapshots []*snapshotv1.Snapshot
}

func setupTestFixture(t *testing.T, dir string) *testFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	log, err := logger.NewLogger()
	require.NoError(t, err)

	walStore, err := wal.Open(config.WALConfig{Dir: dir, SegmentSize: 1 << 20}, log)
	require.NoError(t, err)

	f := &testFixture{
		ctrl:      ctrl,
		reader:    orderreadermock.NewMockOrderReader(ctrl),
		publisher: eventpublishermock.NewMockPublisher(ctrl),
		book:      orderbook.NewBook(),
		wal:       walStore,
	}

	f.publisher.EXPECT().PublishRecords(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, records []*walv1.Record) error {
			f.records = append(f.records, records...)
			return nil
		}).AnyTimes()
	f.publisher.EXPECT().PublishTrades(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, events []eventpublisherv1.TradeEvent) error {
			f.trades = append(f.trades, events...)
			return nil
		}).AnyTimes()
	f.publisher.EXPECT().PublishReply(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, reply *orderv1.Reply) error {
			f.replies = append(f.replies, reply)
			return nil
		}).AnyTimes()
	f.publisher.EXPECT().PublishSnapshot(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, snapshot *snapshotv1.Snapshot) error {
			f.snapshots = append(f.snapshots, snapshot)
			return nil
		}).AnyTimes()
	f.reader.EXPECT().Commit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.engine = NewEngine(f.book, walStore, f.reader, f.publisher, nil, log)
	require.NoError(t, f.engine.recover())

	return f
}

func (f *testFixture) teardown(t *testing.T) {
	t.Helper()
	require.NoError(t, f.wal.Close())
	f.ctrl.Finish()
}

func (f *testFixture) process(t *testing.T, request *orderv1.Request) {
	t.Helper()
	require.NoError(t, f.engine.processRequest(context.Background(), kafka.Message{}, request))
}

func (f *testFixture) lastReply(t *testing.T) *orderv1.Reply {
	t.Helper()
	require.NotEmpty(t, f.replies)
	return f.replies[len(f.replies)-1]
}

func insertRequest(orderID string, side orderv1.Side, pricePaise, qty int64) *orderv1.Request {
	return &orderv1.Request{
		RequestID: uuid.NewString(),
		TS:        time.Now().UTC(),
		Op:        orderv1.OpInsert,
		Order:     orderv1.OrderPayload{ID: orderID, Side: side, PricePaise: pricePaise, Qty: qty},
	}
}

func modifyRequest(orderID string, pricePaise int64) *orderv1.Request {
	return &orderv1.Request{
		RequestID: uuid.NewString(),
		TS:        time.Now().UTC(),
		Op:        orderv1.OpModify,
		Order:     orderv1.OrderPayload{ID: orderID, PricePaise: pricePaise},
	}
}

func cancelRequest(orderID string) *orderv1.Request {
	return &orderv1.Request{
		RequestID: uuid.NewString(),
		TS:        time.Now().UTC(),
		Op:        orderv1.OpCancel,
		Order:     orderv1.OrderPayload{ID: orderID},
	}
}

// Scenario: two orders that do not cross rest on their own sides.
func TestEngine_NoCross(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 10))
	f.process(t, insertRequest("s1", orderv1.Sell, 10100, 5))

	assert.Empty(t, f.trades)
	assert.Equal(t, 2, f.book.Len())

	bestBid, ok := f.book.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(10000), bestBid)

	bestAsk, ok := f.book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(10100), bestAsk)

	// Two ORDER_INSERT records made it to the persistence stream.
	require.Len(t, f.records, 2)
	assert.Equal(t, walv1.KindOrderInsert, f.records[0].Kind)
	assert.Equal(t, uint64(1), f.records[0].LSN)
	assert.Equal(t, uint64(2), f.records[1].LSN)
}

// Scenario: an exact cross fully fills both sides; the trade executes at
// the resting order's price.
func TestEngine_ExactCrossFullFill(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 10))
	f.process(t, insertRequest("s1", orderv1.Sell, 10100, 5))
	f.process(t, insertRequest("b2", orderv1.Buy, 10100, 5))

	require.Len(t, f.trades, 1)
	trade := f.trades[0]
	assert.Equal(t, int64(10100), trade.PricePaise)
	assert.Equal(t, int64(5), trade.Qty)
	assert.Equal(t, "b2", trade.BidOrderID)
	assert.Equal(t, "s1", trade.AskOrderID)

	// s1 is gone, b2 never rested, b1 is untouched.
	_, s1Live := f.book.Order("s1")
	assert.False(t, s1Live)
	_, b2Live := f.book.Order("b2")
	assert.False(t, b2Live)

	s1, ok := f.engine.Order("s1")
	require.True(t, ok)
	assert.Equal(t, orderv1.StatusFilled, s1.Status)

	b2, ok := f.engine.Order("b2")
	require.True(t, ok)
	assert.Equal(t, orderv1.StatusFilled, b2.Status)
	assert.Equal(t, int64(10100), b2.AvgTradedPricePaise())

	b1, ok := f.book.Order("b1")
	require.True(t, ok)
	assert.Equal(t, orderv1.StatusOpen, b1.Status)
	assert.Equal(t, int64(10), b1.Remaining())
}

// Scenario: a partially filled aggressor rests with its remainder.
func TestEngine_PartialFillAggressorRests(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("s1", orderv1.Sell, 10000, 3))
	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 10))

	require.Len(t, f.trades, 1)
	assert.Equal(t, int64(10000), f.trades[0].PricePaise)
	assert.Equal(t, int64(3), f.trades[0].Qty)

	b1, ok := f.book.Order("b1")
	require.True(t, ok)
	assert.Equal(t, orderv1.StatusPartiallyFilled, b1.Status)
	assert.Equal(t, int64(7), b1.Remaining())
	assert.Equal(t, int64(10000), b1.PricePaise)

	_, s1Live := f.book.Order("s1")
	assert.False(t, s1Live)
}

// Scenario: equal-price resting orders fill in arrival order.
func TestEngine_PriceTimePriority(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("s1", orderv1.Sell, 10000, 4))
	f.process(t, insertRequest("s2", orderv1.Sell, 10000, 4))
	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 6))

	require.Len(t, f.trades, 2)
	assert.Equal(t, "s1", f.trades[0].AskOrderID)
	assert.Equal(t, int64(4), f.trades[0].Qty)
	assert.Equal(t, "s2", f.trades[1].AskOrderID)
	assert.Equal(t, int64(2), f.trades[1].Qty)

	s2, ok := f.book.Order("s2")
	require.True(t, ok)
	assert.Equal(t, orderv1.StatusPartiallyFilled, s2.Status)
	assert.Equal(t, int64(2), s2.Remaining())

	b1, ok := f.engine.Order("b1")
	require.True(t, ok)
	assert.Equal(t, orderv1.StatusFilled, b1.Status)
}

// Scenario: a modify forfeits time priority even at the same price.
func TestEngine_ModifyForfeitsPriority(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("s1", orderv1.Sell, 10000, 5))
	f.process(t, insertRequest("s2", orderv1.Sell, 10000, 5))

	f.process(t, modifyRequest("s1", 10000))

	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 5))

	require.Len(t, f.trades, 1)
	assert.Equal(t, "s2", f.trades[0].AskOrderID)

	s1, ok := f.book.Order("s1")
	require.True(t, ok)
	assert.Equal(t, int64(5), s1.Remaining())
}

// A price-improving modify can cross immediately.
func TestEngine_ModifyCrossesOppositeSide(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("b1", orderv1.Buy, 9900, 5))
	f.process(t, insertRequest("s1", orderv1.Sell, 10100, 5))

	assert.Empty(t, f.trades)

	f.process(t, modifyRequest("s1", 9900))

	require.Len(t, f.trades, 1)
	assert.Equal(t, int64(9900), f.trades[0].PricePaise)
	assert.Equal(t, "b1", f.trades[0].BidOrderID)
	assert.Equal(t, "s1", f.trades[0].AskOrderID)
	assert.Equal(t, 0, f.book.Len())
}

func TestEngine_Cancel(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 10))
	f.process(t, cancelRequest("b1"))

	assert.Equal(t, 0, f.book.Len())

	b1, ok := f.engine.Order("b1")
	require.True(t, ok)
	assert.Equal(t, orderv1.StatusCancelled, b1.Status)

	// Cancelling again is a validation rejection, not a WAL write.
	recordsBefore := len(f.records)
	f.process(t, cancelRequest("b1"))
	assert.Equal(t, orderv1.ReplyRejected, f.lastReply(t).Status)
	assert.Equal(t, recordsBefore, len(f.records))
}

func TestEngine_ValidationRejections(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	tests := []struct {
		name    string
		request *orderv1.Request
	}{
		{"bad price", insertRequest("o1", orderv1.Buy, 0, 5)},
		{"bad qty", insertRequest("o2", orderv1.Buy, 10000, 0)},
		{"bad side", insertRequest("o3", orderv1.Side(2), 10000, 5)},
		{"modify unknown order", modifyRequest("missing", 10000)},
		{"cancel unknown order", cancelRequest("missing")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.process(t, tt.request)
			assert.Equal(t, orderv1.ReplyRejected, f.lastReply(t).Status)
		})
	}

	// No WAL record, no book mutation, durable LSN unchanged.
	assert.Empty(t, f.records)
	assert.Equal(t, 0, f.book.Len())
	assert.Equal(t, uint64(0), f.engine.DurableLSN())
}

func TestEngine_DuplicateRequestIsIdempotent(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	request := insertRequest("b1", orderv1.Buy, 10000, 10)
	f.process(t, request)
	recordCount := len(f.records)

	// Redelivery of the same request id changes nothing and re-sends the
	// retained OK reply.
	f.process(t, request)

	assert.Equal(t, recordCount, len(f.records))
	assert.Equal(t, 1, f.book.Len())
	require.Len(t, f.replies, 2)
	assert.Equal(t, orderv1.ReplyOK, f.replies[1].Status)

	// A rejected request is idempotent too: same rejection reply, still no
	// WAL records.
	rejected := insertRequest("b2", orderv1.Buy, -1, 10)
	f.process(t, rejected)
	f.process(t, rejected)

	require.Len(t, f.replies, 4)
	assert.Equal(t, orderv1.ReplyRejected, f.replies[2].Status)
	assert.Equal(t, orderv1.ReplyRejected, f.replies[3].Status)
	assert.Equal(t, recordCount, len(f.records))
}

func TestEngine_InsertDuplicateLiveOrderIDRejected(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 10))
	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 10))

	assert.Equal(t, orderv1.ReplyRejected, f.lastReply(t).Status)
	assert.Equal(t, 1, f.book.Len())
}

func TestEngine_WALRecordsPerTrade(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("s1", orderv1.Sell, 10000, 3))
	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 10))

	// Second request: ORDER_INSERT, TRADE, ORDER_UPDATE(b1), ORDER_UPDATE(s1).
	require.Len(t, f.records, 5)

	kinds := []walv1.Kind{}
	for _, rec := range f.records[1:] {
		kinds = append(kinds, rec.Kind)
	}
	assert.Equal(t, []walv1.Kind{
		walv1.KindOrderInsert,
		walv1.KindTrade,
		walv1.KindOrderUpdate,
		walv1.KindOrderUpdate,
	}, kinds)

	// LSNs are strictly increasing by one across requests.
	for i, rec := range f.records {
		assert.Equal(t, uint64(i+1), rec.LSN)
	}

	// The trade event carries its record's LSN.
	require.Len(t, f.trades, 1)
	assert.Equal(t, f.records[2].LSN, f.trades[0].LSN)
}

func TestEngine_SnapshotReflectsDurableState(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("b1", orderv1.Buy, 10000, 10))
	f.process(t, insertRequest("b2", orderv1.Buy, 10000, 5))
	f.process(t, insertRequest("s1", orderv1.Sell, 10100, 7))

	f.engine.publishSnapshot(context.Background())

	require.Len(t, f.snapshots, 1)
	snapshot := f.snapshots[0]

	assert.Equal(t, f.engine.DurableLSN(), snapshot.LSN)
	require.Len(t, snapshot.Bids, 1)
	assert.Equal(t, int64(10000), snapshot.Bids[0].PricePaise)
	assert.Equal(t, int64(15), snapshot.Bids[0].Qty)
	require.Len(t, snapshot.Asks, 1)
	assert.Equal(t, int64(10100), snapshot.Asks[0].PricePaise)
	assert.Equal(t, int64(7), snapshot.Asks[0].Qty)
}

func TestEngine_SweepThroughMultipleLevels(t *testing.T) {
	f := setupTestFixture(t, t.TempDir())
	defer f.teardown(t)

	f.process(t, insertRequest("s1", orderv1.Sell, 10000, 5))
	f.process(t, insertRequest("s2", orderv1.Sell, 10100, 3))
	f.process(t, insertRequest("s3", orderv1.Sell, 10200, 7))

	f.process(t, insertRequest("b1", orderv1.Buy, 10200, 12))

	require.Len(t, f.trades, 3)
	assert.Equal(t, int64(10000), f.trades[0].PricePaise)
	assert.Equal(t, int64(5), f.trades[0].Qty)
	assert.Equal(t, int64(10100), f.trades[1].PricePaise)
	assert.Equal(t, int64(3), f.trades[1].Qty)
	assert.Equal(t, int64(10200), f.trades[2].PricePaise)
	assert.Equal(t, int64(4), f.trades[2].Qty)

	b1, ok := f.engine.Order("b1")
	require.True(t, ok)
	assert.Equal(t, orderv1.StatusFilled, b1.Status)

	// floor((5*10000 + 3*10100 + 4*10200) / 12)
	assert.Equal(t, int64(10091), b1.AvgTradedPricePaise())

	s3, ok := f.book.Order("s3")
	require.True(t, ok)
	assert.Equal(t, int64(3), s3.Remaining())
}
