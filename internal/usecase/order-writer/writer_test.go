package orderwriter

import (
	"context"
	"testing"
	"time"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	walv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/wal/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/infrastructure/postgresql/order"
	"github.com/akhil9281/AlgoTest-OrderApi/internal/infrastructure/postgresql/trade"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/config"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	stored   []*order.Order
	priced   []string
	filled   []string
	statuses map[string]string
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{statuses: make(map[string]string)}
}

func (f *fakeOrderRepo) Store(ctx context.Context, o *order.Order) error {
	f.stored = append(f.stored, o)
	f.statuses[o.ID] = o.Status
	return nil
}

func (f *fakeOrderRepo) UpdatePrice(ctx context.Context, id string, pricePaise, arrivalSeq int64, updatedAt time.Time) error {
	f.priced = append(f.priced, id)
	return nil
}

func (f *fakeOrderRepo) UpdateFill(ctx context.Context, id string, tradedQty, avgPricePaise int64, status string, updatedAt time.Time) error {
	f.filled = append(f.filled, id)
	f.statuses[id] = status
	return nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	f.statuses[id] = status
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return nil, nil
}

type fakeTradeRepo struct {
	stored []*trade.Trade
}

func (f *fakeTradeRepo) Store(ctx context.Context, t *trade.Trade) error {
	f.stored = append(f.stored, t)
	return nil
}

func (f *fakeTradeRepo) StoreBatch(ctx context.Context, trades []*trade.Trade) error {
	f.stored = append(f.stored, trades...)
	return nil
}

func (f *fakeTradeRepo) GetByID(ctx context.Context, id string) (*trade.Trade, error) {
	return nil, nil
}

func newTestWriter(t *testing.T, orders *fakeOrderRepo, trades *fakeTradeRepo) *Writer {
	t.Helper()

	log, err := logger.NewLogger()
	require.NoError(t, err)

	return NewWriter(config.WriterConfig{
		KafkaConfig:  config.KafkaConfig{Brokers: []string{"localhost:9092"}, RecordTopic: "wal.records"},
		ConsumerName: "order-writer-test",
	}, nil, orders, trades, nil, log)
}

func TestWriter_MirrorDispatch(t *testing.T) {
	orders := newFakeOrderRepo()
	trades := &fakeTradeRepo{}
	w := newTestWriter(t, orders, trades)

	ctx := context.Background()
	now := time.Now().UTC()

	o := orderv1.NewOrder("o1", orderv1.Buy, 10000, 10, 1, now)

	require.NoError(t, w.mirror(ctx, walv1.NewOrderInsert("r1", o, now)))
	require.Len(t, orders.stored, 1)
	assert.Equal(t, "o1", orders.stored[0].ID)
	assert.Equal(t, "BUY", orders.stored[0].Side)

	require.NoError(t, w.mirror(ctx, walv1.NewOrderModify("r2", "o1", 10100, 2, now)))
	assert.Equal(t, []string{"o1"}, orders.priced)

	tr := orderv1.NewTrade("o1", "s1", 10000, 4, now)
	tradeRec := walv1.NewTrade("r3", tr, now)
	tradeRec.LSN = 9
	require.NoError(t, w.mirror(ctx, tradeRec))
	require.Len(t, trades.stored, 1)
	assert.Equal(t, tr.ID, trades.stored[0].ID)
	assert.Equal(t, int64(9), trades.stored[0].LSN)

	o.ApplyFill(4, 10000, now)
	require.NoError(t, w.mirror(ctx, walv1.NewOrderUpdate("r3", o, now)))
	assert.Equal(t, []string{"o1"}, orders.filled)
	assert.Equal(t, "PARTIALLY_FILLED", orders.statuses["o1"])

	require.NoError(t, w.mirror(ctx, walv1.NewOrderCancel("r4", "o1", now)))
	assert.Equal(t, "CANCELLED", orders.statuses["o1"])
}
