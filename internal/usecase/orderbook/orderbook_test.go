package orderbook

import (
	"testing"
	"time"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(id string, side orderv1.Side, price, qty, seq int64) *orderv1.Order {
	return orderv1.NewOrder(id, side, price, qty, seq, time.Now().UTC())
}

func TestNewBook(t *testing.T) {
	b := NewBook()

	assert.NotNil(t, b)
	assert.Equal(t, 0, b.Len())

	_, hasBid := b.BestBid()
	_, hasAsk := b.BestAsk()
	assert.False(t, hasBid)
	assert.False(t, hasAsk)
}

func TestBook_InsertAndBest(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("b1", orderv1.Buy, 10000, 10, 1)))
	require.NoError(t, b.Insert(newTestOrder("b2", orderv1.Buy, 10050, 5, 2)))
	require.NoError(t, b.Insert(newTestOrder("s1", orderv1.Sell, 10100, 7, 3)))

	bestBid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(10050), bestBid)

	bestAsk, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(10100), bestAsk)

	assert.Equal(t, "b2", b.Best(orderv1.Buy).ID)
	assert.Equal(t, "s1", b.Best(orderv1.Sell).ID)
	assert.Equal(t, 3, b.Len())
}

func TestBook_InsertDuplicateIDFails(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("o1", orderv1.Buy, 10000, 10, 1)))
	assert.Error(t, b.Insert(newTestOrder("o1", orderv1.Buy, 10000, 10, 2)))
}

func TestBook_FIFOWithinLevel(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("s1", orderv1.Sell, 10000, 4, 1)))
	require.NoError(t, b.Insert(newTestOrder("s2", orderv1.Sell, 10000, 4, 2)))

	// Head must be the earliest arrival at the level.
	assert.Equal(t, "s1", b.Best(orderv1.Sell).ID)

	filled := b.FillHead(orderv1.Sell, 4, 10000, time.Now().UTC())
	require.NotNil(t, filled)
	assert.Equal(t, "s1", filled.ID)
	assert.Equal(t, orderv1.StatusFilled, filled.Status)

	assert.Equal(t, "s2", b.Best(orderv1.Sell).ID)
}

func TestBook_FillHeadPartial(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("s1", orderv1.Sell, 10000, 10, 1)))

	filled := b.FillHead(orderv1.Sell, 3, 10000, time.Now().UTC())
	require.NotNil(t, filled)
	assert.Equal(t, orderv1.StatusPartiallyFilled, filled.Status)
	assert.Equal(t, int64(7), filled.Remaining())

	// Still at the head with the remainder.
	assert.Equal(t, "s1", b.Best(orderv1.Sell).ID)

	_, asks := b.Depth(10)
	require.Len(t, asks, 1)
	assert.Equal(t, int64(7), asks[0].Qty)
}

func TestBook_CancelRemovesEmptyLevel(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("o1", orderv1.Buy, 10000, 10, 1)))

	order, err := b.Cancel("o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)

	assert.Equal(t, 0, b.Len())
	_, hasBid := b.BestBid()
	assert.False(t, hasBid)

	_, err = b.Cancel("o1")
	assert.Error(t, err)
}

func TestBook_CancelMiddleOfLevel(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("s1", orderv1.Sell, 10000, 1, 1)))
	require.NoError(t, b.Insert(newTestOrder("s2", orderv1.Sell, 10000, 2, 2)))
	require.NoError(t, b.Insert(newTestOrder("s3", orderv1.Sell, 10000, 3, 3)))

	_, err := b.Cancel("s2")
	require.NoError(t, err)

	assert.Equal(t, "s1", b.Best(orderv1.Sell).ID)

	_, asks := b.Depth(10)
	require.Len(t, asks, 1)
	assert.Equal(t, int64(4), asks[0].Qty)
}

func TestBook_ModifyForfeitsPriority(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("s1", orderv1.Sell, 10000, 5, 1)))
	require.NoError(t, b.Insert(newTestOrder("s2", orderv1.Sell, 10000, 5, 2)))

	// Re-seat s1 at the same price with a fresh arrival sequence.
	modified, err := b.Modify("s1", 10000, 3, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(3), modified.ArrivalSeq)

	// s2 now holds time priority at the level.
	assert.Equal(t, "s2", b.Best(orderv1.Sell).ID)
}

func TestBook_ModifyPreservesFillState(t *testing.T) {
	b := NewBook()

	o := newTestOrder("s1", orderv1.Sell, 10000, 10, 1)
	require.NoError(t, b.Insert(o))
	b.FillHead(orderv1.Sell, 4, 10000, time.Now().UTC())

	modified, err := b.Modify("s1", 10100, 2, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, int64(10100), modified.PricePaise)
	assert.Equal(t, int64(4), modified.TradedQty)
	assert.Equal(t, int64(6), modified.Remaining())
	assert.Equal(t, int64(10), modified.OriginalQty)

	_, asks := b.Depth(10)
	require.Len(t, asks, 1)
	assert.Equal(t, int64(10100), asks[0].PricePaise)
	assert.Equal(t, int64(6), asks[0].Qty)
}

func TestBook_Depth(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("b1", orderv1.Buy, 9900, 10, 1)))
	require.NoError(t, b.Insert(newTestOrder("b2", orderv1.Buy, 10000, 5, 2)))
	require.NoError(t, b.Insert(newTestOrder("b3", orderv1.Buy, 10000, 5, 3)))
	require.NoError(t, b.Insert(newTestOrder("s1", orderv1.Sell, 10100, 7, 4)))
	require.NoError(t, b.Insert(newTestOrder("s2", orderv1.Sell, 10200, 2, 5)))

	bids, asks := b.Depth(10)

	require.Len(t, bids, 2)
	assert.Equal(t, int64(10000), bids[0].PricePaise) // best bid first
	assert.Equal(t, int64(10), bids[0].Qty)
	assert.Equal(t, int64(9900), bids[1].PricePaise)

	require.Len(t, asks, 2)
	assert.Equal(t, int64(10100), asks[0].PricePaise) // best ask first
	assert.Equal(t, int64(10200), asks[1].PricePaise)

	// Depth cap keeps only the best levels.
	bids, asks = b.Depth(1)
	require.Len(t, bids, 1)
	require.Len(t, asks, 1)
	assert.Equal(t, int64(10000), bids[0].PricePaise)
	assert.Equal(t, int64(10100), asks[0].PricePaise)
}

func TestBook_ApplyUpdate(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("s1", orderv1.Sell, 10000, 10, 1)))

	// Partial fill replayed from an ORDER_UPDATE record.
	err := b.ApplyUpdate("s1", 4, 40000, orderv1.StatusPartiallyFilled, time.Now().UTC())
	require.NoError(t, err)

	o, ok := b.Order("s1")
	require.True(t, ok)
	assert.Equal(t, int64(4), o.TradedQty)
	assert.Equal(t, int64(10000), o.AvgTradedPricePaise())

	_, asks := b.Depth(10)
	require.Len(t, asks, 1)
	assert.Equal(t, int64(6), asks[0].Qty)

	// Terminal fill removes the order and its level.
	err = b.ApplyUpdate("s1", 10, 100000, orderv1.StatusFilled, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())

	_, hasAsk := b.BestAsk()
	assert.False(t, hasAsk)
}

func TestBook_OrdersSnapshotCopy(t *testing.T) {
	b := NewBook()

	require.NoError(t, b.Insert(newTestOrder("b1", orderv1.Buy, 10000, 10, 1)))
	require.NoError(t, b.Insert(newTestOrder("s1", orderv1.Sell, 10100, 5, 2)))

	orders := b.Orders()
	assert.Len(t, orders, 2)

	// Mutating the copy must not touch the live book.
	orders[0].TradedQty = 99
	o, ok := b.Order(orders[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, int64(99), o.TradedQty)
}
