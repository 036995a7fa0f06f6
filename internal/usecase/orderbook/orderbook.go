package orderbook

import (
	"container/heap"
	"fmt"
	"sort"
	"sync"
	"time"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	snapshotv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/snapshot/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
)

// Book is the two-sided price-time-priority order book. Price levels are
// indexed by a heap per side for O(1) best-price peeks; each level is a FIFO
// of orders by arrival sequence; the order-id index holds list nodes so
// cancel and modify splice in O(1).
//
// The engine is the only writer. The RWMutex exists for the snapshot ticker,
// which reads aggregated depth concurrently.
type Book struct {
	mu sync.RWMutex

	bidHeap *MaxPriceHeap
	askHeap *MinPriceHeap

	bids map[int64]*priceLevel
	asks map[int64]*priceLevel

	index map[string]*node
}

// NewBook creates an empty order book.
func NewBook() *Book {
	bidHeap := &MaxPriceHeap{}
	askHeap := &MinPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	return &Book{
		bidHeap: bidHeap,
		askHeap: askHeap,
		bids:    make(map[int64]*priceLevel),
		asks:    make(map[int64]*priceLevel),
		index:   make(map[string]*node),
	}
}

// Insert appends the order to the tail of its price level, creating the
// level if absent. The order id must not be live.
func (b *Book) Insert(o *orderv1.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.index[o.ID]; exists {
		return errors.NewErrorDetails(
			fmt.Sprintf("order %s is already live", o.ID),
			string(errors.ErrDuplicateOrder), "order.id")
	}

	n := &node{order: o}
	b.levelFor(o.Side, o.PricePaise).enqueue(n)
	b.index[o.ID] = n

	return nil
}

// Cancel removes the order from its level and returns it. Empty levels are
// dropped immediately.
func (b *Book) Cancel(id string) (*orderv1.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.index[id]
	if !ok {
		return nil, errors.NewErrorDetails(
			fmt.Sprintf("order %s is not live", id),
			string(errors.ErrUnknownOrder), "order.id")
	}

	b.remove(n)
	return n.order, nil
}

// Modify re-seats the order at a new price with a fresh arrival sequence.
// Identity, original quantity and fill state are preserved; time priority is
// forfeited.
func (b *Book) Modify(id string, newPricePaise, newArrivalSeq int64, now time.Time) (*orderv1.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.index[id]
	if !ok {
		return nil, errors.NewErrorDetails(
			fmt.Sprintf("order %s is not live", id),
			string(errors.ErrUnknownOrder), "order.id")
	}

	b.remove(n)

	o := n.order
	o.PricePaise = newPricePaise
	o.ArrivalSeq = newArrivalSeq
	o.UpdatedAt = now

	fresh := &node{order: o}
	b.levelFor(o.Side, o.PricePaise).enqueue(fresh)
	b.index[o.ID] = fresh

	return o, nil
}

// Best returns the head order of the best price level on the given side, or
// nil when that side is empty.
func (b *Book) Best(side orderv1.Side) *orderv1.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	level := b.bestLevel(side)
	if level == nil {
		return nil
	}
	return level.head.order
}

// FillHead applies a fill of qty to the head order of the best level on the
// given side and returns it. A fully filled head is popped and its level
// dropped when empty. The caller guarantees qty does not exceed the head's
// remaining quantity.
func (b *Book) FillHead(side orderv1.Side, qty, pricePaise int64, now time.Time) *orderv1.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	level := b.bestLevel(side)
	if level == nil {
		return nil
	}

	n := level.head
	n.order.ApplyFill(qty, pricePaise, now)
	level.totalQty -= qty

	if n.order.Remaining() == 0 {
		b.remove(n)
	}

	return n.order
}

// ApplyUpdate overwrites the fill-derived fields of a live order from a
// replayed ORDER_UPDATE record, keeping the level's aggregate quantity in
// step. A FILLED status removes the order from the book.
func (b *Book) ApplyUpdate(id string, tradedQty, notionalPaise int64, status orderv1.Status, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.index[id]
	if !ok {
		return errors.NewErrorDetails(
			fmt.Sprintf("order %s is not live", id),
			string(errors.ErrUnknownOrder), "order.id")
	}

	o := n.order
	delta := tradedQty - o.TradedQty
	o.TradedQty = tradedQty
	o.NotionalPaise = notionalPaise
	o.Status = status
	o.UpdatedAt = now

	n.level.totalQty -= delta

	if status == orderv1.StatusFilled {
		b.remove(n)
	}
	return nil
}

// Order returns the live order with the given id.
func (b *Book) Order(id string) (*orderv1.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return n.order, true
}

// Len returns the number of live orders.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.index)
}

// BestBid returns the highest bid price, or false when there are no bids.
func (b *Book) BestBid() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.bidHeap.Len() == 0 {
		return 0, false
	}
	return b.bidHeap.Peek(), true
}

// BestAsk returns the lowest ask price, or false when there are no asks.
func (b *Book) BestAsk() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.askHeap.Len() == 0 {
		return 0, false
	}
	return b.askHeap.Peek(), true
}

// Depth aggregates remaining quantity per price level, best-first, capped at
// depth levels per side.
func (b *Book) Depth(depth int) (bids, asks []snapshotv1.Level) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bids = make([]snapshotv1.Level, 0, len(b.bids))
	for price, level := range b.bids {
		bids = append(bids, snapshotv1.Level{PricePaise: price, Qty: level.totalQty})
	}
	sort.Slice(bids, func(i, j int) bool {
		return bids[i].PricePaise > bids[j].PricePaise
	})

	asks = make([]snapshotv1.Level, 0, len(b.asks))
	for price, level := range b.asks {
		asks = append(asks, snapshotv1.Level{PricePaise: price, Qty: level.totalQty})
	}
	sort.Slice(asks, func(i, j int) bool {
		return asks[i].PricePaise < asks[j].PricePaise
	})

	if depth > 0 {
		if len(bids) > depth {
			bids = bids[:depth]
		}
		if len(asks) > depth {
			asks = asks[:depth]
		}
	}

	return bids, asks
}

// Orders returns a copy of every live order, used for checkpointing.
func (b *Book) Orders() []orderv1.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	orders := make([]orderv1.Order, 0, len(b.index))
	for _, n := range b.index {
		orders = append(orders, *n.order)
	}
	return orders
}

// levelFor finds or creates the price level for the given side and price.
func (b *Book) levelFor(side orderv1.Side, price int64) *priceLevel {
	levels := b.asks
	if side == orderv1.Buy {
		levels = b.bids
	}

	level, ok := levels[price]
	if !ok {
		level = &priceLevel{price: price}
		levels[price] = level
		if side == orderv1.Buy {
			heap.Push(b.bidHeap, price)
		} else {
			heap.Push(b.askHeap, price)
		}
	}
	return level
}

// bestLevel returns the best non-empty level on the given side.
func (b *Book) bestLevel(side orderv1.Side) *priceLevel {
	if side == orderv1.Buy {
		if b.bidHeap.Len() == 0 {
			return nil
		}
		return b.bids[b.bidHeap.Peek()]
	}

	if b.askHeap.Len() == 0 {
		return nil
	}
	return b.asks[b.askHeap.Peek()]
}

// remove unlinks the node, drops its level when empty and clears the index.
func (b *Book) remove(n *node) {
	level := n.level
	side := n.order.Side
	level.unlink(n)
	delete(b.index, n.order.ID)

	if level.empty() {
		if side == orderv1.Buy {
			delete(b.bids, level.price)
			b.removeFromBidHeap(level.price)
		} else {
			delete(b.asks, level.price)
			b.removeFromAskHeap(level.price)
		}
	}
}

// removeFromBidHeap removes a price level from the bid heap (O(N) worst
// case, but only on empty-level teardown).
func (b *Book) removeFromBidHeap(price int64) {
	for i := 0; i < b.bidHeap.Len(); i++ {
		if (*b.bidHeap)[i] == price {
			heap.Remove(b.bidHeap, i)
			return
		}
	}
}

// removeFromAskHeap removes a price level from the ask heap (O(N) worst
// case, but only on empty-level teardown).
func (b *Book) removeFromAskHeap(price int64) {
	for i := 0; i < b.askHeap.Len(); i++ {
		if (*b.askHeap)[i] == price {
			heap.Remove(b.askHeap, i)
			return
		}
	}
}
