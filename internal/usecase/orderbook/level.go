package orderbook

import (
	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
)

// node is the intrusive list element holding one resting order. The order-id
// index stores nodes directly, so a cancel splices in O(1) without walking
// the level.
type node struct {
	order *orderv1.Order
	level *priceLevel
	next  *node
	prev  *node
}

// priceLevel is a FIFO queue of orders at a single price, ordered by
// strictly increasing arrival sequence.
type priceLevel struct {
	price int64
	head  *node
	tail  *node

	totalQty   int64
	orderCount int
}

func (p *priceLevel) enqueue(n *node) {
	n.level = p
	if p.head == nil {
		p.head = n
		p.tail = n
	} else {
		p.tail.next = n
		n.prev = p.tail
		p.tail = n
	}
	p.totalQty += n.order.Remaining()
	p.orderCount++
}

// unlink splices a node out of the queue wherever it sits.
func (p *priceLevel) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		p.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		p.tail = n.prev
	}

	n.next = nil
	n.prev = nil
	n.level = nil

	p.totalQty -= n.order.Remaining()
	p.orderCount--
}

func (p *priceLevel) empty() bool {
	return p.head == nil
}
