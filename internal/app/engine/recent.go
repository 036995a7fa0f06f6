package engine

import (
	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
)

// recentSet is a bounded set of recently seen request ids with their
// outcomes. Redelivered requests are acknowledged with the retained reply
// instead of being re-applied. Eviction is FIFO over a fixed ring.
type recentSet struct {
	ring    []string
	pos     int
	replies map[string]*orderv1.Reply
}

func newRecentSet(capacity int) *recentSet {
	if capacity <= 0 {
		capacity = 1
	}
	return &recentSet{
		ring:    make([]string, capacity),
		replies: make(map[string]*orderv1.Reply, capacity),
	}
}

// add records the outcome for a request id, evicting the oldest entry once
// the ring is full. Re-adding an existing id only refreshes its reply.
func (s *recentSet) add(requestID string, reply *orderv1.Reply) {
	if requestID == "" {
		return
	}
	if _, exists := s.replies[requestID]; exists {
		s.replies[requestID] = reply
		return
	}

	if evicted := s.ring[s.pos]; evicted != "" {
		delete(s.replies, evicted)
	}
	s.ring[s.pos] = requestID
	s.pos = (s.pos + 1) % len(s.ring)
	s.replies[requestID] = reply
}

// get returns the retained outcome for a request id.
func (s *recentSet) get(requestID string) (*orderv1.Reply, bool) {
	reply, ok := s.replies[requestID]
	return reply, ok
}
