package engine

import (
	"fmt"
	"testing"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okReply(id string) *orderv1.Reply {
	return &orderv1.Reply{RequestID: id, Status: orderv1.ReplyOK}
}

func TestRecentSet_AddGet(t *testing.T) {
	s := newRecentSet(4)

	s.add("r1", okReply("r1"))

	reply, ok := s.get("r1")
	require.True(t, ok)
	assert.Equal(t, orderv1.ReplyOK, reply.Status)

	_, ok = s.get("r2")
	assert.False(t, ok)
}

func TestRecentSet_EvictsOldestWhenFull(t *testing.T) {
	s := newRecentSet(3)

	for i := 1; i <= 4; i++ {
		id := fmt.Sprintf("r%d", i)
		s.add(id, okReply(id))
	}

	_, ok := s.get("r1")
	assert.False(t, ok, "oldest entry should be evicted")

	for i := 2; i <= 4; i++ {
		_, ok := s.get(fmt.Sprintf("r%d", i))
		assert.True(t, ok)
	}
}

func TestRecentSet_ReAddRefreshesReply(t *testing.T) {
	s := newRecentSet(2)

	s.add("r1", okReply("r1"))
	s.add("r1", &orderv1.Reply{RequestID: "r1", Status: orderv1.ReplyRejected, Reason: "dup"})

	reply, ok := s.get("r1")
	require.True(t, ok)
	assert.Equal(t, orderv1.ReplyRejected, reply.Status)

	// Re-adding does not consume a second slot.
	s.add("r2", okReply("r2"))
	_, ok = s.get("r1")
	assert.True(t, ok)
}

func TestRecentSet_IgnoresEmptyID(t *testing.T) {
	s := newRecentSet(2)
	s.add("", okReply(""))

	_, ok := s.get("")
	assert.False(t, ok)
}
