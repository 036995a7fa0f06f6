package snapshotv1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_MarshalsAsPair(t *testing.T) {
	snapshot := Snapshot{
		LSN:       12,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Bids:      []Level{{PricePaise: 10000, Qty: 15}, {PricePaise: 9900, Qty: 4}},
		Asks:      []Level{{PricePaise: 10100, Qty: 7}},
	}

	buf, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(buf), `"bids":[[10000,15],[9900,4]]`)
	assert.Contains(t, string(buf), `"asks":[[10100,7]]`)
	assert.Contains(t, string(buf), `"lsn":12`)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(buf, &decoded))
	assert.Equal(t, snapshot.Bids, decoded.Bids)
	assert.Equal(t, snapshot.Asks, decoded.Asks)
	assert.Equal(t, snapshot.LSN, decoded.LSN)
}

func TestLevel_UnmarshalRejectsBadShape(t *testing.T) {
	var level Level
	assert.Error(t, json.Unmarshal([]byte(`{"price":1}`), &level))
}
