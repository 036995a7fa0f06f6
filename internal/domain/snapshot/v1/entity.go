package snapshotv1

import (
	"encoding/json"
	"fmt"
	"time"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
)

// Level is one aggregated price level of a depth snapshot. It marshals to
// the wire as a two-element array [price_paise, total_qty].
type Level struct {
	PricePaise int64
	Qty        int64
}

// MarshalJSON encodes the level as [price, qty].
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{l.PricePaise, l.Qty})
}

// UnmarshalJSON decodes the level from [price, qty].
func (l *Level) UnmarshalJSON(data []byte) error {
	var pair [2]int64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("level must be a [price, qty] pair: %w", err)
	}
	l.PricePaise = pair[0]
	l.Qty = pair[1]
	return nil
}

// Snapshot is an aggregated depth view of the book, levels sorted
// best-first. The LSN tag marks the state the snapshot reflects.
type Snapshot struct {
	LSN       uint64    `json:"lsn"`
	Timestamp time.Time `json:"ts"`
	Bids      []Level   `json:"bids"`
	Asks      []Level   `json:"asks"`
}

// State is the checkpoint payload: the set of live orders plus the
// high-water marks needed to resume replay from the checkpoint LSN.
type State struct {
	LastLSN    uint64          `json:"lastLSN"`
	ArrivalSeq int64           `json:"arrivalSeq"`
	Orders     []orderv1.Order `json:"orders"`
}
