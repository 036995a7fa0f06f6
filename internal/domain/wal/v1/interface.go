package walv1

// ReplayHandler is invoked for every durable record in LSN order.
type ReplayHandler func(*Record) error

// Store is the durable, totally ordered record log.
//
// Append stages a record in the current batch and assigns its LSN; Flush
// frames the staged batch, writes it and syncs it to stable storage. A
// batch becomes durable atomically: a torn frame found on replay drops the
// whole batch. Replay must run once, before the first Append.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=wal_mock
type Store interface {
	Append(rec *Record) error
	Flush() error
	Replay(fn ReplayHandler) (lastLSN uint64, err error)
	Reset(lsn uint64)
	LastLSN() uint64
	TruncateBefore(lsn uint64) error
	Close() error
}
