package engine

import "time"

// Options represents configuration options for the Engine.
type Options struct {
	SnapshotInterval time.Duration
	SnapshotDepth    int
	RecentRequests   int
	CheckpointDelta  uint64
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		SnapshotInterval: time.Second,
		SnapshotDepth:    50,
		RecentRequests:   65536,
		CheckpointDelta:  10000,
	}
}
