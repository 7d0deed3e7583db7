package similarity

import (
	"context"
	"time"
)

// Backend computes a similarity matrix for a list of distinct values.
type Backend interface {
	Method() Method
	Compute(ctx context.Context, values []string) (*Matrix, error)
}

// Partitioner is implemented by backends that can group values directly, bypassing
// the clustering step.
type Partitioner interface {
	Backend
	// PartitionsDirectly reports whether Partition should be used instead of Compute.
	PartitionsDirectly() bool
	// Partition returns a valid partition of the value indices.
	Partition(ctx context.Context, values []string) ([][]int, error)
}

// Observer is notified after each provider call.
type Observer func(kind string, d time.Duration, err error)
