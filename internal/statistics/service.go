package statistics

import (
	"context"
	"time"
)

// Service reports library statistics.
type Service interface {
	Snapshot(ctx context.Context) (*Stats, error)
}

// Store computes all counters in one read-only transaction. today decides what counts as overdue.
type Store interface {
	Stats(ctx context.Context, today time.Time) (*Stats, error)
}
