package settlement

import (
	"context"
	"time"

	"libraryledger/pkg/eventstore"
)

// Service settles member debt.
type Service interface {
	Settle(ctx context.Context, memberID int64) (*Receipt, error)
}

// Transactor runs fn in one transaction carried by the context it passes.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Members applies a settlement to a member row.
type Members interface {
	ApplySettlement(ctx context.Context, id int64, on time.Time) (int64, error)
}

// Journal records ledger events.
type Journal interface {
	Append(ctx context.Context, streamType, streamID, eventType string, payload any) (*eventstore.Event, error)
}
