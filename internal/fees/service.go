package fees

import "context"

// Service defines the interface for reading and changing the fine settings.
type Service interface {
	GetRates(ctx context.Context) (Rates, error)
	UpdateRates(ctx context.Context, finePerDay, rentPerDay int64) (Rates, error)
}

// Store persists the fine settings singleton. LoadRates returns nil when nothing was saved yet.
type Store interface {
	LoadRates(ctx context.Context) (*Rates, error)
	SaveRates(ctx context.Context, rates Rates) (*Rates, error)
}
