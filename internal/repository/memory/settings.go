package memory

import (
	"context"

	"libraryledger/internal/fees"
)

// LoadRates implements fees.Store.
func (m *Memory) LoadRates(ctx context.Context) (*fees.Rates, error) {
	defer m.lock(ctx)()

	if m.state.rates == nil {
		return nil, nil
	}
	rates := *m.state.rates
	return &rates, nil
}

// SaveRates implements fees.Store.
func (m *Memory) SaveRates(ctx context.Context, rates fees.Rates) (*fees.Rates, error) {
	defer m.lock(ctx)()

	stored := rates
	m.state.rates = &stored
	out := stored
	return &out, nil
}
