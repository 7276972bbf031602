package postgres

import (
	"context"
	"errors"

	"libraryledger/internal/errs"
	"libraryledger/internal/fees"

	"github.com/jackc/pgx/v5"
)

// LoadRates implements fees.Store.
func (p *Postgres) LoadRates(ctx context.Context) (*fees.Rates, error) {
	var r fees.Rates
	err := p.q(ctx).QueryRow(ctx, `SELECT fine_per_day, rent_per_day, updated_at FROM fine_settings WHERE id = 1`).
		Scan(&r.FinePerDay, &r.RentPerDay, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage("select fine settings", err)
	}
	return &r, nil
}

// SaveRates implements fees.Store.
func (p *Postgres) SaveRates(ctx context.Context, rates fees.Rates) (*fees.Rates, error) {
	const stmt = `
INSERT INTO fine_settings (id, fine_per_day, rent_per_day, updated_at)
VALUES (1, $1, $2, NOW())
ON CONFLICT (id) DO UPDATE SET
    fine_per_day = EXCLUDED.fine_per_day,
    rent_per_day = EXCLUDED.rent_per_day,
    updated_at = EXCLUDED.updated_at
RETURNING fine_per_day, rent_per_day, updated_at`

	var r fees.Rates
	if err := p.q(ctx).QueryRow(ctx, stmt, rates.FinePerDay, rates.RentPerDay).
		Scan(&r.FinePerDay, &r.RentPerDay, &r.UpdatedAt); err != nil {
		return nil, errs.Storage("upsert fine settings", err)
	}
	return &r, nil
}
