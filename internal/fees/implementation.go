package fees

import (
	"context"
	"time"

	"libraryledger/internal/errs"

	"go.uber.org/zap"
)

// service implements the Service interface.
type service struct {
	store    Store
	defaults Rates
	log      *zap.SugaredLogger
}

// NewService creates a fee settings service. defaults are used while the singleton is unset.
func NewService(store Store, defaults Rates, log *zap.SugaredLogger) Service {
	return &service{
		store:    store,
		defaults: defaults,
		log:      log.Named("fees"),
	}
}

// GetRates returns the saved rates or the defaults.
func (s *service) GetRates(ctx context.Context) (Rates, error) {
	rates, err := s.store.LoadRates(ctx)
	if err != nil {
		return Rates{}, errs.Storage("load rates", err)
	}
	if rates == nil {
		return s.defaults, nil
	}
	return *rates, nil
}

// UpdateRates replaces the singleton.
func (s *service) UpdateRates(ctx context.Context, finePerDay, rentPerDay int64) (Rates, error) {
	if finePerDay < 0 || rentPerDay < 0 {
		return Rates{}, errs.Invalidf("rates must not be negative")
	}

	now := time.Now().UTC()
	saved, err := s.store.SaveRates(ctx, Rates{
		FinePerDay: finePerDay,
		RentPerDay: rentPerDay,
		UpdatedAt:  &now,
	})
	if err != nil {
		return Rates{}, errs.Storage("save rates", err)
	}

	s.log.Infow("fine settings updated", "fine_per_day", finePerDay, "rent_per_day", rentPerDay)
	return *saved, nil
}
