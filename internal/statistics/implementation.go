package statistics

import (
	"context"
	"time"

	"libraryledger/internal/clock"
	"libraryledger/internal/errs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type service struct {
	store  Store
	clock  clock.Clock
	log    *zap.SugaredLogger
	tracer trace.Tracer
}

// NewService creates the statistics service.
func NewService(store Store, clk clock.Clock, log *zap.SugaredLogger) Service {
	return &service{
		store:  store,
		clock:  clk,
		log:    log.Named("statistics"),
		tracer: otel.Tracer("libraryledger/statistics"),
	}
}

// Snapshot returns every counter or an ErrStorage failure, never a partial result.
func (s *service) Snapshot(ctx context.Context) (*Stats, error) {
	ctx, span := s.tracer.Start(ctx, "statistics.snapshot")
	defer span.End()

	today := s.clock.Today()
	stats, err := s.store.Stats(ctx, today)
	if err != nil {
		err = errs.Storage("statistics snapshot", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot")
		s.log.Errorw("statistics snapshot failed", "error", err, "as_of", today.Format(time.DateOnly))
		return nil, err
	}
	return stats, nil
}
