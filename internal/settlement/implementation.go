package settlement

import (
	"context"
	"errors"

	"libraryledger/internal/clock"
	"libraryledger/internal/errs"
	"libraryledger/internal/membership"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type service struct {
	tx      Transactor
	members Members
	journal Journal
	clock   clock.Clock
	log     *zap.SugaredLogger
	tracer  trace.Tracer
	settled metric.Int64Counter
}

// NewService creates the settlement service.
func NewService(tx Transactor, members Members, journal Journal, clk clock.Clock, log *zap.SugaredLogger) Service {
	settled, _ := otel.Meter("libraryledger/settlement").Int64Counter("ledger.settled_amount",
		metric.WithDescription("debt settled"))
	return &service{
		tx:      tx,
		members: members,
		journal: journal,
		clock:   clk,
		log:     log.Named("settlement"),
		tracer:  otel.Tracer("libraryledger/settlement"),
		settled: settled,
	}
}

// Settle records the current debt as settled today and zeroes it. Settling twice settles zero the second time.
func (s *service) Settle(ctx context.Context, memberID int64) (*Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "settlement.settle", trace.WithAttributes(attribute.Int64("member.id", memberID)))
	defer span.End()

	if memberID <= 0 {
		return nil, errs.Invalidf("member_id must be positive")
	}

	today := s.clock.Today()
	var receipt *Receipt
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		amount, err := s.members.ApplySettlement(ctx, memberID, today)
		if err != nil {
			return err
		}
		if _, err := s.journal.Append(ctx, membership.JournalStream, membership.StreamID(memberID), EventDebtSettled, DebtSettledEvent{
			MemberID:  memberID,
			Amount:    amount,
			SettledOn: today,
		}); err != nil {
			return errs.Storage("journal debt settled", err)
		}
		receipt = &Receipt{MemberID: memberID, Amount: amount, SettledOn: today}
		return nil
	})
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			err = errs.Storage("settle", err)
			s.log.Errorw("settlement failed", "member_id", memberID, "error", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, errs.Kind(err))
		return nil, err
	}

	s.settled.Add(ctx, receipt.Amount)
	span.SetAttributes(attribute.Int64("amount", receipt.Amount))
	s.log.Infow("debt settled", "member_id", memberID, "amount", receipt.Amount)
	return receipt, nil
}
