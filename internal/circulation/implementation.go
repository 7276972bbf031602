// internal/circulation/implementation.go
package circulation

import (
	"context"
	"errors"
	"strings"
	"time"

	"libraryledger/internal/clock"
	"libraryledger/internal/errs"
	"libraryledger/internal/fees"
	"libraryledger/internal/membership"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultLoanDays is the loan period used when an issue request has no due date.
const DefaultLoanDays = 14

// Deps are the collaborators of the ledger.
type Deps struct {
	Store   Store
	Catalog Catalog
	Members Members
	Rates   Rates
	Journal Journal
	Clock   clock.Clock
}

// service implements the Service interface.
type service struct {
	Deps
	loanDays int
	log      *zap.SugaredLogger
	tracer   trace.Tracer
	issues   metric.Int64Counter
	returns  metric.Int64Counter
	rent     metric.Int64Counter
}

// NewService creates the issuance ledger. loanDays <= 0 means DefaultLoanDays.
func NewService(deps Deps, loanDays int, log *zap.SugaredLogger) Service {
	if loanDays <= 0 {
		loanDays = DefaultLoanDays
	}
	meter := otel.Meter("libraryledger/circulation")
	issues, _ := meter.Int64Counter("ledger.issues", metric.WithDescription("books issued"))
	returns, _ := meter.Int64Counter("ledger.returns", metric.WithDescription("books returned"))
	rent, _ := meter.Int64Counter("ledger.rent_charged", metric.WithDescription("rent charged on return"))

	return &service{
		Deps:     deps,
		loanDays: loanDays,
		log:      log.Named("circulation"),
		tracer:   otel.Tracer("libraryledger/circulation"),
		issues:   issues,
		returns:  returns,
		rent:     rent,
	}
}

// Issue opens an issuance and increments the member's issued count. No fee is charged.
func (s *service) Issue(ctx context.Context, req IssueRequest) (*IssuanceRecord, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.issue",
		trace.WithAttributes(
			attribute.String("book.id", req.BookID),
			attribute.Int64("member.id", req.MemberID),
		),
	)
	defer span.End()

	req.BookID = strings.TrimSpace(req.BookID)
	if req.BookID == "" {
		return nil, errs.Invalidf("book_id is required")
	}
	if req.MemberID <= 0 {
		return nil, errs.Invalidf("member_id must be positive")
	}

	today := s.Clock.Today()
	due := clock.Date(req.DueDate)
	if req.DueDate.IsZero() {
		due = today.AddDate(0, 0, s.loanDays)
	}
	if due.Before(today) {
		return nil, errs.Invalidf("due date %s is before issue date %s", due.Format(time.DateOnly), today.Format(time.DateOnly))
	}

	if req.Title == "" || req.Author == "" {
		book, err := s.Catalog.GetBook(ctx, req.BookID)
		if err != nil {
			return nil, s.fail(span, "issue", err)
		}
		if req.Title == "" {
			req.Title = book.Title
		}
		if req.Author == "" {
			req.Author = book.Author
		}
	}

	var issued *IssuanceRecord
	err := s.Store.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.Store.InsertIssuance(ctx, IssuanceRecord{
			BookID:     req.BookID,
			BookTitle:  req.Title,
			BookAuthor: req.Author,
			MemberID:   req.MemberID,
			IssueDate:  today,
			DueDate:    due,
			Status:     StatusIssued,
		})
		if err != nil {
			return err
		}
		if _, err := s.Members.AdjustIssuedCount(ctx, req.MemberID, 1); err != nil {
			return err
		}
		if _, err := s.Journal.Append(ctx, membership.JournalStream, membership.StreamID(req.MemberID), EventBookIssued, BookIssuedEvent{
			IssueID:   rec.ID,
			BookID:    rec.BookID,
			MemberID:  rec.MemberID,
			IssueDate: rec.IssueDate,
			DueDate:   rec.DueDate,
		}); err != nil {
			return errs.Storage("journal book issued", err)
		}
		issued = rec
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "issue", err)
	}

	s.issues.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("issue.id", issued.ID))
	s.log.Infow("book issued", "issue_id", issued.ID, "book_id", issued.BookID, "member_id", issued.MemberID,
		"due_date", issued.DueDate.Format(time.DateOnly))
	return issued, nil
}

// Return closes the active issuance of a book and charges rent for every day held, at least one.
func (s *service) Return(ctx context.Context, bookID string) (*ReturnReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return", trace.WithAttributes(attribute.String("book.id", bookID)))
	defer span.End()

	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, errs.Invalidf("book_id is required")
	}

	rates, err := s.Rates.GetRates(ctx)
	if err != nil {
		return nil, s.fail(span, "return", err)
	}
	today := s.Clock.Today()

	var receipt *ReturnReceipt
	err = s.Store.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := s.Store.FindActiveIssuance(ctx, bookID, true)
		if err != nil {
			return err
		}

		days := fees.RentDays(rec.IssueDate, today)
		rent := rates.Rent(days)

		returned, err := s.Store.MarkReturned(ctx, rec.ID, today, rent)
		if err != nil {
			return err
		}
		debt, err := s.Members.AdjustDebt(ctx, rec.MemberID, rent)
		if err != nil {
			return err
		}
		if _, err := s.Members.AdjustIssuedCount(ctx, rec.MemberID, -1); err != nil {
			return err
		}
		if _, err := s.Journal.Append(ctx, membership.JournalStream, membership.StreamID(rec.MemberID), EventBookReturned, BookReturnedEvent{
			IssueID:    rec.ID,
			BookID:     rec.BookID,
			MemberID:   rec.MemberID,
			ReturnDate: today,
			RentDays:   days,
			Rent:       rent,
			Debt:       debt,
		}); err != nil {
			return errs.Storage("journal book returned", err)
		}

		receipt = &ReturnReceipt{Record: *returned, RentDays: days, Rent: rent}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "return", err)
	}

	s.returns.Add(ctx, 1)
	s.rent.Add(ctx, receipt.Rent)
	span.SetAttributes(attribute.Int64("issue.id", receipt.Record.ID), attribute.Int64("rent", receipt.Rent))
	s.log.Infow("book returned", "issue_id", receipt.Record.ID, "book_id", bookID, "member_id", receipt.Record.MemberID,
		"rent_days", receipt.RentDays, "rent", receipt.Rent)
	return receipt, nil
}

// ComputeOverdue recomputes fines from scratch, so repeating it for the same asOf changes nothing.
// Statuses and member debt are left untouched. A zero asOf means today.
func (s *service) ComputeOverdue(ctx context.Context, asOf time.Time) ([]IssuanceRecord, error) {
	if asOf.IsZero() {
		asOf = s.Clock.Today()
	}
	asOf = clock.Date(asOf)
	ctx, span := s.tracer.Start(ctx, "circulation.compute_overdue",
		trace.WithAttributes(attribute.String("as_of", asOf.Format(time.DateOnly))))
	defer span.End()

	rates, err := s.Rates.GetRates(ctx)
	if err != nil {
		return nil, s.fail(span, "compute overdue", err)
	}

	var overdue []IssuanceRecord
	err = s.Store.WithinTx(ctx, func(ctx context.Context) error {
		recs, err := s.Store.OverdueForUpdate(ctx, asOf)
		if err != nil {
			return err
		}
		for i := range recs {
			days := fees.OverdueDays(recs[i].DueDate, asOf)
			fine := rates.Fine(days)
			if err := s.Store.SetFine(ctx, recs[i].ID, days, fine); err != nil {
				return err
			}
			recs[i].OverdueDays = days
			recs[i].Fine = fine
		}
		overdue = recs
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "compute overdue", err)
	}
	if overdue == nil {
		overdue = []IssuanceRecord{}
	}

	span.SetAttributes(attribute.Int("overdue.count", len(overdue)))
	s.log.Debugw("overdue recomputed", "as_of", asOf.Format(time.DateOnly), "count", len(overdue))
	return overdue, nil
}

// ActiveIssuance returns the Issued record of a book.
func (s *service) ActiveIssuance(ctx context.Context, bookID string) (*IssuanceRecord, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, errs.Invalidf("book_id is required")
	}
	rec, err := s.Store.FindActiveIssuance(ctx, bookID, false)
	if err != nil {
		return nil, ledgerErr("find issuance", err)
	}
	return rec, nil
}

// ListIssued returns Issued records by ascending id. limit <= 0 returns all of them.
func (s *service) ListIssued(ctx context.Context, limit int) ([]IssuanceRecord, error) {
	recs, err := s.Store.ListIssued(ctx, limit)
	if err != nil {
		return nil, ledgerErr("list issued", err)
	}
	if recs == nil {
		recs = []IssuanceRecord{}
	}
	return recs, nil
}

func (s *service) fail(span trace.Span, op string, err error) error {
	err = ledgerErr(op, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, errs.Kind(err))
	if errors.Is(err, errs.ErrStorage) {
		s.log.Errorw(op+" failed", "error", err)
	}
	return err
}

// ledgerErr keeps domain error kinds and classifies everything else as a storage failure.
func ledgerErr(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound),
		errors.Is(err, errs.ErrConflict),
		errors.Is(err, errs.ErrInvalidArgument):
		return err
	default:
		return errs.Storage(op, err)
	}
}
