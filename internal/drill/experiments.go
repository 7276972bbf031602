package drill

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"libraryledger/internal/circulation"
	"libraryledger/internal/errs"
	"libraryledger/internal/fees"
	"libraryledger/internal/membership"
	"libraryledger/internal/settlement"

	"github.com/google/uuid"
)

// Ledger is the service surface the built-in experiments drive.
type Ledger struct {
	Circulation circulation.Service
	Members     membership.Service
	Fees        fees.Service
	Settlement  settlement.Service
}

// Builtin returns the built-in experiments, each racing the given number of workers.
func Builtin(l Ledger, workers int) []Experiment {
	if workers < 2 {
		workers = 2
	}
	return []Experiment{
		ConcurrentReturns(l, workers),
		DuplicateIssue(l, workers),
	}
}

// drillRun holds the member and book one experiment works on.
type drillRun struct {
	l        Ledger
	bookID   string
	memberID int64
}

func newRun(l Ledger) *drillRun {
	return &drillRun{l: l, bookID: "drill-" + uuid.NewString()}
}

func (d *drillRun) register(ctx context.Context) error {
	m, err := d.l.Members.Register(ctx, membership.NewMember{Name: "Drill " + d.bookID})
	if err != nil {
		return fmt.Errorf("register drill member: %w", err)
	}
	d.memberID = m.ID
	return nil
}

func (d *drillRun) issue(ctx context.Context) (*circulation.IssuanceRecord, error) {
	return d.l.Circulation.Issue(ctx, circulation.IssueRequest{
		BookID:   d.bookID,
		Title:    "Drill copy",
		Author:   "drill",
		MemberID: d.memberID,
	})
}

// settle clears the rent the drill charged so no debt outlives the run.
func (d *drillRun) settle(ctx context.Context) error {
	if d.memberID == 0 {
		return nil
	}
	_, err := d.l.Settlement.Settle(ctx, d.memberID)
	return err
}

func (d *drillRun) deactivate(ctx context.Context) error {
	if d.memberID == 0 {
		return nil
	}
	_, err := d.l.Members.SetActive(ctx, d.memberID, false)
	return err
}

func (d *drillRun) member(ctx context.Context) (*membership.Member, error) {
	if d.memberID == 0 {
		return nil, errors.New("drill member was not registered")
	}
	return d.l.Members.Get(ctx, d.memberID)
}

// race runs fn on workers goroutines at once and tallies the outcomes.
func race(ctx context.Context, workers int, fn func(ctx context.Context) error, expected error) (ok, wantErr, other int64) {
	var okN, wantN, otherN atomic.Int64
	start := make(chan struct{})
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			switch err := fn(ctx); {
			case err == nil:
				okN.Add(1)
			case errors.Is(err, expected):
				wantN.Add(1)
			default:
				otherN.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	return okN.Load(), wantN.Load(), otherN.Load()
}

func ratesNonNegative(l Ledger) Metric {
	return Metric{
		Name: "rent_per_day",
		Query: func(ctx context.Context) (float64, error) {
			r, err := l.Fees.GetRates(ctx)
			return float64(r.RentPerDay), err
		},
		Threshold: Threshold{Operator: ">=", Value: 0},
	}
}

func gauge(name string, v *int64) Metric {
	return Metric{Name: name, Query: func(context.Context) (float64, error) { return float64(*v), nil }}
}

func equals(metric string, want float64, msg string) Assertion {
	return Assertion{Metric: metric, Condition: func(v float64) bool { return v == want }, Message: msg}
}

// ConcurrentReturns races returns of one issued book. Exactly one return may succeed and the
// member may be charged one rent only.
func ConcurrentReturns(l Ledger, workers int) Experiment {
	d := newRun(l)
	var succeeded, notFound, unexpected, rentMismatch int64
	var debtBefore int64

	return Experiment{
		Name:        "concurrent-returns",
		Hypothesis:  "Racing returns of one book close it once and charge rent once",
		SteadyState: []Metric{ratesNonNegative(l)},
		Method: []Action{
			{Type: "setup", Target: "membership", Execute: d.register},
			{Type: "setup", Target: "circulation", Execute: func(ctx context.Context) error {
				if _, err := d.issue(ctx); err != nil {
					return err
				}
				m, err := d.member(ctx)
				if err != nil {
					return err
				}
				debtBefore = m.OutstandingDebt
				return nil
			}},
			{Type: "race", Target: "circulation", Execute: func(ctx context.Context) error {
				succeeded, notFound, unexpected = race(ctx, workers, func(ctx context.Context) error {
					_, err := l.Circulation.Return(ctx, d.bookID)
					return err
				}, errs.ErrNotFound)
				return nil
			}},
		},
		Observe: []Metric{
			gauge("successful_returns", &succeeded),
			gauge("not_found_returns", &notFound),
			gauge("unexpected_errors", &unexpected),
			{Name: "rent_mismatch", Query: func(ctx context.Context) (float64, error) {
				m, err := d.member(ctx)
				if err != nil {
					return 0, err
				}
				rates, err := l.Fees.GetRates(ctx)
				if err != nil {
					return 0, err
				}
				rentMismatch = m.OutstandingDebt - debtBefore - rates.Rent(1)
				return float64(rentMismatch), nil
			}},
		},
		Rollback: []Action{
			{Type: "cleanup", Target: "settlement", Execute: d.settle},
			{Type: "cleanup", Target: "membership", Execute: d.deactivate},
		},
		Validation: []Assertion{
			equals("successful_returns", 1, "exactly one return succeeds"),
			equals("not_found_returns", float64(workers-1), "every other return reports not found"),
			equals("unexpected_errors", 0, "no return fails otherwise"),
			equals("rent_mismatch", 0, "rent is charged once"),
		},
	}
}

// DuplicateIssue races issues of one book. Exactly one may succeed and the member's issued
// counter may move by one only.
func DuplicateIssue(l Ledger, workers int) Experiment {
	d := newRun(l)
	var succeeded, conflicts, unexpected int64

	return Experiment{
		Name:        "duplicate-issue",
		Hypothesis:  "Racing issues of one book open a single issuance",
		SteadyState: []Metric{ratesNonNegative(l)},
		Method: []Action{
			{Type: "setup", Target: "membership", Execute: d.register},
			{Type: "race", Target: "circulation", Execute: func(ctx context.Context) error {
				succeeded, conflicts, unexpected = race(ctx, workers, func(ctx context.Context) error {
					_, err := d.issue(ctx)
					return err
				}, errs.ErrConflict)
				return nil
			}},
		},
		Observe: []Metric{
			gauge("successful_issues", &succeeded),
			gauge("conflicts", &conflicts),
			gauge("unexpected_errors", &unexpected),
			{Name: "books_issued", Query: func(ctx context.Context) (float64, error) {
				m, err := d.member(ctx)
				if err != nil {
					return 0, err
				}
				return float64(m.BooksIssued), nil
			}},
		},
		Rollback: []Action{
			{Type: "cleanup", Target: "circulation", Execute: func(ctx context.Context) error {
				_, err := l.Circulation.Return(ctx, d.bookID)
				if errors.Is(err, errs.ErrNotFound) {
					return nil
				}
				return err
			}},
			{Type: "cleanup", Target: "settlement", Execute: d.settle},
			{Type: "cleanup", Target: "membership", Execute: d.deactivate},
		},
		Validation: []Assertion{
			equals("successful_issues", 1, "exactly one issue succeeds"),
			equals("conflicts", float64(workers-1), "every other issue conflicts"),
			equals("unexpected_errors", 0, "no issue fails otherwise"),
			equals("books_issued", 1, "issued counter moves once"),
		},
	}
}
