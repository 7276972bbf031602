package circulation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/clock"
	"libraryledger/internal/errs"
	"libraryledger/internal/fees"
	"libraryledger/internal/membership"
	"libraryledger/internal/repository/memory"
	"libraryledger/pkg/eventstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ledger struct {
	repo    *memory.Memory
	clock   *clock.Manual
	members membership.Service
	catalog catalog.Service
	fees    fees.Service
	journal *eventstore.EventStore
	svc     circulation.Service
}

func newLedger(t *testing.T, journal circulation.Journal) *ledger {
	t.Helper()
	log := zap.NewNop().Sugar()
	repo := memory.New(log)
	clk := clock.NewManual(clock.MustParse("2024-01-01"))

	l := &ledger{
		repo:    repo,
		clock:   clk,
		members: membership.NewService(repo, clk, membership.Options{}, log),
		catalog: catalog.NewService(repo, log),
		fees:    fees.NewService(repo, fees.Defaults(), log),
		journal: eventstore.NewEventStore(repo),
	}
	if journal == nil {
		journal = l.journal
	}
	l.svc = circulation.NewService(circulation.Deps{
		Store:   repo,
		Catalog: l.catalog,
		Members: l.members,
		Rates:   l.fees,
		Journal: journal,
		Clock:   clk,
	}, 14, log)
	return l
}

func (l *ledger) member(t *testing.T) int64 {
	t.Helper()
	m, err := l.members.Register(context.Background(), membership.NewMember{Name: "Reader"})
	require.NoError(t, err)
	return m.ID
}

func (l *ledger) debt(t *testing.T, id int64) (debt, issued int64) {
	t.Helper()
	m, err := l.members.Get(context.Background(), id)
	require.NoError(t, err)
	return m.OutstandingDebt, m.BooksIssued
}

func TestLedgerScenario(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)
	memberID := l.member(t)

	rec, err := l.svc.Issue(ctx, circulation.IssueRequest{
		BookID:   "B123",
		Title:    "Dune",
		Author:   "Frank Herbert",
		MemberID: memberID,
		DueDate:  clock.MustParse("2024-01-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, circulation.StatusIssued, rec.Status)
	assert.Equal(t, clock.MustParse("2024-01-01"), rec.IssueDate)

	overdue, err := l.svc.ComputeOverdue(ctx, clock.MustParse("2024-01-20"))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, int64(5), overdue[0].OverdueDays)
	assert.Equal(t, int64(100), overdue[0].Fine)
	assert.Equal(t, circulation.StatusIssued, overdue[0].Status)
	assert.Equal(t, circulation.StatusOverdue, overdue[0].Label())

	debt, issued := l.debt(t, memberID)
	assert.Zero(t, debt)
	assert.Equal(t, int64(1), issued)

	l.clock.Set(clock.MustParse("2024-01-20"))
	receipt, err := l.svc.Return(ctx, "B123")
	require.NoError(t, err)
	assert.Equal(t, int64(19), receipt.RentDays)
	assert.Equal(t, int64(190), receipt.Rent)
	assert.Equal(t, circulation.StatusReturned, receipt.Record.Status)
	assert.Equal(t, int64(190), receipt.Record.RentCharged)
	require.NotNil(t, receipt.Record.ReturnedOn)

	debt, issued = l.debt(t, memberID)
	assert.Equal(t, int64(190), debt)
	assert.Zero(t, issued)

	events, err := l.journal.Load(ctx, membership.JournalStream, membership.StreamID(memberID))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, circulation.EventBookIssued, events[0].EventType)
	assert.Equal(t, circulation.EventBookReturned, events[1].EventType)

	var returned circulation.BookReturnedEvent
	require.NoError(t, eventstore.Decode(events[1], &returned))
	assert.Equal(t, int64(190), returned.Debt)
}

func TestIssueTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)
	a, b := l.member(t), l.member(t)

	_, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A", MemberID: a})
	require.NoError(t, err)
	_, err = l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A", MemberID: b})
	require.ErrorIs(t, err, errs.ErrConflict)

	_, issued := l.debt(t, b)
	assert.Zero(t, issued)
}

func TestReturnWithoutIssueIsNotFound(t *testing.T) {
	l := newLedger(t, nil)

	_, err := l.svc.Return(context.Background(), "B404")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRentDays(t *testing.T) {
	tests := []struct {
		name     string
		heldDays int
		wantDays int64
	}{
		{"same day return is charged one day", 0, 1},
		{"five days", 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l := newLedger(t, nil)
			memberID := l.member(t)

			_, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A", MemberID: memberID})
			require.NoError(t, err)
			l.clock.Advance(tt.heldDays)

			receipt, err := l.svc.Return(ctx, "B1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, receipt.RentDays)
			assert.Equal(t, tt.wantDays*fees.DefaultRentPerDay, receipt.Rent)

			debt, _ := l.debt(t, memberID)
			assert.Equal(t, tt.wantDays*fees.DefaultRentPerDay, debt)
		})
	}
}

func TestReturnUsesCurrentRates(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)
	memberID := l.member(t)

	_, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A", MemberID: memberID})
	require.NoError(t, err)
	_, err = l.fees.UpdateRates(ctx, 50, 7)
	require.NoError(t, err)
	l.clock.Advance(3)

	receipt, err := l.svc.Return(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(21), receipt.Rent)
}

func TestComputeOverdueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)
	memberID := l.member(t)
	for _, id := range []string{"B2", "B1"} {
		_, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: id, Title: "T", Author: "A", MemberID: memberID,
			DueDate: clock.MustParse("2024-01-10")})
		require.NoError(t, err)
	}

	asOf := clock.MustParse("2024-01-13")
	first, err := l.svc.ComputeOverdue(ctx, asOf)
	require.NoError(t, err)
	second, err := l.svc.ComputeOverdue(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, second, 2)
	assert.Less(t, second[0].ID, second[1].ID)
	assert.Equal(t, int64(60), second[0].Fine)

	none, err := l.svc.ComputeOverdue(ctx, clock.MustParse("2024-01-10"))
	require.NoError(t, err)
	assert.Empty(t, none)

	debt, _ := l.debt(t, memberID)
	assert.Zero(t, debt)
}

func TestIssueUnknownMemberRollsBack(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)

	_, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A", MemberID: 99})
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = l.svc.ActiveIssuance(ctx, "B1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestIssueFillsBookFromCatalog(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)
	memberID := l.member(t)
	_, err := l.catalog.AddBook(ctx, catalog.Book{ID: "B7", Title: "Emma", Author: "Jane Austen", Quantity: 1})
	require.NoError(t, err)

	rec, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B7", MemberID: memberID})
	require.NoError(t, err)
	assert.Equal(t, "Emma", rec.BookTitle)
	assert.Equal(t, "Jane Austen", rec.BookAuthor)
	assert.Equal(t, clock.MustParse("2024-01-15"), rec.DueDate)

	_, err = l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B8", MemberID: memberID})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestIssueValidation(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)
	memberID := l.member(t)

	tests := []struct {
		name string
		req  circulation.IssueRequest
	}{
		{"missing book", circulation.IssueRequest{MemberID: memberID, Title: "T", Author: "A"}},
		{"missing member", circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A"}},
		{"due before issue", circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A", MemberID: memberID,
			DueDate: clock.MustParse("2023-12-31")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.svc.Issue(ctx, tt.req)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestReturnBlankBookIDIsInvalid(t *testing.T) {
	l := newLedger(t, nil)
	for _, id := range []string{"", "   "} {
		_, err := l.svc.Return(context.Background(), id)
		require.ErrorIs(t, err, errs.ErrInvalidArgument)
		require.NotErrorIs(t, err, errs.ErrNotFound)
	}
}

func TestConcurrentReturnsChargeOnce(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)
	memberID := l.member(t)
	_, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A", MemberID: memberID})
	require.NoError(t, err)
	l.clock.Advance(4)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		notFound  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.svc.Return(ctx, "B1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, errs.ErrNotFound):
				notFound++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, notFound)
	debt, issued := l.debt(t, memberID)
	assert.Equal(t, int64(40), debt)
	assert.Zero(t, issued)
}

type failingJournal struct{}

func (failingJournal) Append(context.Context, string, string, string, any) (*eventstore.Event, error) {
	return nil, errors.New("journal unavailable")
}

func TestJournalFailureRollsBackIssue(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, failingJournal{})
	memberID := l.member(t)

	_, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A", MemberID: memberID})
	require.ErrorIs(t, err, errs.ErrStorage)

	_, issued := l.debt(t, memberID)
	assert.Zero(t, issued)
	_, err = l.svc.ActiveIssuance(ctx, "B1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

// rejectingJournal fails appends of one event type and passes the rest through.
type rejectingJournal struct {
	next      circulation.Journal
	eventType string
}

func (j *rejectingJournal) Append(ctx context.Context, streamType, streamID, eventType string, payload any) (*eventstore.Event, error) {
	if eventType == j.eventType {
		return nil, errors.New("journal unavailable")
	}
	return j.next.Append(ctx, streamType, streamID, eventType, payload)
}

func TestJournalFailureRollsBackReturn(t *testing.T) {
	ctx := context.Background()
	journal := &rejectingJournal{eventType: circulation.EventBookReturned}
	l := newLedger(t, journal)
	journal.next = l.journal
	memberID := l.member(t)

	_, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: "B1", Title: "T", Author: "A", MemberID: memberID})
	require.NoError(t, err)

	l.clock.Advance(3)
	_, err = l.svc.Return(ctx, "B1")
	require.ErrorIs(t, err, errs.ErrStorage)

	debt, issued := l.debt(t, memberID)
	assert.Zero(t, debt)
	assert.Equal(t, int64(1), issued)

	rec, err := l.svc.ActiveIssuance(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, circulation.StatusIssued, rec.Status)
	assert.Zero(t, rec.RentCharged)
	assert.Nil(t, rec.ReturnedOn)

	events, err := l.journal.Load(ctx, membership.JournalStream, membership.StreamID(memberID))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, circulation.EventBookIssued, events[0].EventType)
}

func TestListIssued(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)
	memberID := l.member(t)
	for _, id := range []string{"B1", "B2", "B3"} {
		_, err := l.svc.Issue(ctx, circulation.IssueRequest{BookID: id, Title: "T", Author: "A", MemberID: memberID})
		require.NoError(t, err)
	}
	_, err := l.svc.Return(ctx, "B2")
	require.NoError(t, err)

	recs, err := l.svc.ListIssued(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "B1", recs[0].BookID)
	assert.Equal(t, "B3", recs[1].BookID)

	recs, err = l.svc.ListIssued(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}
