// internal/membership/implementation.go
package membership

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"libraryledger/internal/clock"
	"libraryledger/internal/errs"

	"golang.org/x/time/rate"
	"go.uber.org/zap"
)

const (
	defaultPageCount = 20
	maxPageCount     = 100
)

// Options tunes the registry.
type Options struct {
	RegistrationsPerMinute float64
	RegistrationBurst      int
	DefaultTermMonths      int
}

// DefaultOptions allows 5 registrations per minute and one-year memberships.
func DefaultOptions() Options {
	return Options{RegistrationsPerMinute: 5, RegistrationBurst: 5, DefaultTermMonths: 12}
}

// service implements the Service interface.
type service struct {
	store       Store
	clock       clock.Clock
	termMonths  int
	rateLimiter *rate.Limiter
	log         *zap.SugaredLogger
}

// NewService creates a new membership service instance.
func NewService(store Store, clk clock.Clock, opts Options, log *zap.SugaredLogger) Service {
	limit := rate.Inf
	if opts.RegistrationsPerMinute > 0 {
		limit = rate.Limit(opts.RegistrationsPerMinute / 60)
	}
	burst := opts.RegistrationBurst
	if burst < 1 {
		burst = 1
	}
	term := opts.DefaultTermMonths
	if term < 1 {
		term = 12
	}
	return &service{
		store:       store,
		clock:       clk,
		termMonths:  term,
		rateLimiter: rate.NewLimiter(limit, burst),
		log:         log.Named("membership"),
	}
}

// Register creates an active member with no debt.
func (s *service) Register(ctx context.Context, req NewMember) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, errs.ErrRateLimited
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, errs.Invalidf("name is required")
	}

	today := s.clock.Today()
	endsOn := clock.Date(req.EndsOn)
	if req.EndsOn.IsZero() {
		endsOn = today.AddDate(0, s.termMonths, 0)
	}
	if endsOn.Before(today) {
		return nil, errs.Invalidf("membership end date is in the past")
	}

	member, err := s.store.InsertMember(ctx, Member{
		Name:     req.Name,
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		IsActive: true,
		JoinedOn: today,
		EndsOn:   endsOn,
	})
	if err != nil {
		return nil, errs.Storage("insert member", err)
	}

	s.log.Infow("member registered", "member_id", member.ID)
	return member, nil
}

// Get retrieves a member by id.
func (s *service) Get(ctx context.Context, id int64) (*Member, error) {
	member, err := s.store.GetMember(ctx, id)
	if err != nil {
		return nil, storeErr("get member", err)
	}
	return member, nil
}

// List returns one page of members ordered by id. A page past the last one is not found.
func (s *service) List(ctx context.Context, req PageRequest) (*MemberPage, error) {
	if req.Page < 1 {
		return nil, errs.Invalidf("page must be positive")
	}
	switch {
	case req.Count <= 0:
		req.Count = defaultPageCount
	case req.Count > maxPageCount:
		req.Count = maxPageCount
	}
	if req.Page-1 > math.MaxInt/req.Count {
		return nil, errs.NotFoundf("page %d is past the last page", req.Page)
	}

	members, total, err := s.store.ListMembers(ctx, (req.Page-1)*req.Count, req.Count)
	if err != nil {
		return nil, errs.Storage("list members", err)
	}

	pages := (total + req.Count - 1) / req.Count
	if pages == 0 {
		pages = 1
	}
	if req.Page > pages {
		return nil, errs.NotFoundf("page %d of %d", req.Page, pages)
	}
	if members == nil {
		members = []Member{}
	}

	return &MemberPage{
		TotalMembers: total,
		TotalPages:   pages,
		CurrentPage:  req.Page,
		Members:      members,
	}, nil
}

// SetActive toggles membership status.
func (s *service) SetActive(ctx context.Context, id int64, active bool) (*Member, error) {
	member, err := s.store.SetMemberActive(ctx, id, active)
	if err != nil {
		return nil, storeErr("set member active", err)
	}
	s.log.Infow("member status changed", "member_id", id, "is_active", active)
	return member, nil
}

// AdjustDebt applies delta without clamping. A negative balance is reported, not corrected.
func (s *service) AdjustDebt(ctx context.Context, id int64, delta int64) (int64, error) {
	debt, err := s.store.AddDebt(ctx, id, delta)
	if err != nil {
		return 0, storeErr("adjust debt", err)
	}
	if debt < 0 {
		s.log.Warnw("caller bug: outstanding debt went negative", "member_id", id, "delta", delta, "outstanding_debt", debt)
	}
	return debt, nil
}

// AdjustIssuedCount applies delta without clamping. A negative count is reported, not corrected.
func (s *service) AdjustIssuedCount(ctx context.Context, id int64, delta int64) (int64, error) {
	count, err := s.store.AddIssuedCount(ctx, id, delta)
	if err != nil {
		return 0, storeErr("adjust issued count", err)
	}
	if count < 0 {
		s.log.Warnw("caller bug: issued count went negative", "member_id", id, "delta", delta, "books_issued", count)
	}
	return count, nil
}

// ApplySettlement zeroes the debt in one statement and returns the settled amount.
func (s *service) ApplySettlement(ctx context.Context, id int64, on time.Time) (int64, error) {
	amount, err := s.store.ApplySettlement(ctx, id, clock.Date(on))
	if err != nil {
		return 0, storeErr("apply settlement", err)
	}
	return amount, nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return err
	}
	return errs.Storage(op, err)
}
