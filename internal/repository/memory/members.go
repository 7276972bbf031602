package memory

import (
	"context"
	"sort"
	"time"

	"libraryledger/internal/errs"
	"libraryledger/internal/membership"
)

// InsertMember implements membership.Store.
func (m *Memory) InsertMember(ctx context.Context, mem membership.Member) (*membership.Member, error) {
	defer m.lock(ctx)()

	mem.ID = m.state.nextMemberID
	m.state.nextMemberID++
	m.state.members[mem.ID] = mem
	return &mem, nil
}

// GetMember implements membership.Store.
func (m *Memory) GetMember(ctx context.Context, id int64) (*membership.Member, error) {
	defer m.lock(ctx)()

	mem, ok := m.state.members[id]
	if !ok {
		return nil, errs.NotFoundf("member %d", id)
	}
	return &mem, nil
}

// ListMembers implements membership.Store.
func (m *Memory) ListMembers(ctx context.Context, offset, limit int) ([]membership.Member, int, error) {
	defer m.lock(ctx)()

	all := make([]membership.Member, 0, len(m.state.members))
	for _, mem := range m.state.members {
		all = append(all, mem)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return page(all, offset, limit), len(all), nil
}

// SetMemberActive implements membership.Store.
func (m *Memory) SetMemberActive(ctx context.Context, id int64, active bool) (*membership.Member, error) {
	return m.updateMember(ctx, id, func(mem *membership.Member) { mem.IsActive = active })
}

// AddDebt implements membership.Store.
func (m *Memory) AddDebt(ctx context.Context, id int64, delta int64) (int64, error) {
	mem, err := m.updateMember(ctx, id, func(mem *membership.Member) { mem.OutstandingDebt += delta })
	if err != nil {
		return 0, err
	}
	return mem.OutstandingDebt, nil
}

// AddIssuedCount implements membership.Store.
func (m *Memory) AddIssuedCount(ctx context.Context, id int64, delta int64) (int64, error) {
	mem, err := m.updateMember(ctx, id, func(mem *membership.Member) { mem.BooksIssued += delta })
	if err != nil {
		return 0, err
	}
	return mem.BooksIssued, nil
}

// ApplySettlement implements membership.Store.
func (m *Memory) ApplySettlement(ctx context.Context, id int64, on time.Time) (int64, error) {
	var amount int64
	_, err := m.updateMember(ctx, id, func(mem *membership.Member) {
		amount = mem.OutstandingDebt
		settledOn := on
		mem.LastSettlementDate = &settledOn
		mem.LastSettledAmount = &amount
		mem.OutstandingDebt = 0
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (m *Memory) updateMember(ctx context.Context, id int64, apply func(*membership.Member)) (*membership.Member, error) {
	defer m.lock(ctx)()

	mem, ok := m.state.members[id]
	if !ok {
		return nil, errs.NotFoundf("member %d", id)
	}
	apply(&mem)
	m.state.members[id] = mem
	return &mem, nil
}
