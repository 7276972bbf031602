package memory

import (
	"context"
	"time"

	"libraryledger/internal/circulation"
	"libraryledger/internal/errs"
)

// InsertIssuance implements circulation.Store.
func (m *Memory) InsertIssuance(ctx context.Context, rec circulation.IssuanceRecord) (*circulation.IssuanceRecord, error) {
	defer m.lock(ctx)()

	for _, have := range m.state.issuances {
		if have.BookID == rec.BookID && have.Status == circulation.StatusIssued {
			return nil, errs.ErrConflict
		}
	}
	rec.ID = int64(len(m.state.issuances) + 1)
	m.state.issuances = append(m.state.issuances, rec)
	return &rec, nil
}

// FindActiveIssuance implements circulation.Store. The store lock already serialises callers.
func (m *Memory) FindActiveIssuance(ctx context.Context, bookID string, _ bool) (*circulation.IssuanceRecord, error) {
	defer m.lock(ctx)()

	for _, rec := range m.state.issuances {
		if rec.BookID == bookID && rec.Status == circulation.StatusIssued {
			return &rec, nil
		}
	}
	return nil, errs.NotFoundf("no issued record for book %s", bookID)
}

// MarkReturned implements circulation.Store.
func (m *Memory) MarkReturned(ctx context.Context, id int64, on time.Time, rent int64) (*circulation.IssuanceRecord, error) {
	defer m.lock(ctx)()

	rec, err := m.issuance(id)
	if err != nil {
		return nil, err
	}
	returnedOn := on
	rec.Status = circulation.StatusReturned
	rec.ReturnedOn = &returnedOn
	rec.RentCharged = rent
	out := *rec
	return &out, nil
}

// OverdueForUpdate implements circulation.Store.
func (m *Memory) OverdueForUpdate(ctx context.Context, asOf time.Time) ([]circulation.IssuanceRecord, error) {
	defer m.lock(ctx)()

	var out []circulation.IssuanceRecord
	for _, rec := range m.state.issuances {
		if rec.Status == circulation.StatusIssued && rec.DueDate.Before(asOf) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// SetFine implements circulation.Store.
func (m *Memory) SetFine(ctx context.Context, id int64, overdueDays, fine int64) error {
	defer m.lock(ctx)()

	rec, err := m.issuance(id)
	if err != nil {
		return err
	}
	rec.OverdueDays = overdueDays
	rec.Fine = fine
	return nil
}

// ListIssued implements circulation.Store.
func (m *Memory) ListIssued(ctx context.Context, limit int) ([]circulation.IssuanceRecord, error) {
	defer m.lock(ctx)()

	var out []circulation.IssuanceRecord
	for _, rec := range m.state.issuances {
		if rec.Status != circulation.StatusIssued {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// issuance returns the stored record by id. Ids are dense and 1-based.
func (m *Memory) issuance(id int64) (*circulation.IssuanceRecord, error) {
	if id < 1 || id > int64(len(m.state.issuances)) {
		return nil, errs.NotFoundf("issuance %d", id)
	}
	return &m.state.issuances[id-1], nil
}
