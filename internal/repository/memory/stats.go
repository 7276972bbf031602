package memory

import (
	"context"
	"time"

	"libraryledger/internal/circulation"
	"libraryledger/internal/statistics"
)

// Stats implements statistics.Store.
func (m *Memory) Stats(ctx context.Context, today time.Time) (*statistics.Stats, error) {
	defer m.lock(ctx)()

	var s statistics.Stats
	for _, mem := range m.state.members {
		s.TotalMembers++
		if mem.IsActive {
			s.ActiveMembers++
		}
	}
	for _, rec := range m.state.issuances {
		switch rec.Status {
		case circulation.StatusIssued:
			s.IssuedBooks++
			if rec.DueDate.Before(today) {
				s.OverdueBooks++
			}
		case circulation.StatusReturned:
			s.ReturnedBooks++
		}
	}
	for _, book := range m.state.books {
		s.CatalogTitles++
		s.CatalogCopies += int64(book.Quantity)
	}
	return &s, nil
}
