package postgres

import (
	"context"
	"time"

	"libraryledger/internal/circulation"
	"libraryledger/internal/errs"
	"libraryledger/internal/statistics"

	"github.com/jackc/pgx/v5"
)

// Stats implements statistics.Store with one statement in a read-only snapshot.
func (p *Postgres) Stats(ctx context.Context, today time.Time) (*statistics.Stats, error) {
	const query = `
SELECT
    (SELECT COUNT(*) FROM members),
    (SELECT COUNT(*) FROM members WHERE is_active),
    (SELECT COUNT(*) FROM issuances WHERE status = $1),
    (SELECT COUNT(*) FROM issuances WHERE status = $2),
    (SELECT COUNT(*) FROM issuances WHERE status = $1 AND due_date < $3),
    (SELECT COUNT(*) FROM books),
    (SELECT COALESCE(SUM(quantity), 0) FROM books)`

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, errs.Storage("begin stats tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var s statistics.Stats
	err = tx.QueryRow(ctx, query, circulation.StatusIssued, circulation.StatusReturned, today).Scan(
		&s.TotalMembers, &s.ActiveMembers, &s.IssuedBooks, &s.ReturnedBooks, &s.OverdueBooks,
		&s.CatalogTitles, &s.CatalogCopies)
	if err != nil {
		return nil, errs.Storage("select stats", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Storage("commit stats tx", err)
	}
	return &s, nil
}
