package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"libraryledger/internal/circulation"
	"libraryledger/internal/errs"

	"github.com/jackc/pgx/v5"
)

const issuanceColumns = `issue_id, book_id, book_title, book_author, member_id, issue_date, due_date,
    status, overdue_days, fine, returned_on, rent_charged`

func scanIssuance(row pgx.Row) (*circulation.IssuanceRecord, error) {
	var r circulation.IssuanceRecord
	err := row.Scan(&r.ID, &r.BookID, &r.BookTitle, &r.BookAuthor, &r.MemberID, &r.IssueDate, &r.DueDate,
		&r.Status, &r.OverdueDays, &r.Fine, &r.ReturnedOn, &r.RentCharged)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertIssuance implements circulation.Store. The partial unique index on Issued rows turns a
// concurrent second issue of the same book into errs.ErrConflict.
func (p *Postgres) InsertIssuance(ctx context.Context, rec circulation.IssuanceRecord) (*circulation.IssuanceRecord, error) {
	const stmt = `
INSERT INTO issuances (book_id, book_title, book_author, member_id, issue_date, due_date, status, overdue_days, fine, rent_charged)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + issuanceColumns

	out, err := scanIssuance(p.q(ctx).QueryRow(ctx, stmt,
		rec.BookID, rec.BookTitle, rec.BookAuthor, rec.MemberID, rec.IssueDate, rec.DueDate,
		rec.Status, rec.OverdueDays, rec.Fine, rec.RentCharged))
	switch {
	case err == nil:
		return out, nil
	case pgCode(err) == codeUniqueViolation:
		return nil, errs.ErrConflict
	case pgCode(err) == codeForeignKeyViolation:
		return nil, errs.NotFoundf("member %d", rec.MemberID)
	default:
		return nil, errs.Storage("insert issuance", err)
	}
}

// FindActiveIssuance implements circulation.Store.
func (p *Postgres) FindActiveIssuance(ctx context.Context, bookID string, forUpdate bool) (*circulation.IssuanceRecord, error) {
	query := `SELECT ` + issuanceColumns + ` FROM issuances WHERE book_id = $1 AND status = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rec, err := scanIssuance(p.q(ctx).QueryRow(ctx, query, bookID, circulation.StatusIssued))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("no issued record for book %s", bookID)
	}
	if err != nil {
		return nil, errs.Storage("select issuance", err)
	}
	return rec, nil
}

// MarkReturned implements circulation.Store.
func (p *Postgres) MarkReturned(ctx context.Context, id int64, on time.Time, rent int64) (*circulation.IssuanceRecord, error) {
	const stmt = `
UPDATE issuances SET status = $2, returned_on = $3, rent_charged = $4
WHERE issue_id = $1
RETURNING ` + issuanceColumns

	rec, err := scanIssuance(p.q(ctx).QueryRow(ctx, stmt, id, circulation.StatusReturned, on, rent))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("issuance %d", id)
	}
	if err != nil {
		return nil, errs.Storage("update issuance", err)
	}
	return rec, nil
}

// OverdueForUpdate implements circulation.Store.
func (p *Postgres) OverdueForUpdate(ctx context.Context, asOf time.Time) ([]circulation.IssuanceRecord, error) {
	return p.listIssuances(ctx, `SELECT `+issuanceColumns+` FROM issuances
WHERE status = $1 AND due_date < $2 ORDER BY issue_id FOR UPDATE`, circulation.StatusIssued, asOf)
}

// SetFine implements circulation.Store.
func (p *Postgres) SetFine(ctx context.Context, id int64, overdueDays, fine int64) error {
	tag, err := p.q(ctx).Exec(ctx, `UPDATE issuances SET overdue_days = $2, fine = $3 WHERE issue_id = $1`,
		id, overdueDays, fine)
	if err != nil {
		return errs.Storage("update fine", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFoundf("issuance %d", id)
	}
	return nil
}

// ListIssued implements circulation.Store.
func (p *Postgres) ListIssued(ctx context.Context, limit int) ([]circulation.IssuanceRecord, error) {
	query := `SELECT ` + issuanceColumns + ` FROM issuances WHERE status = $1 ORDER BY issue_id`
	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit)
	}
	return p.listIssuances(ctx, query, circulation.StatusIssued)
}

func (p *Postgres) listIssuances(ctx context.Context, query string, args ...any) ([]circulation.IssuanceRecord, error) {
	rows, err := p.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Storage("list issuances", err)
	}
	defer rows.Close()

	var out []circulation.IssuanceRecord
	for rows.Next() {
		rec, err := scanIssuance(rows)
		if err != nil {
			return nil, errs.Storage("scan issuance", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("list issuances", err)
	}
	return out, nil
}
