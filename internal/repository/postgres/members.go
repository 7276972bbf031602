package postgres

import (
	"context"
	"errors"
	"time"

	"libraryledger/internal/errs"
	"libraryledger/internal/membership"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
)

const memberColumns = `member_id, name, email, phone, is_active, outstanding_debt, books_issued,
    membership_start_date, membership_end_date, last_settlement_date, last_settled_amount`

func scanMember(row pgx.Row) (*membership.Member, error) {
	var m membership.Member
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.IsActive, &m.OutstandingDebt, &m.BooksIssued,
		&m.JoinedOn, &m.EndsOn, &m.LastSettlementDate, &m.LastSettledAmount)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertMember implements membership.Store.
func (p *Postgres) InsertMember(ctx context.Context, m membership.Member) (*membership.Member, error) {
	const stmt = `
INSERT INTO members (name, email, phone, is_active, outstanding_debt, books_issued, membership_start_date, membership_end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + memberColumns

	out, err := scanMember(p.q(ctx).QueryRow(ctx, stmt,
		m.Name, m.Email, m.Phone, m.IsActive, m.OutstandingDebt, m.BooksIssued, m.JoinedOn, m.EndsOn))
	if err != nil {
		return nil, errs.Storage("insert member", err)
	}
	return out, nil
}

// GetMember implements membership.Store.
func (p *Postgres) GetMember(ctx context.Context, id int64) (*membership.Member, error) {
	m, err := scanMember(p.q(ctx).QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE member_id = $1`, id))
	return memberResult(m, err, id, "select member")
}

// ListMembers implements membership.Store.
func (p *Postgres) ListMembers(ctx context.Context, offset, limit int) ([]membership.Member, int, error) {
	var total int
	if err := p.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM members`).Scan(&total); err != nil {
		return nil, 0, errs.Storage("count members", err)
	}

	ds := goqu.Dialect(dialect).
		From("members").
		Select(goqu.L(memberColumns)).
		Order(goqu.I("member_id").Asc()).
		Offset(uint(offset)).
		Prepared(true)
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, errs.Storage("build member list", err)
	}

	rows, err := p.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errs.Storage("list members", err)
	}
	defer rows.Close()

	out := make([]membership.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, errs.Storage("scan member", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Storage("list members", err)
	}
	return out, total, nil
}

// SetMemberActive implements membership.Store.
func (p *Postgres) SetMemberActive(ctx context.Context, id int64, active bool) (*membership.Member, error) {
	m, err := scanMember(p.q(ctx).QueryRow(ctx,
		`UPDATE members SET is_active = $2 WHERE member_id = $1 RETURNING `+memberColumns, id, active))
	return memberResult(m, err, id, "update member")
}

// AddDebt implements membership.Store.
func (p *Postgres) AddDebt(ctx context.Context, id int64, delta int64) (int64, error) {
	return p.addCounter(ctx, `UPDATE members SET outstanding_debt = outstanding_debt + $2
WHERE member_id = $1 RETURNING outstanding_debt`, id, delta)
}

// AddIssuedCount implements membership.Store.
func (p *Postgres) AddIssuedCount(ctx context.Context, id int64, delta int64) (int64, error) {
	return p.addCounter(ctx, `UPDATE members SET books_issued = books_issued + $2
WHERE member_id = $1 RETURNING books_issued`, id, delta)
}

// ApplySettlement implements membership.Store. SET expressions read the pre-update row, so the
// settled amount is the debt before it is zeroed.
func (p *Postgres) ApplySettlement(ctx context.Context, id int64, on time.Time) (int64, error) {
	return p.addCounter(ctx, `UPDATE members
SET last_settled_amount = outstanding_debt, last_settlement_date = $2, outstanding_debt = 0
WHERE member_id = $1 RETURNING last_settled_amount`, id, on)
}

func (p *Postgres) addCounter(ctx context.Context, stmt string, id int64, arg any) (int64, error) {
	var v int64
	err := p.q(ctx).QueryRow(ctx, stmt, id, arg).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errs.NotFoundf("member %d", id)
	}
	if err != nil {
		return 0, errs.Storage("update member", err)
	}
	return v, nil
}

func memberResult(m *membership.Member, err error, id int64, op string) (*membership.Member, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("member %d", id)
	}
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	return m, nil
}
