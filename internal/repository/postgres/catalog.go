package postgres

import (
	"context"
	"errors"
	"strings"

	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/errs"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
)

const dialect = "postgres"

const bookColumns = `book_id, title, author, isbn, publisher, publication_year, quantity`

// GetBook implements catalog.Store.
func (p *Postgres) GetBook(ctx context.Context, bookID string) (*catalog.Book, error) {
	var b catalog.Book
	err := p.q(ctx).QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE book_id = $1`, bookID).
		Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Publisher, &b.PublicationYear, &b.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("book %s", bookID)
	}
	if err != nil {
		return nil, errs.Storage("select book", err)
	}
	return &b, nil
}

// UpsertBook implements catalog.Store.
func (p *Postgres) UpsertBook(ctx context.Context, book catalog.Book) (*catalog.Book, error) {
	const stmt = `
INSERT INTO books (` + bookColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (book_id) DO UPDATE SET
    title = EXCLUDED.title,
    author = EXCLUDED.author,
    isbn = EXCLUDED.isbn,
    publisher = EXCLUDED.publisher,
    publication_year = EXCLUDED.publication_year,
    quantity = EXCLUDED.quantity`

	_, err := p.q(ctx).Exec(ctx, stmt,
		book.ID, book.Title, book.Author, book.ISBN, book.Publisher, book.PublicationYear, book.Quantity)
	if err != nil {
		return nil, errs.Storage("upsert book", err)
	}
	return &book, nil
}

// ListBooks implements catalog.Store. A book is Issued while it has an Issued record.
func (p *Postgres) ListBooks(ctx context.Context, filter catalog.Filter) ([]catalog.Listing, error) {
	query, args, err := bookListQuery(filter).ToSQL()
	if err != nil {
		return nil, errs.Storage("build book list", err)
	}
	rows, err := p.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Storage("list books", err)
	}
	defer rows.Close()

	out := make([]catalog.Listing, 0)
	for rows.Next() {
		var l catalog.Listing
		if err := rows.Scan(&l.ID, &l.Title, &l.Author, &l.ISBN, &l.Publisher, &l.PublicationYear, &l.Quantity, &l.Status); err != nil {
			return nil, errs.Storage("scan book", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("list books", err)
	}
	return out, nil
}

func bookListQuery(filter catalog.Filter) *goqu.SelectDataset {
	ds := goqu.Dialect(dialect).
		From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("issuances").As("i"), goqu.On(
			goqu.I("i.book_id").Eq(goqu.I("b.book_id")),
			goqu.I("i.status").Eq(circulation.StatusIssued),
		)).
		Select(
			goqu.I("b.book_id"), goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.isbn"),
			goqu.I("b.publisher"), goqu.I("b.publication_year"), goqu.I("b.quantity"),
			goqu.L("CASE WHEN i.issue_id IS NULL THEN ? ELSE ? END", catalog.StatusAvailable, catalog.StatusIssued),
		).
		Order(goqu.I("b.book_id").Asc()).
		Offset(uint(filter.Offset())).
		Prepared(true)
	if filter.Count > 0 {
		ds = ds.Limit(uint(filter.Count))
	}
	var match []goqu.Expression
	if filter.Title != "" {
		match = append(match, goqu.I("b.title").ILike(likePattern(filter.Title)))
	}
	if filter.Author != "" {
		match = append(match, goqu.I("b.author").ILike(likePattern(filter.Author)))
	}
	if len(match) > 0 {
		ds = ds.Where(goqu.Or(match...))
	}
	return ds
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches text as a literal substring under ILIKE's default escape character.
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
