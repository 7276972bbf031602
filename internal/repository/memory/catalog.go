package memory

import (
	"context"
	"sort"
	"strings"

	"libraryledger/internal/catalog"
	"libraryledger/internal/circulation"
	"libraryledger/internal/errs"
)

// GetBook implements catalog.Store.
func (m *Memory) GetBook(ctx context.Context, bookID string) (*catalog.Book, error) {
	defer m.lock(ctx)()

	book, ok := m.state.books[bookID]
	if !ok {
		return nil, errs.NotFoundf("book %s", bookID)
	}
	return &book, nil
}

// UpsertBook implements catalog.Store.
func (m *Memory) UpsertBook(ctx context.Context, book catalog.Book) (*catalog.Book, error) {
	defer m.lock(ctx)()

	m.state.books[book.ID] = book
	return &book, nil
}

// ListBooks implements catalog.Store.
func (m *Memory) ListBooks(ctx context.Context, filter catalog.Filter) ([]catalog.Listing, error) {
	defer m.lock(ctx)()

	issued := make(map[string]bool)
	for _, rec := range m.state.issuances {
		if rec.Status == circulation.StatusIssued {
			issued[rec.BookID] = true
		}
	}

	title := strings.ToLower(filter.Title)
	author := strings.ToLower(filter.Author)
	matched := make([]catalog.Listing, 0)
	for _, book := range m.state.books {
		if !matches(book, title, author) {
			continue
		}
		status := catalog.StatusAvailable
		if issued[book.ID] {
			status = catalog.StatusIssued
		}
		matched = append(matched, catalog.Listing{Book: book, Status: status})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	return page(matched, filter.Offset(), filter.Count), nil
}

// matches applies the title and author filters. When both are set either one is enough.
func matches(book catalog.Book, title, author string) bool {
	titleHit := title != "" && strings.Contains(strings.ToLower(book.Title), title)
	authorHit := author != "" && strings.Contains(strings.ToLower(book.Author), author)
	switch {
	case title != "" && author != "":
		return titleHit || authorHit
	case title != "":
		return titleHit
	case author != "":
		return authorHit
	}
	return true
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
