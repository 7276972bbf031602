// internal/catalog/implementation.go
package catalog

import (
	"context"
	"errors"
	"math"
	"strings"

	"libraryledger/internal/errs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultListCount = 20
	maxListCount     = 100
)

// service implements the Service interface.
type service struct {
	store  Store
	log    *zap.SugaredLogger
	tracer trace.Tracer
}

// NewService creates a new catalog service instance.
func NewService(store Store, log *zap.SugaredLogger) Service {
	return &service{
		store:  store,
		log:    log.Named("catalog"),
		tracer: otel.Tracer("libraryledger/catalog"),
	}
}

// GetBook retrieves a book by its id.
func (s *service) GetBook(ctx context.Context, bookID string) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.get_book", trace.WithAttributes(attribute.String("book.id", bookID)))
	defer span.End()

	if strings.TrimSpace(bookID) == "" {
		return nil, errs.Invalidf("book_id is required")
	}
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		return nil, errs.Storage("get book", err)
	}
	return book, nil
}

// AddBook creates or replaces a catalog entry.
func (s *service) AddBook(ctx context.Context, book Book) (*Book, error) {
	book.ID = strings.TrimSpace(book.ID)
	book.Title = strings.TrimSpace(book.Title)
	switch {
	case book.ID == "":
		return nil, errs.Invalidf("book_id is required")
	case book.Title == "":
		return nil, errs.Invalidf("title is required")
	case book.Quantity < 0:
		return nil, errs.Invalidf("quantity must not be negative")
	}

	saved, err := s.store.UpsertBook(ctx, book)
	if err != nil {
		return nil, errs.Storage("upsert book", err)
	}
	s.log.Infow("book saved", "book_id", saved.ID, "quantity", saved.Quantity)
	return saved, nil
}

// List returns a page of books with their availability.
func (s *service) List(ctx context.Context, filter Filter) ([]Listing, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	switch {
	case filter.Count <= 0:
		filter.Count = defaultListCount
	case filter.Count > maxListCount:
		filter.Count = maxListCount
	}
	if filter.Page-1 > math.MaxInt/filter.Count {
		return []Listing{}, nil
	}

	books, err := s.store.ListBooks(ctx, filter)
	if err != nil {
		return nil, errs.Storage("list books", err)
	}
	return books, nil
}
