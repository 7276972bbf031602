// internal/catalog/service.go
package catalog

import (
	"context"
)

// Service defines the interface for the catalog service.
type Service interface {
	GetBook(ctx context.Context, bookID string) (*Book, error)
	AddBook(ctx context.Context, book Book) (*Book, error)
	List(ctx context.Context, filter Filter) ([]Listing, error)
}

// Store persists catalog entries.
type Store interface {
	GetBook(ctx context.Context, bookID string) (*Book, error)
	UpsertBook(ctx context.Context, book Book) (*Book, error)
	ListBooks(ctx context.Context, filter Filter) ([]Listing, error)
}
