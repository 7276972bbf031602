// internal/circulation/service.go
package circulation

import (
	"context"
	"time"

	"libraryledger/internal/catalog"
	"libraryledger/internal/fees"
	"libraryledger/pkg/eventstore"
)

// Service defines the interface for the issuance ledger.
type Service interface {
	Issue(ctx context.Context, req IssueRequest) (*IssuanceRecord, error)
	Return(ctx context.Context, bookID string) (*ReturnReceipt, error)
	// ComputeOverdue recomputes overdue days and fines of unreturned records due before asOf.
	ComputeOverdue(ctx context.Context, asOf time.Time) ([]IssuanceRecord, error)
	ActiveIssuance(ctx context.Context, bookID string) (*IssuanceRecord, error)
	ListIssued(ctx context.Context, limit int) ([]IssuanceRecord, error)
}

// Store persists issuance records. WithinTx runs fn in one transaction carried by the context it passes.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	// InsertIssuance fails with errs.ErrConflict when the book already has an Issued record.
	InsertIssuance(ctx context.Context, rec IssuanceRecord) (*IssuanceRecord, error)
	FindActiveIssuance(ctx context.Context, bookID string, forUpdate bool) (*IssuanceRecord, error)
	MarkReturned(ctx context.Context, id int64, on time.Time, rent int64) (*IssuanceRecord, error)
	// OverdueForUpdate locks and returns Issued records with DueDate before asOf, ordered by id.
	OverdueForUpdate(ctx context.Context, asOf time.Time) ([]IssuanceRecord, error)
	SetFine(ctx context.Context, id int64, overdueDays, fine int64) error
	ListIssued(ctx context.Context, limit int) ([]IssuanceRecord, error)
}

// Catalog resolves book details.
type Catalog interface {
	GetBook(ctx context.Context, bookID string) (*catalog.Book, error)
}

// Members adjusts member balances.
type Members interface {
	AdjustDebt(ctx context.Context, id int64, delta int64) (int64, error)
	AdjustIssuedCount(ctx context.Context, id int64, delta int64) (int64, error)
}

// Rates provides the current fine settings.
type Rates interface {
	GetRates(ctx context.Context) (fees.Rates, error)
}

// Journal records ledger events.
type Journal interface {
	Append(ctx context.Context, streamType, streamID, eventType string, payload any) (*eventstore.Event, error)
}
