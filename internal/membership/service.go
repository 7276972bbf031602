// internal/membership/service.go
package membership

import (
	"context"
	"time"
)

// Service defines the interface for the member registry.
type Service interface {
	Register(ctx context.Context, req NewMember) (*Member, error)
	Get(ctx context.Context, id int64) (*Member, error)
	List(ctx context.Context, req PageRequest) (*MemberPage, error)
	SetActive(ctx context.Context, id int64, active bool) (*Member, error)
	// AdjustDebt adds delta to the outstanding debt and returns the new balance.
	AdjustDebt(ctx context.Context, id int64, delta int64) (int64, error)
	// AdjustIssuedCount adds delta to the issued-books counter and returns the new count.
	AdjustIssuedCount(ctx context.Context, id int64, delta int64) (int64, error)
	// ApplySettlement records the current debt as settled on the given day, zeroes it and returns the amount.
	ApplySettlement(ctx context.Context, id int64, on time.Time) (int64, error)
}

// Store persists members. Every call joins the transaction carried by ctx, if any.
type Store interface {
	InsertMember(ctx context.Context, m Member) (*Member, error)
	GetMember(ctx context.Context, id int64) (*Member, error)
	ListMembers(ctx context.Context, offset, limit int) ([]Member, int, error)
	SetMemberActive(ctx context.Context, id int64, active bool) (*Member, error)
	AddDebt(ctx context.Context, id int64, delta int64) (int64, error)
	AddIssuedCount(ctx context.Context, id int64, delta int64) (int64, error)
	ApplySettlement(ctx context.Context, id int64, on time.Time) (int64, error)
}
