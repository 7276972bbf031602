// Package fees holds the fine and rent rates and the date arithmetic the ledger charges by.
package fees

import (
	"time"

	"libraryledger/internal/clock"
)

const (
	// DefaultFinePerDay applies when no fine settings were ever saved.
	DefaultFinePerDay int64 = 20
	// DefaultRentPerDay applies when no fine settings were ever saved.
	DefaultRentPerDay int64 = 10
)

// Rates is the fine settings singleton.
type Rates struct {
	FinePerDay int64      `json:"fine_per_day"`
	RentPerDay int64      `json:"rent_per_day"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Defaults returns the built-in fallback rates.
func Defaults() Rates {
	return Rates{FinePerDay: DefaultFinePerDay, RentPerDay: DefaultRentPerDay}
}

// Rent is the rent owed for the given number of days.
func (r Rates) Rent(days int64) int64 {
	return days * r.RentPerDay
}

// Fine is the fine owed for the given number of overdue days.
func (r Rates) Fine(overdueDays int64) int64 {
	return overdueDays * r.FinePerDay
}

// DaysBetween counts calendar days from one date to another. It is negative when to precedes from.
func DaysBetween(from, to time.Time) int64 {
	return int64(clock.Date(to).Sub(clock.Date(from)) / (24 * time.Hour))
}

// RentDays is the number of days a returned book is charged for. Same-day returns are charged one day.
func RentDays(issued, returned time.Time) int64 {
	days := DaysBetween(issued, returned)
	if days < 1 {
		return 1
	}
	return days
}

// OverdueDays is how many days asOf lies past due, zero when the book is not yet due.
func OverdueDays(due, asOf time.Time) int64 {
	days := DaysBetween(due, asOf)
	if days < 0 {
		return 0
	}
	return days
}
