// Package settlement zeroes a member's outstanding debt and records what was settled.
package settlement

import (
	"time"
)

// Receipt describes one settlement. Amount is zero when nothing was owed.
type Receipt struct {
	MemberID  int64     `json:"member_id"`
	Amount    int64     `json:"amount"`
	SettledOn time.Time `json:"settled_on"`
}

// EventDebtSettled is the journal event type of a settlement.
const EventDebtSettled = "DebtSettled"

// DebtSettledEvent is journaled for every settlement.
type DebtSettledEvent struct {
	MemberID  int64     `json:"member_id"`
	Amount    int64     `json:"amount"`
	SettledOn time.Time `json:"settled_on"`
}
