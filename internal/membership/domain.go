// internal/membership/domain.go
package membership

import (
	"strconv"
	"time"
)

// Member represents a library member and their running balance.
type Member struct {
	ID                 int64      `json:"member_id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone,omitempty"`
	IsActive           bool       `json:"is_active"`
	OutstandingDebt    int64      `json:"outstanding_debt"`
	BooksIssued        int64      `json:"books_issued"`
	JoinedOn           time.Time  `json:"membership_start_date"`
	EndsOn             time.Time  `json:"membership_end_date"`
	LastSettlementDate *time.Time `json:"last_settlement_date,omitempty"`
	LastSettledAmount  *int64     `json:"last_settled_amount,omitempty"`
}

// NewMember is the registration input. A zero EndsOn means the default membership term.
type NewMember struct {
	Name   string
	Email  string
	Phone  string
	EndsOn time.Time
}

// PageRequest selects a 1-based page of members.
type PageRequest struct {
	Page  int
	Count int
}

// MemberPage is one page of the member list.
type MemberPage struct {
	TotalMembers int      `json:"total_members"`
	TotalPages   int      `json:"total_pages"`
	CurrentPage  int      `json:"current_page"`
	Members      []Member `json:"members"`
}

// JournalStream is the journal stream type holding each member's ledger events.
const JournalStream = "member"

// StreamID is the journal stream id of a member.
func StreamID(memberID int64) string {
	return strconv.FormatInt(memberID, 10)
}
