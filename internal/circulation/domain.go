// internal/circulation/domain.go
package circulation

import (
	"time"
)

// Issuance statuses. Overdue is a reporting label; stored records stay Issued until returned.
const (
	StatusIssued   = "Issued"
	StatusReturned = "Returned"
	StatusOverdue  = "Overdue"
)

// IssuanceRecord is one loan of a book to a member.
type IssuanceRecord struct {
	ID          int64      `json:"issue_id"`
	BookID      string     `json:"book_id"`
	BookTitle   string     `json:"book_title"`
	BookAuthor  string     `json:"book_author"`
	MemberID    int64      `json:"member_id"`
	IssueDate   time.Time  `json:"issue_date"`
	DueDate     time.Time  `json:"due_date"`
	Status      string     `json:"status"`
	OverdueDays int64      `json:"overdue_days"`
	Fine        int64      `json:"fine"`
	ReturnedOn  *time.Time `json:"returned_on,omitempty"`
	RentCharged int64      `json:"rent_charged"`
}

// Label is the status to report: Overdue for an unreturned record that has accrued overdue days.
func (r IssuanceRecord) Label() string {
	if r.Status == StatusIssued && r.OverdueDays > 0 {
		return StatusOverdue
	}
	return r.Status
}

// IssueRequest opens an issuance. Empty Title/Author are taken from the catalog; a zero DueDate means the default loan period.
type IssueRequest struct {
	BookID   string
	Title    string
	Author   string
	MemberID int64
	DueDate  time.Time
}

// ReturnReceipt is what a return charged.
type ReturnReceipt struct {
	Record   IssuanceRecord `json:"record"`
	RentDays int64          `json:"rent_days"`
	Rent     int64          `json:"rent"`
}

// Journal event types.
const (
	EventBookIssued   = "BookIssued"
	EventBookReturned = "BookReturned"
)

// BookIssuedEvent is journaled when a book is issued.
type BookIssuedEvent struct {
	IssueID   int64     `json:"issue_id"`
	BookID    string    `json:"book_id"`
	MemberID  int64     `json:"member_id"`
	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date"`
}

// BookReturnedEvent is journaled when a book is returned.
type BookReturnedEvent struct {
	IssueID    int64     `json:"issue_id"`
	BookID     string    `json:"book_id"`
	MemberID   int64     `json:"member_id"`
	ReturnDate time.Time `json:"return_date"`
	RentDays   int64     `json:"rent_days"`
	Rent       int64     `json:"rent"`
	Debt       int64     `json:"outstanding_debt"`
}
