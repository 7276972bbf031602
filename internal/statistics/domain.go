// Package statistics reports library-wide counters taken from one read snapshot.
package statistics

// Stats are the dashboard counters. OverdueBooks counts unreturned records past their due date.
type Stats struct {
	TotalMembers  int64 `json:"total_members"`
	ActiveMembers int64 `json:"active_members"`
	IssuedBooks   int64 `json:"issued_books"`
	ReturnedBooks int64 `json:"returned_books"`
	OverdueBooks  int64 `json:"overdue_books"`
	CatalogTitles int64 `json:"total_books"`
	CatalogCopies int64 `json:"total_copies"`
}
