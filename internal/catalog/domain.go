// internal/catalog/domain.go
package catalog

import "math"

// Availability of a book id in the ledger.
const (
	StatusAvailable = "Available"
	StatusIssued    = "Issued"
)

// Book is a catalog entry. Each circulating copy needs its own ID.
type Book struct {
	ID              string `json:"book_id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn,omitempty"`
	Publisher       string `json:"publisher,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	Quantity        int    `json:"quantity"`
}

// Listing is a book with its current availability.
type Listing struct {
	Book
	Status string `json:"status"`
}

// Filter narrows a book listing. Title and Author match case-insensitive substrings;
// when both are set a book matching either one is listed.
type Filter struct {
	Title  string
	Author string
	Page   int
	Count  int
}

// Offset is the number of rows skipped before the requested page.
func (f Filter) Offset() int {
	if f.Page <= 1 || f.Count <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Count {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Count
}
