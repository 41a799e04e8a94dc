package repository

// Page represents a simple limit/offset window for listing operations.
type Page struct {
	Limit  int
	Offset int
}

// PageResult carries a slice of items and the total count matching the query.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// OffsetForPage converts a 1-based page number into a limit/offset window.
func OffsetForPage(pageNumber, pageSize int) Page {
	if pageNumber < 1 {
		pageNumber = 1
	}
	return Page{Limit: pageSize, Offset: (pageNumber - 1) * pageSize}
}
