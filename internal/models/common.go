package models

// Pagination carries list paging metadata in responses.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes page counts from a total row count.
func NewPagination(page, perPage int, total int64) *Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &Pagination{Page: page, PerPage: perPage, TotalItems: total, TotalPages: pages}
}
