package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// FromRequest reads ?page= and ?page_size=. Invalid or out-of-range values
// fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, PageSize: defaultPageSize}
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 && v <= maxPageSize {
		p.PageSize = v
	}
	return p
}

// Result is the list envelope returned by paginated endpoints.
type Result[T any] struct {
	Count      int  `json:"count"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
	Results    []T  `json:"results"`
}

// NewResult builds a Result. A nil slice is rendered as [].
func NewResult[T any](items []T, count int, p Params) Result[T] {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = (count + p.PageSize - 1) / p.PageSize
	}
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Count:      count,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
		Results:    items,
	}
}
