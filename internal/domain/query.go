package domain

import "math"

type FilterField string

const (
	FilterAny   FilterField = ""
	FilterName  FilterField = "name"
	FilterEmail FilterField = "email"
)

type SortField string

const (
	SortID        SortField = "id"
	SortName      SortField = "name"
	SortEmail     SortField = "email"
	SortCreatedAt SortField = "createdAt"
)

// Column maps the sort key to its storage column.
func (s SortField) Column() string {
	switch s {
	case SortID:
		return "id"
	case SortName:
		return "name"
	case SortEmail:
		return "email"
	default:
		return "created_at"
	}
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ListQuery is a sanitized listing request. Build it with userquery.Build.
type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	Filter    FilterField
	Sort      SortField
	Direction SortDirection
}

// Offset saturates at math.MaxInt32 instead of overflowing.
func (q ListQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt32/q.Limit {
		return math.MaxInt32
	}
	return (q.Page - 1) * q.Limit
}

func (q ListQuery) Desc() bool { return q.Direction != SortAsc }

// TotalPages is ceil(count/limit); zero rows give zero pages.
func TotalPages(count int64, limit int) int {
	if count <= 0 || limit <= 0 {
		return 0
	}
	l := int64(limit)
	return int((count + l - 1) / l)
}
