package repository

import (
	"strings"

	"gorm.io/gorm"
)

// Pagination is the page/limit/sort tuple parsed by the transport layer.
// SortBy is resolved against a per-entity allow-list; client strings are
// never placed in a query field position directly.
type Pagination struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize clamps the pagination to sane bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// applySort orders the query by the allow-listed column for p.SortBy, or by
// fallback when the key is unknown or empty.
func applySort(db *gorm.DB, p Pagination, allowed map[string]string, fallback string) *gorm.DB {
	column, ok := allowed[p.SortBy]
	if !ok {
		column = fallback
	}
	direction := "desc"
	if strings.EqualFold(p.SortOrder, "asc") {
		direction = "asc"
	}
	return db.Order(column + " " + direction)
}
