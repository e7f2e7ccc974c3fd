// Package listing implements the shared query surface of the listing
// endpoints: free-text search input, whitelisted sort orders and
// clamped pagination.
package listing

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Whitelist maps order parameters ("name", "-name") to SQL columns.
// Unrecognized values fall back to Default.
type Whitelist struct {
	Default string
	Columns map[string]string // field -> column expression
}

// Resolve normalizes an order parameter against the whitelist and returns
// the parameter to echo back plus the ORDER BY clause.
func (w Whitelist) Resolve(orderParam string) (param, clause string) {
	if !w.allowed(orderParam) {
		orderParam = w.Default
	}
	field := strings.TrimPrefix(orderParam, "-")
	clause = w.Columns[field]
	if strings.HasPrefix(orderParam, "-") {
		clause += " DESC"
	}
	return orderParam, clause
}

func (w Whitelist) allowed(param string) bool {
	if param == "" {
		return false
	}
	_, ok := w.Columns[strings.TrimPrefix(param, "-")]
	return ok
}

// NextOrder returns the order parameter a column header link should use:
// ascending first, then toggling direction.
func NextOrder(current, field string) string {
	if current == field {
		return "-" + field
	}
	return field
}

// OrderState reports "asc", "desc" or "" for a sortable column header.
func OrderState(current, field string) string {
	switch current {
	case field:
		return "asc"
	case "-" + field:
		return "desc"
	}
	return ""
}

// Search returns the trimmed free-text search parameter.
func Search(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("search"))
}

// PageNumber parses the page parameter, defaulting to 1.
func PageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseDate accepts the date formats the filter forms produce.
// Returns ok=false for empty or unparseable input.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EndOfDay returns the last instant of t's day, for inclusive upper-bound
// date filters.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T
	Total      int64
	Number     int
	PerPage    int
	TotalPages int
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }

// Paginate counts the query, clamps the page number into range and loads
// one page. An out-of-range page returns the nearest valid one instead of
// erroring.
func Paginate[T any](q *gorm.DB, page, perPage int) (Page[T], error) {
	result := Page[T]{Number: page, PerPage: perPage}
	if err := q.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		return result, err
	}
	result.TotalPages = int((result.Total + int64(perPage) - 1) / int64(perPage))
	if result.TotalPages < 1 {
		result.TotalPages = 1
	}
	if result.Number < 1 {
		result.Number = 1
	}
	if result.Number > result.TotalPages {
		result.Number = result.TotalPages
	}
	offset := (result.Number - 1) * perPage
	err := q.Offset(offset).Limit(perPage).Find(&result.Items).Error
	return result, err
}
