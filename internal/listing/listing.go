// Package listing filters, sorts and pages snapshots that were loaded in full.
package listing

import (
	"sort"
	"strings"
	"time"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page selects a window of a result set. Pages start at 1.
type Page struct {
	Page    int
	PerPage int
}

// Normalize clamps the page and its size into the supported range.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Result is a page of items plus totals over the filtered set.
type Result[T any] struct {
	Items      []T
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// Paginate returns the requested window of items.
func Paginate[T any](items []T, p Page) Result[T] {
	p = p.Normalize()
	total := len(items)
	totalPages := (total + p.PerPage - 1) / p.PerPage

	// Compare in pages so huge page numbers cannot overflow the offset.
	start := total
	if p.Page-1 < totalPages {
		start = (p.Page - 1) * p.PerPage
	}
	end := start + p.PerPage
	if end > total {
		end = total
	}

	window := make([]T, end-start)
	copy(window, items[start:end])
	return Result[T]{
		Items:      window,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: totalPages,
	}
}

// Filter returns the items for which keep is true, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Matches reports whether any field contains query, ignoring case. An empty
// query matches everything.
func Matches(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// Sort is a field name plus direction, written "field" or "-field" for descending.
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort reads "field", "-field", "field:asc" or "field:desc". Fields not in
// allowed fall back to def.
func ParseSort(raw string, def Sort, allowed ...string) Sort {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return def
	}
	s := Sort{}
	if strings.HasPrefix(raw, "-") {
		s.Desc = true
		raw = raw[1:]
	}
	if field, dir, ok := strings.Cut(raw, ":"); ok {
		raw = field
		s.Desc = dir == "desc"
	}
	for _, a := range allowed {
		if raw == a {
			s.Field = raw
			return s
		}
	}
	return def
}

// SortStable sorts a copy of items with less, reversed when desc is set. Equal
// items keep their input order in both directions.
func SortStable[T any](items []T, less func(a, b T) bool, desc bool) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// DateRange bounds a timestamp; zero bounds are open. To is inclusive.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// ParseDate accepts RFC 3339 timestamps or plain dates (YYYY-MM-DD). With
// endOfDay a plain date is moved to its last nanosecond.
func ParseDate(raw string, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
