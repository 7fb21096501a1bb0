// Package utils provides small helpers shared across layers, independent of
// demand semantics. Pagination parsing lives here because every list surface
// (queue, contributors, boosts) clamps the same way.
package utils

import "strconv"

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty or
// unparseable. Input is taken verbatim; callers normalize whitespace first if
// they accept it.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage bounds a raw (page, pageSize) pair: page floors at 1, pageSize
// floors at 1 and is capped at max. It never rejects input; out-of-range
// values are pulled to the nearest bound so a sloppy client still gets a page.
func ClampPage(page, pageSize, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if max > 0 && pageSize > max {
		pageSize = max
	}
	return page, pageSize
}

// Offset converts a 1-based page to the row offset for a pageSize-sized page.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}
