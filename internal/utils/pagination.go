// Package utils holds paging arithmetic shared by the HTTP layer and the
// event log queries.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// not a valid int. No whitespace trimming is done.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a normalized 1-based page request.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads raw page and page size values. Missing or malformed
// values take the defaults (1 and defSize); the number is floored at 1 and
// the size is clamped to [1, maxSize].
func ParsePage(number, size string, defSize, maxSize int) Page {
	return NewPage(AtoiDefault(number, 1), AtoiDefault(size, defSize), defSize, maxSize)
}

// NewPage normalizes an already parsed page request. A non-positive size
// takes defSize.
func NewPage(number, size, defSize, maxSize int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = defSize
	}
	if size > maxSize {
		size = maxSize
	}
	if size < 1 {
		size = 1
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of rows before the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages returns how many pages of p.Size cover total rows.
func (p Page) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}
