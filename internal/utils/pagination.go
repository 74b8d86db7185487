// Package utils holds small helpers shared by the handlers and services.
package utils

import "strconv"

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads the page and page_size query values. Anything missing or
// unparsable falls back to page 1 and defSize; the size is kept within
// [1, maxSize] (no upper bound when maxSize <= 0).
func ParsePage(number, size string, defSize, maxSize int) Page {
	p := Page{Number: atoiOr(number, 1), Size: atoiOr(size, defSize)}
	p.Number = max(p.Number, 1)
	p.Size = max(p.Size, 1)
	if maxSize > 0 {
		p.Size = min(p.Size, maxSize)
	}
	return p
}

// Offset is the number of rows before this page.
func (p Page) Offset() int { return Offset(p.Number, p.Size) }

// Pages returns how many pages of p.Size hold total items.
func (p Page) Pages(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether another page follows p.
func (p Page) HasNext(total int64) bool { return p.Number < p.Pages(total) }

// Offset converts a 1-based page number into a row offset. Page numbers
// below 1 are treated as the first page.
func Offset(number, size int) int {
	if number < 1 || size < 1 {
		return 0
	}
	return (number - 1) * size
}

func atoiOr(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
