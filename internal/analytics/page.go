package analytics

import "math"

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 1000

// Page selects a 1-based window of a result set.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number to at least 1 and falls back to DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the zero-based index of the first element on the page. It
// saturates at math.MaxInt instead of overflowing.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Paginate returns items[(n-1)*size : n*size]. Pages past the end are empty, never nil.
func Paginate[T any](items []T, p Page) []T {
	p = NewPage(p.Number, p.Size)
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Size < end-start {
		end = start + p.Size
	}
	return items[start:end]
}
