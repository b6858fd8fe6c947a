package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	assert.Equal(t, []int{2, 3}, Paginate(items, Page{Number: 2, Size: 2}))
	assert.Equal(t, []int{4}, Paginate(items, Page{Number: 3, Size: 2}))

	beyond := Paginate(items, Page{Number: 4, Size: 2})
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
}

func TestNewPageClamps(t *testing.T) {
	p := NewPage(0, 0)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Equal(t, 0, p.Offset())

	assert.Equal(t, 20, NewPage(3, 10).Offset())
	assert.Equal(t, []int{0, 1}, Paginate([]int{0, 1}, Page{}))
}

func TestPaginateHugePageIsEmpty(t *testing.T) {
	items := []int{1, 2, 3}

	huge := Paginate(items, Page{Number: 1 << 62, Size: 4})
	assert.NotNil(t, huge)
	assert.Empty(t, huge)
	assert.Empty(t, Paginate(items, Page{Number: math.MaxInt, Size: math.MaxInt}))
	assert.Equal(t, []int{1, 2, 3}, Paginate(items, Page{Number: 1, Size: math.MaxInt}))

	assert.Equal(t, math.MaxInt, Page{Number: 1 << 62, Size: 4}.Offset())
}
