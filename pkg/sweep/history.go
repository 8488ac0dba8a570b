// Package sweep maps batches of readings onto a circular history of screen
// columns, advancing in proportion to wall-clock time.
package sweep

// History is a circular buffer holding the trace row of every screen column.
// Slots never written hold 0.
type History struct {
	cols   []int
	cursor int
	height int
}

// NewHistory allocates a history for a width x height screen.
func NewHistory(width, height int) *History {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &History{
		cols:   make([]int, width),
		height: height,
	}
}

// Width returns the number of columns.
func (h *History) Width() int { return len(h.cols) }

// Height returns the number of rows a column value may address.
func (h *History) Height() int { return h.height }

// Cursor returns the next column to be overwritten.
func (h *History) Cursor() int { return h.cursor }

// At returns the row stored for column x.
func (h *History) At(x int) int { return h.cols[x] }

// Columns returns the column rows indexed by screen x. The slice is owned by
// the history and must not be modified.
func (h *History) Columns() []int { return h.cols }

// write stores row y at offset i past the cursor.
func (h *History) write(i, y int) {
	h.cols[(h.cursor+i)%len(h.cols)] = y
}

// advance moves the cursor past n written columns.
func (h *History) advance(n int) {
	h.cursor = (h.cursor + n) % len(h.cols)
}
