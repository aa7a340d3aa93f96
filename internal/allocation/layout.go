package allocation

import (
	"math"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// Layout is the fixed row-major seat grid of one hall. Seat i sits at row i/Width and
// column i%Width; the last row may be partial.
type Layout struct {
	Capacity  int
	Width     int
	neighbors [][]int
}

// NewLayout builds the grid for capacity seats with the given row width. A width below one
// falls back to ceil(sqrt(capacity)).
func NewLayout(capacity, width int) Layout {
	if capacity < 0 {
		capacity = 0
	}
	if width < 1 {
		width = DefaultWidth(capacity)
	}

	neighbors := make([][]int, capacity)
	for seat := 0; seat < capacity; seat++ {
		col := seat % width
		adj := make([]int, 0, 4)
		if col > 0 {
			adj = append(adj, seat-1)
		}
		if col < width-1 && seat+1 < capacity {
			adj = append(adj, seat+1)
		}
		if seat-width >= 0 {
			adj = append(adj, seat-width)
		}
		if seat+width < capacity {
			adj = append(adj, seat+width)
		}
		neighbors[seat] = adj
	}

	return Layout{Capacity: capacity, Width: width, neighbors: neighbors}
}

// DefaultWidth derives the row width used when neither the hall nor the engine sets one.
func DefaultWidth(capacity int) int {
	if capacity <= 1 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(capacity))))
}

// LayoutFor resolves the grid of a hall: the hall's own column count wins over the
// engine-wide row width.
func LayoutFor(hall models.Hall, rowWidth int) Layout {
	width := rowWidth
	if hall.Columns != nil && *hall.Columns > 0 {
		width = *hall.Columns
	}
	return NewLayout(hall.Capacity, width)
}

// Neighbors returns the seats sharing a grid edge with seat.
func (l Layout) Neighbors(seat int) []int {
	if seat < 0 || seat >= len(l.neighbors) {
		return nil
	}
	return l.neighbors[seat]
}

// Position returns the 0-based row and column of seat.
func (l Layout) Position(seat int) (row, col int) {
	return seat / l.Width, seat % l.Width
}

// adjacent reports whether a and b share a grid edge.
func (l Layout) adjacent(a, b int) bool {
	for _, n := range l.Neighbors(a) {
		if n == b {
			return true
		}
	}
	return false
}
