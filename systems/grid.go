package systems

import (
	"fmt"

	"github.com/pthm-cable/fleet/components"
)

// Grid is a rectangular row-major array addressed by wrap-around coordinates.
// Every access normalizes its coordinate, so callers may pass any Coord.
type Grid[T any] struct {
	dim   components.Coord
	cells []T
}

// NewGrid allocates a rows x cols grid of zero values.
func NewGrid[T any](dim components.Coord) *Grid[T] {
	if dim.Row <= 0 || dim.Col <= 0 {
		panic(fmt.Sprintf("systems: invalid grid dimension %v", dim))
	}
	return &Grid[T]{dim: dim, cells: make([]T, dim.Row*dim.Col)}
}

// Dim returns (rows, cols).
func (g *Grid[T]) Dim() components.Coord { return g.dim }

// Len returns the number of cells.
func (g *Grid[T]) Len() int { return len(g.cells) }

// Index returns the backing slice index of c after wrapping.
func (g *Grid[T]) Index(c components.Coord) int {
	w := c.Wrap(g.dim)
	return w.Row*g.dim.Col + w.Col
}

// CoordOf is the inverse of Index.
func (g *Grid[T]) CoordOf(i int) components.Coord {
	return components.Coord{Row: i / g.dim.Col, Col: i % g.dim.Col}
}

// Get returns the value at c.
func (g *Grid[T]) Get(c components.Coord) T {
	return g.cells[g.Index(c)]
}

// Set stores v at c.
func (g *Grid[T]) Set(c components.Coord, v T) {
	g.cells[g.Index(c)] = v
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// Cells exposes the row-major backing slice. Writes go straight to the grid.
func (g *Grid[T]) Cells() []T { return g.cells }

// Each calls fn for every cell in row-major order.
func (g *Grid[T]) Each(fn func(c components.Coord, v T)) {
	for i, v := range g.cells {
		fn(g.CoordOf(i), v)
	}
}
