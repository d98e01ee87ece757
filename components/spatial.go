package components

// Coord is a grid cell address as (row, column). Coordinates are unbounded
// until wrapped against a grid dimension.
type Coord struct {
	Row, Col int
}

// C is shorthand for Coord{Row: row, Col: col}.
func C(row, col int) Coord {
	return Coord{Row: row, Col: col}
}

// Add returns c + o without wrapping.
func (c Coord) Add(o Coord) Coord {
	return Coord{Row: c.Row + o.Row, Col: c.Col + o.Col}
}

// Sub returns c - o without wrapping.
func (c Coord) Sub(o Coord) Coord {
	return Coord{Row: c.Row - o.Row, Col: c.Col - o.Col}
}

// Abs returns the L1 norm of c.
func (c Coord) Abs() int {
	return absInt(c.Row) + absInt(c.Col)
}

// IsZero reports whether both components are zero.
func (c Coord) IsZero() bool {
	return c.Row == 0 && c.Col == 0
}

// Wrap maps c into [0,dim.Row) x [0,dim.Col).
func (c Coord) Wrap(dim Coord) Coord {
	return Coord{Row: modInt(c.Row, dim.Row), Col: modInt(c.Col, dim.Col)}
}

// Delta returns the shortest displacement from c to to on a torus of size dim.
// Each component lies in [-dim/2, dim/2].
func (c Coord) Delta(to, dim Coord) Coord {
	d := to.Wrap(dim).Sub(c.Wrap(dim))
	return Coord{Row: shortWay(d.Row, dim.Row), Col: shortWay(d.Col, dim.Col)}
}

// Dist returns the wrap-around L1 distance between c and o.
func (c Coord) Dist(o, dim Coord) int {
	return c.Delta(o, dim).Abs()
}

// ToroidalDelta is the scalar form of Delta for a single axis of length n.
func ToroidalDelta(from, to, n int) int {
	return shortWay(modInt(to, n)-modInt(from, n), n)
}

func shortWay(d, n int) int {
	if d > n/2 {
		d -= n
	}
	if d < -n/2 {
		d += n
	}
	return d
}

func modInt(v, n int) int {
	if n <= 0 {
		return 0
	}
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
