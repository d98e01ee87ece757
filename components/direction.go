package components

// Direction is a single-step move on the grid.
type Direction uint8

const (
	Still Direction = iota
	North
	South
	East
	West
)

// Cardinals lists the four unit directions in a fixed order.
var Cardinals = [4]Direction{North, South, East, West}

// Offset returns the unit displacement for d. North decreases the row.
func (d Direction) Offset() Coord {
	switch d {
	case North:
		return Coord{Row: -1}
	case South:
		return Coord{Row: 1}
	case East:
		return Coord{Col: 1}
	case West:
		return Coord{Col: -1}
	}
	return Coord{}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return Still
}

// Wire returns the single-letter engine code ("n", "s", "e", "w", "o").
func (d Direction) Wire() string {
	switch d {
	case North:
		return "n"
	case South:
		return "s"
	case East:
		return "e"
	case West:
		return "w"
	}
	return "o"
}

// ParseDirection is the inverse of Wire.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "n":
		return North, true
	case "s":
		return South, true
	case "e":
		return East, true
	case "w":
		return West, true
	case "o":
		return Still, true
	}
	return Still, false
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return "still"
}

// DirectionTo returns the direction whose offset equals delta, if any.
func DirectionTo(delta Coord) (Direction, bool) {
	for _, d := range Cardinals {
		if d.Offset() == delta {
			return d, true
		}
	}
	return Still, delta.IsZero()
}
