// Package components defines the value types shared by the planner, the
// wire protocol and the local arena.
package components

// NoOwner marks a cell without a dropoff or a unit without a player.
const NoOwner = -1

// ShipyardID is the reserved dropoff id under which a player's spawn point
// is registered.
const ShipyardID = -1

// UnitKind tags the Unit variant.
type UnitKind uint8

const (
	UnitEmpty UnitKind = iota
	UnitShip
)

// Unit is the content of one UnitField cell. The zero value is an empty cell.
type Unit struct {
	Kind  UnitKind
	Owner int
	ID    int
	Cargo int
}

// Ship builds a ship unit.
func Ship(owner, id, cargo int) Unit {
	return Unit{Kind: UnitShip, Owner: owner, ID: id, Cargo: cargo}
}

// Empty reports whether the cell holds no unit.
func (u Unit) Empty() bool {
	return u.Kind == UnitEmpty
}

// PlayerStats holds authoritative per-player totals for one turn.
type PlayerStats struct {
	Score     int
	Ships     int
	Dropoffs  int
	ScoreRate float64 // smoothed per-turn score delta

	seen bool
}

// Update replaces the totals and folds the score delta into ScoreRate.
// alpha is the smoothing weight of the newest sample.
func (s *PlayerStats) Update(score, ships, dropoffs int, alpha float64) {
	delta := float64(score - s.Score)
	if !s.seen {
		delta = 0
		s.seen = true
	}
	s.ScoreRate = s.ScoreRate*(1-alpha) + delta*alpha
	s.Score = score
	s.Ships = ships
	s.Dropoffs = dropoffs
}

// Arena ECS components. The local arena stores each ship as an entity with
// a Position and a Hull.

// Position is a ship's cell in the arena.
type Position struct {
	Coord
}

// Hull carries a ship's identity and cargo.
type Hull struct {
	Owner int
	ID    int
	Cargo int
	Moved bool // set when the ship issued a move this turn
}
