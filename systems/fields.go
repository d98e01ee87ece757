package systems

import (
	"fmt"
	"sort"

	"github.com/pthm-cable/fleet/components"
)

// ResourceField holds the halite amount of every cell.
type ResourceField struct {
	*Grid[int]
}

// NewResourceField allocates an all-zero resource field.
func NewResourceField(dim components.Coord) *ResourceField {
	return &ResourceField{Grid: NewGrid[int](dim)}
}

// AreaSum sums the square window of side 2*radius+1 centered at c, wrapping
// at the edges. A window wider than the grid counts wrapped cells again.
func (f *ResourceField) AreaSum(c components.Coord, radius int) int {
	sum := 0
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			sum += f.Get(components.Coord{Row: c.Row + dr, Col: c.Col + dc})
		}
	}
	return sum
}

// Total returns the halite remaining on the whole grid.
func (f *ResourceField) Total() int {
	sum := 0
	for _, v := range f.Cells() {
		sum += v
	}
	return sum
}

// Average returns the mean halite per cell.
func (f *ResourceField) Average() float64 {
	return float64(f.Total()) / float64(f.Len())
}

// ShipRecord is one entry of a player's fleet as seen on the unit field.
type ShipRecord struct {
	ID    int
	Pos   components.Coord
	Cargo int
}

// UnitField tracks unit occupancy plus an owner -> id -> coordinate index.
// The grid and the index are only mutated together through Set, Remove,
// Move and Swap.
type UnitField struct {
	grid  *Grid[components.Unit]
	index map[int]map[int]components.Coord
}

// NewUnitField allocates an empty unit field.
func NewUnitField(dim components.Coord) *UnitField {
	return &UnitField{
		grid:  NewGrid[components.Unit](dim),
		index: make(map[int]map[int]components.Coord),
	}
}

// Dim returns (rows, cols).
func (f *UnitField) Dim() components.Coord { return f.grid.Dim() }

// Get returns the unit at c.
func (f *UnitField) Get(c components.Coord) components.Unit { return f.grid.Get(c) }

// Occupied reports whether c holds any unit.
func (f *UnitField) Occupied(c components.Coord) bool { return !f.grid.Get(c).Empty() }

// Set places u at c. A ship already in c is dropped from the index, and a
// ship placed here is removed from any cell it previously occupied.
func (f *UnitField) Set(c components.Coord, u components.Unit) {
	c = c.Wrap(f.Dim())
	f.unindex(c)
	if u.Kind == components.UnitShip {
		if prev, ok := f.Lookup(u.Owner, u.ID); ok && prev != c {
			f.unindex(prev)
			f.grid.Set(prev, components.Unit{})
		}
		byID, ok := f.index[u.Owner]
		if !ok {
			byID = make(map[int]components.Coord)
			f.index[u.Owner] = byID
		}
		byID[u.ID] = c
	}
	f.grid.Set(c, u)
}

// Remove clears c and its index entry.
func (f *UnitField) Remove(c components.Coord) {
	f.unindex(c)
	f.grid.Set(c, components.Unit{})
}

// Move relocates the unit at from to to. It returns false if from is empty.
func (f *UnitField) Move(from, to components.Coord) bool {
	u := f.Get(from)
	if u.Empty() {
		return false
	}
	f.Remove(from)
	f.Set(to, u)
	return true
}

// Swap exchanges the contents of a and b.
func (f *UnitField) Swap(a, b components.Coord) {
	ua, ub := f.Get(a), f.Get(b)
	f.Remove(a)
	f.Remove(b)
	if !ua.Empty() {
		f.Set(b, ua)
	}
	if !ub.Empty() {
		f.Set(a, ub)
	}
}

// Lookup returns the indexed cell of a ship.
func (f *UnitField) Lookup(owner, id int) (components.Coord, bool) {
	c, ok := f.index[owner][id]
	return c, ok
}

// AgentsOf lists a player's ships ordered by id. An index entry that does not
// match the grid is an invariant violation and panics.
func (f *UnitField) AgentsOf(owner int) []ShipRecord {
	byID := f.index[owner]
	out := make([]ShipRecord, 0, len(byID))
	for id, c := range byID {
		u := f.grid.Get(c)
		if u.Kind != components.UnitShip || u.Owner != owner || u.ID != id {
			panic(fmt.Sprintf("systems: unit index says ship %d/%d at %v, grid holds %+v", owner, id, c, u))
		}
		out = append(out, ShipRecord{ID: id, Pos: c, Cargo: u.Cargo})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FreeNeighbors counts the unoccupied cells among the four neighbors of c.
func (f *UnitField) FreeNeighbors(c components.Coord) int {
	n := 0
	for _, d := range components.Cardinals {
		if !f.Occupied(c.Add(d.Offset())) {
			n++
		}
	}
	return n
}

func (f *UnitField) unindex(c components.Coord) {
	u := f.grid.Get(c)
	if u.Kind != components.UnitShip {
		return
	}
	if byID, ok := f.index[u.Owner]; ok {
		if at, ok := byID[u.ID]; ok && at == c.Wrap(f.Dim()) {
			delete(byID, u.ID)
		}
	}
}

// DropoffField tracks which player owns a dropoff on each cell, plus an
// owner -> dropoff id -> coordinate index.
type DropoffField struct {
	grid  *Grid[int]
	index map[int]map[int]components.Coord
}

// NewDropoffField allocates a field with no dropoffs.
func NewDropoffField(dim components.Coord) *DropoffField {
	g := NewGrid[int](dim)
	g.Fill(components.NoOwner)
	return &DropoffField{grid: g, index: make(map[int]map[int]components.Coord)}
}

// Dim returns (rows, cols).
func (f *DropoffField) Dim() components.Coord { return f.grid.Dim() }

// Set registers dropoff id of owner at c.
func (f *DropoffField) Set(owner, id int, c components.Coord) {
	c = c.Wrap(f.Dim())
	if prev := f.grid.Get(c); prev != components.NoOwner && prev != owner {
		for pid, pc := range f.index[prev] {
			if pc == c {
				delete(f.index[prev], pid)
			}
		}
	}
	f.grid.Set(c, owner)
	byID, ok := f.index[owner]
	if !ok {
		byID = make(map[int]components.Coord)
		f.index[owner] = byID
	}
	byID[id] = c
}

// Owner returns the player owning a dropoff at c.
func (f *DropoffField) Owner(c components.Coord) (int, bool) {
	o := f.grid.Get(c)
	return o, o != components.NoOwner
}

// DropoffsOf lists a player's dropoff cells, shipyard first, then by id.
func (f *DropoffField) DropoffsOf(owner int) []components.Coord {
	byID := f.index[owner]
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]components.Coord, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

// Nearest returns owner's dropoff closest to from by wrap-around L1
// distance. Ties go to the lower dropoff id.
func (f *DropoffField) Nearest(owner int, from components.Coord) (components.Coord, bool) {
	best, bestDist, found := components.Coord{}, 0, false
	for _, c := range f.DropoffsOf(owner) {
		d := from.Dist(c, f.Dim())
		if !found || d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}

// Maps is the per-turn arena: the three fields rebuilt from each snapshot.
type Maps struct {
	Resources *ResourceField
	Units     *UnitField
	Dropoffs  *DropoffField
}

// NewMaps allocates empty fields of the given dimension.
func NewMaps(dim components.Coord) *Maps {
	return &Maps{
		Resources: NewResourceField(dim),
		Units:     NewUnitField(dim),
		Dropoffs:  NewDropoffField(dim),
	}
}

// Dim returns (rows, cols).
func (m *Maps) Dim() components.Coord { return m.Resources.Dim() }
