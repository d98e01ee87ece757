package systems

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pthm-cable/fleet/components"
)

// ScheduleInput is everything the scheduler reads besides the unit field.
type ScheduleInput struct {
	Intents []components.Intent
	Owner   int
	EndGame bool
	// Paths holds full routes by agent id. A route is followed when its
	// second waypoint is still free.
	Paths map[int][]components.Coord
}

// stepPlan is one agent's candidate directions for the turn.
type stepPlan struct {
	intent    components.Intent
	preferred []components.Direction
	fallback  []components.Direction
	free      int
}

// Schedule resolves intents into at most one step per agent so that no two
// friendly agents end the turn on the same cell. Agents with the fewest
// free neighbors choose first. Each accepted step is written to the unit
// field at once, so later agents see it. An agent that finds no acceptable
// cell stays put and gets no move.
func Schedule(in ScheduleInput, maps *Maps, rng *rand.Rand) []components.Move {
	dim := maps.Dim()
	units := maps.Units

	plans := make([]*stepPlan, 0, len(in.Intents))
	byID := make(map[int]*stepPlan, len(in.Intents))
	for _, it := range in.Intents {
		it.From, it.To = it.From.Wrap(dim), it.To.Wrap(dim)
		delta := it.From.Delta(it.To, dim)
		if delta.IsZero() {
			continue
		}
		pref, fall := splitDirections(delta)
		rng.Shuffle(len(pref), func(i, j int) { pref[i], pref[j] = pref[j], pref[i] })
		rng.Shuffle(len(fall), func(i, j int) { fall[i], fall[j] = fall[j], fall[i] })

		p := &stepPlan{intent: it, preferred: pref, fallback: fall, free: units.FreeNeighbors(it.From)}
		plans = append(plans, p)
		byID[it.ID] = p
	}
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].free < plans[j].free })

	resolved := make(map[int]bool, len(plans))
	moves := make([]components.Move, 0, len(plans))

	accept := func(id int, d components.Direction) {
		resolved[id] = true
		moves = append(moves, components.Move{ID: id, Dir: d})
	}

	for _, p := range plans {
		id, from := p.intent.ID, p.intent.From
		if resolved[id] {
			continue
		}
		if at, ok := units.Lookup(in.Owner, id); !ok || at != from {
			panic(fmt.Sprintf("systems: agent %d expected at %v, unit field has %v (found=%v)", id, from, at, ok))
		}

		// Full route first.
		if path := in.Paths[id]; len(path) >= 2 && path[0] == from {
			next := path[1].Wrap(dim)
			if d, ok := components.DirectionTo(from.Delta(next, dim)); ok && d != components.Still && !units.Occupied(next) {
				units.Move(from, next)
				accept(id, d)
				continue
			}
		}

		candidates := make([]components.Direction, 0, len(p.preferred)+len(p.fallback))
		candidates = append(candidates, p.preferred...)
		candidates = append(candidates, p.fallback...)
		for _, d := range candidates {
			to := from.Add(d.Offset()).Wrap(dim)
			if !units.Occupied(to) {
				units.Move(from, to)
				accept(id, d)
				break
			}
			if in.EndGame {
				if owner, ok := maps.Dropoffs.Owner(to); ok && owner == in.Owner {
					// Delivering through a contested cell; the mover leaves
					// the field and the occupant keeps the cell.
					units.Remove(from)
					accept(id, d)
					break
				}
			}
			if other, ok := swapPartner(units, byID, resolved, in.Owner, to, d); ok {
				units.Swap(from, to)
				accept(id, d)
				accept(other, d.Opposite())
				break
			}
		}
	}
	return moves
}

// swapPartner returns the friendly, unresolved agent on cell to that wants
// to step back along d, so both can trade places.
func swapPartner(units *UnitField, byID map[int]*stepPlan, resolved map[int]bool, owner int, to components.Coord, d components.Direction) (int, bool) {
	u := units.Get(to)
	if u.Kind != components.UnitShip || u.Owner != owner || resolved[u.ID] {
		return 0, false
	}
	other, ok := byID[u.ID]
	if !ok || other.intent.From != to {
		return 0, false
	}
	back := d.Opposite()
	for _, od := range other.preferred {
		if od == back {
			return u.ID, true
		}
	}
	return 0, false
}

// splitDirections returns the unit directions that shorten delta (at most
// one per axis) and the remaining ones.
func splitDirections(delta components.Coord) (preferred, fallback []components.Direction) {
	preferred = make([]components.Direction, 0, 2)
	fallback = make([]components.Direction, 0, 4)
	want := func(d components.Direction) bool {
		switch d {
		case components.North:
			return delta.Row < 0
		case components.South:
			return delta.Row > 0
		case components.East:
			return delta.Col > 0
		case components.West:
			return delta.Col < 0
		}
		return false
	}
	for _, d := range components.Cardinals {
		if want(d) {
			preferred = append(preferred, d)
		} else {
			fallback = append(fallback, d)
		}
	}
	return preferred, fallback
}
