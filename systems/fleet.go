package systems

import (
	"sort"

	"github.com/pthm-cable/fleet/components"
)

// Fleet holds the long-lived agents of one player by ship id.
type Fleet map[int]*components.Agent

// Sync refreshes the fleet from the ships the engine reported this turn.
// Known agents get their position and cargo updated, new ships join as
// Idle agents, and agents whose ship is gone are dropped. Created and
// removed ids are returned in ascending order.
func (f Fleet) Sync(ships []ShipRecord) (created, removed []int) {
	seen := make(map[int]bool, len(ships))
	for _, s := range ships {
		seen[s.ID] = true
		if a, ok := f[s.ID]; ok {
			a.Pos, a.Cargo = s.Pos, s.Cargo
			continue
		}
		f[s.ID] = components.NewAgent(s.ID, s.Pos, s.Cargo)
		created = append(created, s.ID)
	}
	for id := range f {
		if !seen[id] {
			delete(f, id)
			removed = append(removed, id)
		}
	}
	sort.Ints(created)
	sort.Ints(removed)
	return created, removed
}

// Sorted returns the agents ordered by id.
func (f Fleet) Sorted() []*components.Agent {
	out := make([]*components.Agent, 0, len(f))
	for _, a := range f {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CountByStatus tallies agents per state.
func (f Fleet) CountByStatus() map[components.Status]int {
	out := make(map[components.Status]int)
	for _, a := range f {
		out[a.Status]++
	}
	return out
}
