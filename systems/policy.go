package systems

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
)

// Policy drives the agent state machine. Transitions that depend only on
// the agent's own state live in a rule table evaluated by Advance; the
// planner applies the rest through AssignMine, EnterEndGame and
// DesignateFounder.
type Policy struct {
	cfg *config.Config
}

// NewPolicy creates a policy bound to cfg.
func NewPolicy(cfg *config.Config) *Policy {
	return &Policy{cfg: cfg}
}

// rule is one row of the transition table. when reports the next status
// and whether the row fires; effect runs after the status changes.
type rule struct {
	from   components.Status
	when   func(p *Policy, a *components.Agent, cell int, rng *rand.Rand) (components.Status, bool)
	effect func(p *Policy, a *components.Agent)
}

var rules = []rule{
	{
		from: components.MoveToMine,
		when: func(p *Policy, a *components.Agent, _ int, _ *rand.Rand) (components.Status, bool) {
			return components.Mining, a.Mine.Set && a.Pos == a.Mine.Pos
		},
		effect: func(p *Policy, a *components.Agent) {
			a.CooldownMine = p.cfg.Policy.CooldownMine
			a.CooldownMoveToMine = 0
		},
	},
	{
		from: components.Mining,
		when: func(p *Policy, a *components.Agent, _ int, rng *rand.Rand) (components.Status, bool) {
			if a.Cargo >= p.cfg.Policy.NearFull {
				return components.MoveToDropoff, true
			}
			if a.CooldownMine > 0 {
				return a.Status, false
			}
			return components.MoveToDropoff, rng.Float64() < BandProb(p.cfg.Policy.MiningBands, a.Cargo)
		},
	},
	{
		from: components.Mining,
		when: func(p *Policy, a *components.Agent, cell int, rng *rand.Rand) (components.Status, bool) {
			if a.CooldownMine > 0 || cell >= p.cfg.Policy.DepletionFloor {
				return a.Status, false
			}
			if rng.Float64() < p.cfg.Policy.DepletionIdleProb {
				return components.Idle, true
			}
			return components.MoveToDropoff, true
		},
	},
	{
		from: components.MoveToDropoff,
		when: func(p *Policy, a *components.Agent, _ int, _ *rand.Rand) (components.Status, bool) {
			if !a.Dropoff.Set || a.Pos != a.Dropoff.Pos {
				return a.Status, false
			}
			if !a.Mine.Set {
				return components.Idle, true
			}
			return components.MoveToMine, true
		},
		effect: func(p *Policy, a *components.Agent) {
			a.CooldownMoveToMine = p.cfg.Policy.CooldownMoveToMine
		},
	},
}

// BandProb returns the probability of the first band whose lower bound v
// reaches. Bands must be sorted by descending Min.
func BandProb(bands []config.BandConfig, v int) float64 {
	for _, b := range bands {
		if v >= b.Min {
			return b.Prob
		}
	}
	return 0
}

// Advance applies the first matching transition for the agent's status.
// cell is the halite under the agent. It reports whether the status changed.
func (p *Policy) Advance(a *components.Agent, cell int, rng *rand.Rand) bool {
	for i := range rules {
		r := &rules[i]
		if r.from != a.Status {
			continue
		}
		next, ok := r.when(p, a, cell, rng)
		if !ok {
			continue
		}
		a.Status = next
		if r.effect != nil {
			r.effect(p, a)
		}
		return true
	}
	return false
}

// Execute returns the agent's intent for this turn and ticks the cooldowns
// of its current state. It panics when the state requires a target the
// agent does not have.
func (p *Policy) Execute(a *components.Agent) components.Intent {
	in := components.Intent{ID: a.ID, From: a.Pos, To: a.Pos}
	switch a.Status {
	case components.Idle:
	case components.MoveToMine:
		in.To = mustTarget(a, a.Mine, "mine")
		a.CooldownMoveToMine--
	case components.Mining:
		in.To = mustTarget(a, a.Mine, "mine")
		a.CooldownMine--
	case components.MoveToDropoff:
		in.To = mustTarget(a, a.Dropoff, "dropoff")
		a.CooldownMine--
		a.CooldownMoveToMine--
	case components.EndGame:
		in.To = mustTarget(a, a.Dropoff, "dropoff")
	case components.CreateDropoff:
		in.To = mustTarget(a, a.CreateDropoff, "create_dropoff")
	default:
		panic(fmt.Sprintf("policy: agent %d has unknown status %d", a.ID, a.Status))
	}
	return in
}

func mustTarget(a *components.Agent, t components.Target, name string) components.Coord {
	if !t.Set {
		panic(fmt.Sprintf("policy: %s requires a %s target: %v", a.Status, name, a))
	}
	return t.Pos
}

// NeedsMine reports whether the planner should pick a new harvesting cell
// for a. Idle agents always do. Agents heading home do when they have no
// mine, or when their mine fell below the reassign floor after both
// cooldowns expired (with probability reassign_prob).
func (p *Policy) NeedsMine(a *components.Agent, res *ResourceField, rng *rand.Rand) bool {
	switch a.Status {
	case components.Idle:
		return true
	case components.MoveToDropoff:
		if !a.Mine.Set {
			return true
		}
		if a.CooldownMine > 0 || a.CooldownMoveToMine > 0 {
			return false
		}
		if res.Get(a.Mine.Pos) >= p.cfg.Policy.ReassignFloor {
			return false
		}
		return rng.Float64() < p.cfg.Policy.ReassignProb
	}
	return false
}

// AssignMine gives a its harvesting cell and collection point. An Idle
// agent starts moving; an agent heading home keeps going and picks the new
// mine up on its next trip out.
func (p *Policy) AssignMine(a *components.Agent, mine, dropoff components.Coord) {
	a.Mine = components.At(mine)
	a.Dropoff = components.At(dropoff)
	if a.Status == components.Idle {
		a.Status = components.MoveToMine
		a.CooldownMoveToMine = p.cfg.Policy.CooldownMoveToMine
	}
}

// EnterEndGame sends a to the nearest dropoff it owns.
func (p *Policy) EnterEndGame(a *components.Agent, dropoffs *DropoffField, owner int) {
	home, ok := dropoffs.Nearest(owner, a.Pos)
	if !ok {
		panic(fmt.Sprintf("policy: player %d has no dropoff for agent %d", owner, a.ID))
	}
	a.Dropoff = components.At(home)
	a.Status = components.EndGame
}

// DesignateFounder sends an Idle agent to convert target into a dropoff.
func (p *Policy) DesignateFounder(a *components.Agent, target components.Coord) bool {
	if a.Status != components.Idle {
		return false
	}
	a.CreateDropoff = components.At(target)
	a.Status = components.CreateDropoff
	return true
}

// AssignMineLocally moves a Mining agent whose cell ran dry to a nearby
// cell. Cells are visited ring by ring around the current mine and taken
// with a probability keyed by their halite band. It reports whether a new
// mine was chosen.
func (p *Policy) AssignMineLocally(a *components.Agent, maps *Maps, kernelSize int, rng *rand.Rand) bool {
	if a.Status != components.Mining || !a.Mine.Set {
		return false
	}
	if maps.Resources.Get(a.Pos) > p.cfg.Policy.LocalTrigger {
		return false
	}

	budget := kernelSize * kernelSize * p.cfg.Policy.LocalSearchFactor
	found := false
	Spiral(a.Mine.Pos, budget, func(c components.Coord) bool {
		c = c.Wrap(maps.Dim())
		if rng.Float64() >= BandProb(p.cfg.Policy.LocalBands, maps.Resources.Get(c)) {
			return true
		}
		if maps.Units.Occupied(c) {
			return true
		}
		a.Mine = components.At(c)
		a.Status = components.MoveToMine
		a.CooldownMoveToMine = p.cfg.Policy.CooldownMoveToMine
		found = true
		return false
	})
	return found
}

// Spiral visits up to n cells around center in square rings of growing
// radius, starting north-west of center and going clockwise. center itself
// is skipped. Visiting stops early when fn returns false.
func Spiral(center components.Coord, n int, fn func(components.Coord) bool) {
	visited := 0
	for r := 1; visited < n; r++ {
		// Top edge west to east, right edge north to south, bottom edge
		// east to west, left edge south to north.
		c := center.Add(components.C(-r, -r))
		legs := [4]components.Coord{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 0, Col: -1}, {Row: -1, Col: 0}}
		for _, step := range legs {
			for i := 0; i < 2*r; i++ {
				if visited >= n {
					return
				}
				visited++
				if !fn(c) {
					return
				}
				c = c.Add(step)
			}
		}
	}
}
