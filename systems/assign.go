package systems

import (
	"math"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
)

// Assignment records a mine handed to an agent.
type Assignment struct {
	ID      int
	Mine    components.Coord
	Dropoff components.Coord
	Profit  float64
}

// AssignAgentsToMine gives each agent a harvesting cell from the pool. For
// every agent it scans up to assign.scan_limit unclaimed candidates in rank
// order and keeps the first one that beats the best estimate so far, so
// ties go to the higher-ranked cell. The chosen cell is claimed and the
// dropoff nearest to it becomes the agent's collection point. Agents for
// which nothing yields a positive estimate are left unassigned.
func AssignAgentsToMine(agents []*components.Agent, pool *Pool, maps *Maps, owner int, policy *Policy, cfg *config.Config) []Assignment {
	avg := maps.Resources.Average()
	var out []Assignment
	for _, a := range agents {
		best := Assignment{ID: a.ID}
		found := false
		pool.Scan(cfg.Assign.ScanLimit, func(c Candidate) bool {
			if _, isDropoff := maps.Dropoffs.Owner(c.Pos); isDropoff {
				return true
			}
			home, ok := maps.Dropoffs.Nearest(owner, c.Pos)
			if !ok {
				return false
			}
			profit := EstimateProfit(cfg, maps.Resources, a.Pos, c.Pos, home, a.Cargo, avg)
			if profit > best.Profit {
				best.Mine, best.Dropoff, best.Profit = c.Pos, home, profit
				found = true
			}
			return true
		})
		if !found {
			continue
		}
		pool.Claim(best.Mine)
		policy.AssignMine(a, best.Mine, best.Dropoff)
		out = append(out, best)
	}
	return out
}

// EstimateProfit approximates the halite delivered by one trip from pos to
// mine and back to home, discounted by trip length. Every cell crossed
// strictly between the endpoints costs transit_cost_ratio of its halite;
// pos and mine are left for free. The mine yields what mining_turns of
// extraction would take. The discount exp(-distance_penalty*trip/avg)
// grows harsher as the map's average richness falls.
func EstimateProfit(cfg *config.Config, res *ResourceField, pos, mine, home components.Coord, cargo int, avg float64) float64 {
	ratio := cfg.Assign.TransitCostRatio
	held := float64(cargo)
	pay := func(c components.Coord) {
		held = math.Max(held-ratio*float64(res.Get(c)), 0)
	}

	dim := res.Dim()
	StraightWalk(pos, mine, dim, pay)

	cell := float64(res.Get(mine))
	yield := cell * (1 - math.Pow(1-cfg.Derived.ExtractFrac, float64(cfg.Assign.MiningTurns)))
	held = math.Min(held+yield, float64(cfg.Engine.MaxCargo))

	StraightWalk(mine, home, dim, pay)

	trip := pos.Dist(mine, dim) + mine.Dist(home, dim)
	return held * math.Exp(-cfg.Assign.DistancePenalty*float64(trip)/math.Max(avg, 1))
}

// StraightWalk calls fn for every cell strictly between from and to on the
// short-way route that moves along rows first, then columns.
func StraightWalk(from, to, dim components.Coord, fn func(components.Coord)) {
	d := from.Delta(to, dim)
	c := from
	stepRow, stepCol := sign(d.Row), sign(d.Col)
	for i, n := 0, absInt(d.Row)+absInt(d.Col); i < n-1; i++ {
		if c.Row != from.Row+d.Row {
			c.Row += stepRow
		} else {
			c.Col += stepCol
		}
		fn(c.Wrap(dim))
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
