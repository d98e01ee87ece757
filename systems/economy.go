package systems

import (
	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
)

// IsEndGame reports whether the match has entered its final window, when
// the turns left fall to rows * endgame.window_factor or fewer.
func IsEndGame(turn, maxTurns, rows int, cfg *config.Config) bool {
	return maxTurns-turn <= int(float64(rows)*cfg.EndGame.WindowFactor)
}

// SpawnState is what the spawn decision looks at.
type SpawnState struct {
	Turn         int
	MaxTurns     int
	Score        int
	Ships        int
	TotalHalite  int
	ShipyardFree bool
	EndGame      bool
}

// ShouldSpawn decides whether to build a ship this turn. A ship is built
// when the player can afford it, the shipyard is free and the end-game has
// not started, and either the fleet is empty or there is enough halite per
// ship left early enough in the match.
func ShouldSpawn(s SpawnState, cfg *config.Config) bool {
	if s.Score <= cfg.Spawn.MinScore || s.Score < cfg.Engine.ShipCost {
		return false
	}
	if !s.ShipyardFree || s.EndGame {
		return false
	}
	if s.Ships == 0 {
		return true
	}
	perShip := float64(s.TotalHalite) / float64(s.Ships)
	return perShip > cfg.Spawn.HalitePerShip && float64(s.Turn) <= cfg.Spawn.TurnFraction*float64(s.MaxTurns)
}

// PickDropoffSite returns the best-ranked unclaimed cell that is at least
// dropoff.min_distance from every dropoff of owner and whose surrounding
// area holds at least dropoff.min_area_halite. The cell is claimed.
func PickDropoffSite(pool *Pool, maps *Maps, owner int, cfg *config.Config) (components.Coord, bool) {
	var site components.Coord
	found := false
	pool.Scan(cfg.Assign.ScanLimit, func(c Candidate) bool {
		if _, taken := maps.Dropoffs.Owner(c.Pos); taken {
			return true
		}
		if home, ok := maps.Dropoffs.Nearest(owner, c.Pos); ok && home.Dist(c.Pos, maps.Dim()) < cfg.Dropoff.MinDistance {
			return true
		}
		if maps.Resources.AreaSum(c.Pos, cfg.Dropoff.AreaRadius) < cfg.Dropoff.MinAreaHalite {
			return true
		}
		site, found = c.Pos, true
		return false
	})
	if found {
		pool.Claim(site)
	}
	return site, found
}

// WantsDropoff reports whether owner may start founding another dropoff.
func WantsDropoff(fleet Fleet, maps *Maps, owner, score int, cfg *config.Config) bool {
	if len(fleet) < cfg.Dropoff.MinShips {
		return false
	}
	// The shipyard is registered as a dropoff too.
	if len(maps.Dropoffs.DropoffsOf(owner))-1 >= cfg.Dropoff.MaxDropoffs {
		return false
	}
	if score < cfg.Engine.DropoffCost+cfg.Dropoff.Reserve {
		return false
	}
	for _, a := range fleet {
		if a.Status == components.CreateDropoff {
			return false
		}
	}
	return true
}

// NearestIdle returns the Idle agent closest to target.
func NearestIdle(fleet Fleet, target, dim components.Coord) (*components.Agent, bool) {
	var best *components.Agent
	bestDist := 0
	for _, a := range fleet.Sorted() {
		if a.Status != components.Idle {
			continue
		}
		if d := a.Pos.Dist(target, dim); best == nil || d < bestDist {
			best, bestDist = a, d
		}
	}
	return best, best != nil
}

// CanConvert reports whether a founder standing on its target can pay for
// the dropoff. The ship's cargo and the halite under it count toward the
// cost.
func CanConvert(a *components.Agent, res *ResourceField, score int, cfg *config.Config) bool {
	if a.Status != components.CreateDropoff || !a.CreateDropoff.Set || a.Pos != a.CreateDropoff.Pos {
		return false
	}
	return score+a.Cargo+res.Get(a.Pos) >= cfg.Engine.DropoffCost
}

// CanMove reports whether a can pay to leave its cell this turn. The engine
// keeps a ship that cannot pay in place, where it mines.
func CanMove(a *components.Agent, res *ResourceField, cfg *config.Config) bool {
	return a.Cargo >= res.Get(a.Pos)/cfg.Engine.MoveCostRatio
}
