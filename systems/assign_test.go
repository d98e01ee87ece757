package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/fleet/components"
)

func TestAssignRoundTripExample(t *testing.T) {
	cfg := testConfig(t)
	maps := NewMaps(components.C(5, 5))
	maps.Resources.Set(components.C(2, 2), 1000)
	maps.Dropoffs.Set(me, components.ShipyardID, components.C(0, 0))
	place(maps, me, 1, components.C(0, 0))

	for seed := int64(0); seed < 20; seed++ {
		a := components.NewAgent(1, components.C(0, 0), 0)
		pool := NewPool(RankLocations(maps.Resources, KernelUniform, cfg.Selector.KernelSize, rand.New(rand.NewSource(seed)), 0))

		got := AssignAgentsToMine([]*components.Agent{a}, pool, maps, me, NewPolicy(cfg), cfg)
		if len(got) != 1 {
			t.Fatalf("seed %d: %d assignments, want 1", seed, len(got))
		}
		if a.Mine.Pos != components.C(2, 2) || !a.Mine.Set {
			t.Errorf("seed %d: mine = %v, want (2,2)", seed, a.Mine)
		}
		if a.Dropoff.Pos != components.C(0, 0) || !a.Dropoff.Set {
			t.Errorf("seed %d: dropoff = %v, want (0,0)", seed, a.Dropoff)
		}
		if a.Status != components.MoveToMine {
			t.Errorf("seed %d: status = %s, want MoveToMine", seed, a.Status)
		}
	}
}

func TestAssignClaimsCells(t *testing.T) {
	cfg := testConfig(t)
	maps := NewMaps(components.C(8, 8))
	maps.Resources.Set(components.C(3, 3), 900)
	maps.Resources.Set(components.C(5, 5), 600)
	maps.Dropoffs.Set(me, components.ShipyardID, components.C(0, 0))

	a := components.NewAgent(1, components.C(1, 1), 0)
	b := components.NewAgent(2, components.C(1, 2), 0)
	pool := NewPool(RankLocations(maps.Resources, KernelUniform, 1, rand.New(rand.NewSource(1)), 0))
	AssignAgentsToMine([]*components.Agent{a, b}, pool, maps, me, NewPolicy(cfg), cfg)

	if a.Mine.Pos == b.Mine.Pos {
		t.Errorf("both agents sent to %v", a.Mine.Pos)
	}
	if a.Mine.Pos != components.C(3, 3) || b.Mine.Pos != components.C(5, 5) {
		t.Errorf("mines = %v, %v, want (3,3), (5,5)", a.Mine.Pos, b.Mine.Pos)
	}
}

func TestAssignUsesNearestDropoffToMine(t *testing.T) {
	cfg := testConfig(t)
	maps := NewMaps(components.C(16, 16))
	maps.Resources.Set(components.C(9, 9), 1000)
	maps.Dropoffs.Set(me, components.ShipyardID, components.C(0, 0))
	maps.Dropoffs.Set(me, 3, components.C(8, 8))

	a := components.NewAgent(1, components.C(1, 1), 0)
	pool := NewPool(RankLocations(maps.Resources, KernelUniform, 1, rand.New(rand.NewSource(1)), 0))
	AssignAgentsToMine([]*components.Agent{a}, pool, maps, me, NewPolicy(cfg), cfg)
	if a.Dropoff.Pos != components.C(8, 8) {
		t.Errorf("dropoff = %v, want (8,8)", a.Dropoff.Pos)
	}
}

func TestEstimateProfitTransitCost(t *testing.T) {
	cfg := testConfig(t)
	res := NewResourceField(components.C(1, 10))
	res.Set(components.C(0, 5), 100)
	home := components.C(0, 0)

	// Walking home from (0,5) crosses (0,4)..(0,1); put halite on (0,2).
	res.Set(components.C(0, 2), 500)
	rich := EstimateProfit(cfg, res, home, components.C(0, 5), home, 0, 1e9)
	res.Set(components.C(0, 2), 0)
	clear := EstimateProfit(cfg, res, home, components.C(0, 5), home, 0, 1e9)
	if rich >= clear {
		t.Errorf("profit across halite %v, want below clear route %v", rich, clear)
	}
}

func TestEstimateProfitPoorMapPenalizesLongTrips(t *testing.T) {
	cfg := testConfig(t)
	res := NewResourceField(components.C(1, 20))
	home := components.C(0, 0)
	near, far := components.C(0, 2), components.C(0, 8)
	res.Set(near, 400)
	res.Set(far, 400)

	ratio := func(avg float64) float64 {
		short := EstimateProfit(cfg, res, home, near, home, 0, avg)
		long := EstimateProfit(cfg, res, home, far, home, 0, avg)
		if short <= 0 {
			t.Fatalf("short trip profit = %v at avg %v, want positive", short, avg)
		}
		return long / short
	}
	rich, poor := ratio(400), ratio(20)
	if poor >= rich {
		t.Errorf("long/short ratio = %v on a poor map, want below %v on a rich map", poor, rich)
	}
	if rich >= 1 {
		t.Errorf("long/short ratio = %v on a rich map, want below 1", rich)
	}
}

func TestStraightWalk(t *testing.T) {
	dim := components.C(6, 6)
	var got []components.Coord
	StraightWalk(components.C(0, 0), components.C(5, 2), dim, func(c components.Coord) {
		got = append(got, c)
	})
	// Short way north one row, then east two columns.
	want := []components.Coord{components.C(5, 0), components.C(5, 1)}
	if len(got) != len(want) {
		t.Fatalf("walk = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("walk[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
