package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/fleet/components"
)

func TestFleetSync(t *testing.T) {
	f := Fleet{}
	created, removed := f.Sync([]ShipRecord{{ID: 4, Pos: components.C(1, 1)}, {ID: 2, Pos: components.C(0, 0)}})
	if len(created) != 2 || created[0] != 2 || created[1] != 4 || len(removed) != 0 {
		t.Fatalf("first sync created %v removed %v", created, removed)
	}
	f[4].Status = components.Mining

	created, removed = f.Sync([]ShipRecord{{ID: 4, Pos: components.C(1, 2), Cargo: 80}, {ID: 7}})
	if len(created) != 1 || created[0] != 7 {
		t.Errorf("created = %v, want [7]", created)
	}
	if len(removed) != 1 || removed[0] != 2 {
		t.Errorf("removed = %v, want [2]", removed)
	}
	if a := f[4]; a.Status != components.Mining || a.Pos != components.C(1, 2) || a.Cargo != 80 {
		t.Errorf("agent 4 = %v, want Mining at (1,2) with 80", a)
	}
	if f[7].Status != components.Idle {
		t.Errorf("new agent status = %s, want Idle", f[7].Status)
	}
}

func TestIsEndGame(t *testing.T) {
	cfg := testConfig(t)
	// 32 rows * 0.6 = 19 turns of end-game.
	tests := []struct {
		turn, max, rows int
		want            bool
	}{
		{turn: 380, max: 400, rows: 32, want: false},
		{turn: 381, max: 400, rows: 32, want: true},
		{turn: 399, max: 400, rows: 32, want: true},
		{turn: 370, max: 400, rows: 32, want: false},
	}
	for _, tt := range tests {
		if got := IsEndGame(tt.turn, tt.max, tt.rows, cfg); got != tt.want {
			t.Errorf("IsEndGame(%d, %d, %d) = %v, want %v", tt.turn, tt.max, tt.rows, got, tt.want)
		}
	}
}

func TestShouldSpawn(t *testing.T) {
	cfg := testConfig(t)
	base := SpawnState{Turn: 10, MaxTurns: 400, Score: 5000, Ships: 2, TotalHalite: 200000, ShipyardFree: true}
	tests := []struct {
		name string
		mod  func(*SpawnState)
		want bool
	}{
		{"rich early", func(*SpawnState) {}, true},
		{"poor", func(s *SpawnState) { s.Score = 1000 }, false},
		{"yard busy", func(s *SpawnState) { s.ShipyardFree = false }, false},
		{"end-game", func(s *SpawnState) { s.EndGame = true }, false},
		{"late", func(s *SpawnState) { s.Turn = 300 }, false},
		{"crowded", func(s *SpawnState) { s.Ships = 40 }, false},
		{"no ships late", func(s *SpawnState) { s.Ships, s.Turn = 0, 350 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mod(&s)
			if got := ShouldSpawn(s, cfg); got != tt.want {
				t.Errorf("ShouldSpawn(%+v) = %v, want %v", s, got, tt.want)
			}
		})
	}
}

func TestDropoffFounding(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dropoff.MinShips = 1
	cfg.Dropoff.MinDistance = 6
	cfg.Dropoff.MinAreaHalite = 3000
	maps := NewMaps(components.C(20, 20))
	maps.Dropoffs.Set(me, components.ShipyardID, components.C(0, 0))
	// Rich patch next to the shipyard and a farther one.
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			maps.Resources.Set(components.C(1+dr, 1+dc), 900)
			maps.Resources.Set(components.C(10+dr, 10+dc), 500)
		}
	}

	fleet := Fleet{}
	fleet.Sync([]ShipRecord{{ID: 1, Pos: components.C(0, 0)}, {ID: 2, Pos: components.C(8, 8)}})
	if !WantsDropoff(fleet, maps, me, 10000, cfg) {
		t.Fatal("WantsDropoff = false with a rich player")
	}
	if WantsDropoff(fleet, maps, me, 4000, cfg) {
		t.Error("WantsDropoff = true without the reserve")
	}

	pool := NewPool(RankLocations(maps.Resources, KernelUniform, 3, rand.New(rand.NewSource(1)), 0))
	site, ok := PickDropoffSite(pool, maps, me, cfg)
	if !ok || site != components.C(10, 10) {
		t.Fatalf("site = %v (%v), want (10,10)", site, ok)
	}

	a, ok := NearestIdle(fleet, site, maps.Dim())
	if !ok || a.ID != 2 {
		t.Fatalf("founder = %v, want agent 2", a)
	}
	NewPolicy(cfg).DesignateFounder(a, site)
	if WantsDropoff(fleet, maps, me, 10000, cfg) {
		t.Error("WantsDropoff = true while a founder is underway")
	}

	a.Pos = site
	if !CanConvert(a, maps.Resources, 3500, cfg) {
		t.Error("CanConvert = false, cell halite should cover the shortfall")
	}
	if CanConvert(a, maps.Resources, 3000, cfg) {
		t.Error("CanConvert = true below the dropoff cost")
	}
}

func TestCanMove(t *testing.T) {
	cfg := testConfig(t)
	res := NewResourceField(components.C(4, 4))
	res.Set(components.C(1, 1), 259)
	tests := []struct {
		name  string
		pos   components.Coord
		cargo int
		want  bool
	}{
		{"empty cell", components.C(0, 0), 0, true},
		{"short by one", components.C(1, 1), 24, false},
		{"exact cost", components.C(1, 1), 25, true},
		{"empty hold on rich cell", components.C(1, 1), 0, false},
	}
	for _, tt := range tests {
		a := components.NewAgent(1, tt.pos, tt.cargo)
		if got := CanMove(a, res, cfg); got != tt.want {
			t.Errorf("%s: CanMove = %v, want %v", tt.name, got, tt.want)
		}
	}
}
