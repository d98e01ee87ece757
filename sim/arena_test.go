package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/game"
	"github.com/pthm-cable/fleet/protocol"
	"github.com/pthm-cable/fleet/systems"
)

func testConfig(t *testing.T, players, size int) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Arena.Players = players
	cfg.Arena.Width, cfg.Arena.Height = size, size
	cfg.Recompute()
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flatArena returns an arena whose every cell holds v.
func flatArena(t *testing.T, v int) *Arena {
	t.Helper()
	a := NewArena(testConfig(t, 2, 16), 1, quietLogger())
	for i := range a.halite.Cells() {
		a.halite.Cells()[i] = v
	}
	return a
}

func TestGenerateHaliteSymmetric(t *testing.T) {
	for _, players := range []int{2, 4} {
		cfg := testConfig(t, players, 32)
		dim := components.C(32, 32)
		f := GenerateHalite(cfg, 7, dim, players)
		total := 0
		for r := 0; r < dim.Row; r++ {
			for c := 0; c < dim.Col; c++ {
				v := f.Get(components.C(r, c))
				total += v
				if v < 0 || v > cfg.Arena.MaxHalite {
					t.Fatalf("players %d: cell (%d,%d) = %d out of range", players, r, c, v)
				}
				if m := f.Get(components.C(r, dim.Col-1-c)); m != v {
					t.Fatalf("players %d: (%d,%d)=%d but mirror=%d", players, r, c, v, m)
				}
				if players == 4 {
					if m := f.Get(components.C(dim.Row-1-r, c)); m != v {
						t.Fatalf("players 4: (%d,%d)=%d but vertical mirror=%d", r, c, v, m)
					}
				}
			}
		}
		if total == 0 {
			t.Errorf("players %d: empty map", players)
		}
	}
}

func TestGenerateHaliteSeeded(t *testing.T) {
	cfg := testConfig(t, 2, 16)
	dim := components.C(16, 16)
	a := GenerateHalite(cfg, 3, dim, 2).Cells()
	b := GenerateHalite(cfg, 3, dim, 2).Cells()
	c := GenerateHalite(cfg, 4, dim, 2).Cells()
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different maps")
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced the same map")
	}
}

func TestShipyards(t *testing.T) {
	dim := components.C(32, 32)
	tests := []struct {
		players int
		want    []components.Coord
	}{
		{1, []components.Coord{components.C(16, 16)}},
		{2, []components.Coord{components.C(16, 8), components.C(16, 23)}},
		{4, []components.Coord{components.C(8, 8), components.C(8, 23), components.C(23, 8), components.C(23, 23)}},
	}
	for _, tt := range tests {
		if got := Shipyards(dim, tt.players); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Shipyards(%d) = %v, want %v", tt.players, got, tt.want)
		}
	}
}

func TestStepMiningAndMoveCost(t *testing.T) {
	a := flatArena(t, 100)
	miner := a.spawnShip(0, components.C(2, 2), 0)
	mover := a.spawnShip(0, components.C(5, 5), 50)
	broke := a.spawnShip(1, components.C(9, 9), 5)

	st := a.Step([][]protocol.Command{
		{protocol.Move(mover, components.East)},
		{protocol.Move(broke, components.North)},
	})

	ships := shipsByID(a)
	// ceil(100/4) = 25
	if got := ships[miner].Cargo; got != 25 {
		t.Errorf("miner cargo = %d, want 25", got)
	}
	if got := a.halite.Get(components.C(2, 2)); got != 75 {
		t.Errorf("mined cell = %d, want 75", got)
	}
	// Move cost 100/10 = 10.
	if got := ships[mover]; got.Cargo != 40 || got.Pos != components.C(5, 6) {
		t.Errorf("mover = %+v, want cargo 40 at (5,6)", got)
	}
	// 5 < 10: the move fails and the ship mines instead.
	if got := ships[broke]; got.Cargo != 30 || got.Pos != components.C(9, 9) {
		t.Errorf("broke = %+v, want cargo 30 at (9,9)", got)
	}
	if st.Moves != 1 || st.Mined != 50 {
		t.Errorf("stats = %+v, want 1 move and 50 mined", st)
	}
}

func TestStepCargoCap(t *testing.T) {
	a := flatArena(t, 400)
	id := a.spawnShip(0, components.C(3, 3), 990)
	a.Step(nil)
	if got := shipsByID(a)[id].Cargo; got != 1000 {
		t.Errorf("cargo = %d, want 1000", got)
	}
	if got := a.halite.Get(components.C(3, 3)); got != 390 {
		t.Errorf("cell = %d, want 390", got)
	}
}

func TestStepCollision(t *testing.T) {
	a := flatArena(t, 0)
	x := a.spawnShip(0, components.C(4, 4), 300)
	y := a.spawnShip(1, components.C(4, 6), 200)

	st := a.Step([][]protocol.Command{
		{protocol.Move(x, components.East)},
		{protocol.Move(y, components.West)},
	})
	if st.Collisions != 2 {
		t.Errorf("Collisions = %d, want 2", st.Collisions)
	}
	if n := a.ShipCount(0) + a.ShipCount(1); n != 0 {
		t.Errorf("%d ships survived", n)
	}
	if got := a.halite.Get(components.C(4, 5)); got != 500 {
		t.Errorf("dropped halite = %d, want 500", got)
	}
}

func TestStepSpawnAndDeposit(t *testing.T) {
	a := flatArena(t, 0)
	yard := a.players[0].shipyard
	home := a.spawnShip(0, yard.Add(components.Coord{Col: 1}), 600)

	before := a.Score(0)
	st := a.Step([][]protocol.Command{
		{protocol.Move(home, components.West)},
	})
	if st.Deposited != 600 {
		t.Errorf("Deposited = %d, want 600", st.Deposited)
	}
	if got := a.Score(0); got != before+600 {
		t.Errorf("score = %d, want %d", got, before+600)
	}

	// Spawning onto our own ship destroys both.
	st = a.Step([][]protocol.Command{{protocol.Spawn()}})
	if st.Spawns != 1 || st.Collisions != 2 {
		t.Errorf("stats = %+v, want 1 spawn and 2 collisions", st)
	}
	if got := a.Score(0); got != before+600-a.cfg.Engine.ShipCost {
		t.Errorf("score = %d after spawn, want %d", got, before+600-a.cfg.Engine.ShipCost)
	}

	a.Step([][]protocol.Command{{protocol.Spawn()}})
	if got := a.ShipCount(0); got != 1 {
		t.Errorf("ShipCount = %d after a clean spawn, want 1", got)
	}
}

func TestStepConvert(t *testing.T) {
	a := flatArena(t, 500)
	a.players[0].score = 3000
	id := a.spawnShip(0, components.C(2, 2), 600)

	st := a.Step([][]protocol.Command{{protocol.Convert(id)}})
	if st.Conversions != 1 {
		t.Fatalf("Conversions = %d, want 1", st.Conversions)
	}
	// 4000 - 600 cargo - 500 cell
	if got := a.Score(0); got != 100 {
		t.Errorf("score = %d, want 100", got)
	}
	if got := a.halite.Get(components.C(2, 2)); got != 0 {
		t.Errorf("converted cell = %d, want 0", got)
	}
	if owner, ok := a.dropoffOwner(components.C(2, 2)); !ok || owner != 0 {
		t.Errorf("dropoffOwner = %d,%v, want 0,true", owner, ok)
	}
	snap := a.Snapshot()
	if len(snap.Players[0].Dropoffs) != 1 || len(snap.Players[0].Ships) != 0 {
		t.Errorf("player 0 = %+v, want one dropoff and no ships", snap.Players[0])
	}

	poor := a.spawnShip(0, components.C(7, 7), 0)
	st = a.Step([][]protocol.Command{{protocol.Convert(poor)}})
	if st.Conversions != 0 || st.Rejected != 1 {
		t.Errorf("stats = %+v, want the unaffordable conversion rejected", st)
	}
}

func TestStepRejectsForeignAndDuplicateCommands(t *testing.T) {
	a := flatArena(t, 0)
	mine := a.spawnShip(0, components.C(1, 1), 0)
	theirs := a.spawnShip(1, components.C(8, 8), 0)

	st := a.Step([][]protocol.Command{
		{protocol.Move(mine, components.South), protocol.Move(mine, components.North), protocol.Move(theirs, components.East)},
		nil,
	})
	if st.Rejected != 2 {
		t.Errorf("Rejected = %d, want 2", st.Rejected)
	}
	ships := shipsByID(a)
	if ships[mine].Pos != components.C(2, 1) {
		t.Errorf("own ship at %v, want (2,1)", ships[mine].Pos)
	}
	if ships[theirs].Pos != components.C(8, 8) {
		t.Errorf("enemy ship moved to %v", ships[theirs].Pos)
	}
}

func TestMatchBots(t *testing.T) {
	cfg := testConfig(t, 2, 16)
	cfg.Arena.MaxTurns = 80
	cfg.Recompute()

	initial := NewArena(cfg, 11, quietLogger()).Halite().Total()
	var arena *Arena
	run := func() Result {
		arena = NewArena(cfg, 11, quietLogger())
		players := []Player{
			NewBotPlayer(cfg, "a", 1, nil, quietLogger()),
			NewBotPlayer(cfg, "b", 2, nil, quietLogger()),
		}
		res, err := Play(context.Background(), arena, players, MatchOptions{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("Play: %v", err)
		}
		return res
	}
	res := run()
	if res.Turns != 80 {
		t.Errorf("Turns = %d, want 80", res.Turns)
	}
	ranks := map[int]bool{}
	for _, p := range res.Players {
		if p.Failed {
			t.Errorf("player %d failed", p.ID)
		}
		ranks[p.Rank] = true
	}
	if !ranks[1] || !ranks[2] {
		t.Errorf("ranks = %v, want 1 and 2", ranks)
	}
	if left := arena.Halite().Total(); left >= initial {
		t.Errorf("halite left = %d, want less than the initial %d", left, initial)
	}
	if again := run(); !reflect.DeepEqual(res, again) {
		t.Errorf("same seeds gave different results:\n%+v\n%+v", res, again)
	}
	if got := len(res.Records()); got != 2 {
		t.Errorf("Records = %d rows, want 2", got)
	}
}

// In a solo match every collision is the fleet running into itself, which
// may only happen on a dropoff once the end-game has started.
func TestMatchSoloFleetNeverCollides(t *testing.T) {
	cfg := testConfig(t, 1, 32)
	cfg.Arena.MaxTurns = 120
	cfg.Recompute()

	for _, seed := range []int64{1, 2, 3} {
		arena := NewArena(cfg, seed, quietLogger())
		m, err := NewMatch(context.Background(), arena, []Player{NewBotPlayer(cfg, "solo", seed, nil, quietLogger())}, MatchOptions{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("NewMatch: %v", err)
		}
		for !arena.Done() {
			turn := arena.Turn()
			st, err := m.Step(context.Background())
			if err != nil {
				t.Fatalf("seed %d turn %d: %v", seed, turn, err)
			}
			if st.Collisions > 0 && !systems.IsEndGame(turn, arena.MaxTurns(), arena.Dim().Row, cfg) {
				t.Fatalf("seed %d turn %d: %d ships destroyed before the end-game", seed, turn, st.Collisions)
			}
		}
		if err := m.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
}

type failingPlayer struct{ turns int }

func (p *failingPlayer) Setup(context.Context, *protocol.Init) (string, error) { return "flaky", nil }
func (p *failingPlayer) Close() error { return nil }
func (p *failingPlayer) Turn(context.Context, *game.Snapshot) ([]protocol.Command, error) {
	p.turns++
	return nil, errors.New("crashed")
}

func TestMatchDropsFailingPlayer(t *testing.T) {
	cfg := testConfig(t, 2, 16)
	cfg.Arena.MaxTurns = 5
	cfg.Recompute()
	flaky := &failingPlayer{}
	res, err := Play(context.Background(), NewArena(cfg, 1, quietLogger()), []Player{
		NewBotPlayer(cfg, "bot", 1, nil, quietLogger()),
		flaky,
	}, MatchOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !res.Players[1].Failed || res.Players[0].Failed {
		t.Errorf("failed flags = %v,%v, want false,true", res.Players[0].Failed, res.Players[1].Failed)
	}
	if flaky.turns != 1 {
		t.Errorf("failing player asked %d times, want 1", flaky.turns)
	}
}

func TestWithTimeout(t *testing.T) {
	got, err := withTimeout(context.Background(), time.Second, func() (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Errorf("withTimeout = %d,%v, want 7,nil", got, err)
	}
	block := make(chan struct{})
	defer close(block)
	_, err = withTimeout(context.Background(), 10*time.Millisecond, func() (int, error) {
		<-block
		return 0, nil
	})
	if err == nil {
		t.Error("withTimeout did not time out")
	}
}

func shipsByID(a *Arena) map[int]game.ShipInfo {
	out := make(map[int]game.ShipInfo)
	for _, p := range a.Snapshot().Players {
		for _, s := range p.Ships {
			out[s.ID] = s
		}
	}
	return out
}
