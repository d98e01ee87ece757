package game

import (
	"fmt"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/protocol"
	"github.com/pthm-cable/fleet/systems"
)

// ShipInfo is a live ship.
type ShipInfo struct {
	ID    int
	Pos   components.Coord
	Cargo int
}

// DropoffInfo is a dropoff other than the shipyard.
type DropoffInfo struct {
	ID  int
	Pos components.Coord
}

// PlayerState is one player's authoritative state at the start of a turn.
type PlayerState struct {
	ID       int
	Score    int
	Shipyard components.Coord
	Ships    []ShipInfo
	Dropoffs []DropoffInfo
}

// Snapshot is the full game state the bot plans a turn from.
type Snapshot struct {
	Turn     int
	MaxTurns int
	Dim      components.Coord
	Halite   []int // row-major, Dim.Row*Dim.Col cells
	Players  []PlayerState
}

// Player returns the state of player id.
func (s *Snapshot) Player(id int) (*PlayerState, bool) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// BuildMaps rebuilds the resource, unit and dropoff fields from scratch.
// Shipyards are registered as dropoffs with components.ShipyardID.
func BuildMaps(s *Snapshot) *systems.Maps {
	maps := systems.NewMaps(s.Dim)
	if len(s.Halite) != s.Dim.Row*s.Dim.Col {
		panic(fmt.Sprintf("game: snapshot has %d halite cells for %v", len(s.Halite), s.Dim))
	}
	copy(maps.Resources.Cells(), s.Halite)
	for _, p := range s.Players {
		maps.Dropoffs.Set(p.ID, components.ShipyardID, p.Shipyard)
		for _, d := range p.Dropoffs {
			maps.Dropoffs.Set(p.ID, d.ID, d.Pos)
		}
		for _, sh := range p.Ships {
			maps.Units.Set(sh.Pos, components.Ship(p.ID, sh.ID, sh.Cargo))
		}
	}
	return maps
}

// TurnResult is what the bot decided for one turn.
type TurnResult struct {
	Moves       []components.Move
	Conversions []int
	Spawn       bool
}

// Commands renders the result as engine commands.
func (r TurnResult) Commands() []protocol.Command {
	out := make([]protocol.Command, 0, len(r.Moves)+len(r.Conversions)+1)
	for _, id := range r.Conversions {
		out = append(out, protocol.Convert(id))
	}
	for _, m := range r.Moves {
		out = append(out, protocol.Move(m.ID, m.Dir))
	}
	if r.Spawn {
		out = append(out, protocol.Spawn())
	}
	return out
}

// Session turns the engine's startup block and incremental frames into
// full snapshots.
type Session struct {
	MyID      int
	MaxTurns  int
	dim       components.Coord
	halite    []int
	shipyards map[int]components.Coord
}

// NewSession starts tracking a game from its startup block. When the engine
// sends no MAX_TURNS, the match length comes from cfg's arena.max_turns or,
// failing that, from the map width.
func NewSession(setup *protocol.Init, cfg *config.Config) *Session {
	maxTurns := setup.Constants.MaxTurns
	if maxTurns <= 0 {
		maxTurns = cfg.Arena.MaxTurns
	}
	if maxTurns <= 0 {
		maxTurns = config.MaxTurnsFor(setup.Dim.Col)
	}
	s := &Session{
		MyID:      setup.MyID,
		MaxTurns:  maxTurns,
		dim:       setup.Dim,
		halite:    make([]int, 0, setup.Dim.Row*setup.Dim.Col),
		shipyards: make(map[int]components.Coord, len(setup.Shipyards)),
	}
	for _, row := range setup.Halite {
		s.halite = append(s.halite, row...)
	}
	for _, y := range setup.Shipyards {
		s.shipyards[y.Player] = y.Pos
	}
	return s
}

// Apply folds a frame into the tracked state and returns the snapshot.
func (s *Session) Apply(fr *protocol.Frame) *Snapshot {
	for _, u := range fr.Updates {
		c := u.Pos.Wrap(s.dim)
		s.halite[c.Row*s.dim.Col+c.Col] = u.Halite
	}
	snap := &Snapshot{
		Turn:     fr.Turn,
		MaxTurns: s.MaxTurns,
		Dim:      s.dim,
		Halite:   append([]int(nil), s.halite...),
		Players:  make([]PlayerState, 0, len(fr.Players)),
	}
	for _, p := range fr.Players {
		ps := PlayerState{ID: p.ID, Score: p.Halite, Shipyard: s.shipyards[p.ID]}
		for _, sh := range p.Ships {
			ps.Ships = append(ps.Ships, ShipInfo{ID: sh.ID, Pos: sh.Pos, Cargo: sh.Cargo})
		}
		for _, d := range p.Dropoffs {
			ps.Dropoffs = append(ps.Dropoffs, DropoffInfo{ID: d.ID, Pos: d.Pos})
		}
		snap.Players = append(snap.Players, ps)
	}
	return snap
}

// ApplyConstants copies the engine's game rules over the configured ones.
// Zero values leave the configured value in place.
func ApplyConstants(cfg *config.Config, c protocol.Constants) {
	set := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	set(&cfg.Engine.MaxCargo, c.MaxCargo)
	set(&cfg.Engine.ShipCost, c.ShipCost)
	set(&cfg.Engine.DropoffCost, c.DropoffCost)
	set(&cfg.Engine.ExtractRatio, c.ExtractRatio)
	set(&cfg.Engine.MoveCostRatio, c.MoveCostRatio)
	set(&cfg.Engine.InitialHalite, c.InitialHalite)
	set(&cfg.Arena.MaxTurns, c.MaxTurns)
	cfg.Recompute()
}
