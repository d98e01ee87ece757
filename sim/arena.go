package sim

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/game"
	"github.com/pthm-cable/fleet/protocol"
	"github.com/pthm-cable/fleet/systems"
	"github.com/pthm-cable/fleet/telemetry"
)

// playerState is one player's bookkeeping inside the arena.
type playerState struct {
	id       int
	score    int
	shipyard components.Coord
	dropoffs []game.DropoffInfo
}

// TurnStats counts what happened during one Step.
type TurnStats struct {
	Moves       int
	Mined       int
	Conversions int
	Spawns      int
	Collisions  int // ships destroyed
	Deposited   int
	Rejected    int // invalid commands
}

// Arena holds the full game state and applies the rules turn by turn.
// Ships live in an ECS world as Position + Hull entities.
type Arena struct {
	cfg      *config.Config
	seed     int64
	dim      components.Coord
	turn     int
	maxTurns int

	halite  *systems.ResourceField
	players []*playerState
	nextID  int

	world      *ecs.World
	shipMapper *ecs.Map2[components.Position, components.Hull]
	shipFilter *ecs.Filter2[components.Position, components.Hull]

	log *slog.Logger
}

// NewArena generates a map for cfg.Arena and places the shipyards.
func NewArena(cfg *config.Config, seed int64, logger *slog.Logger) *Arena {
	if logger == nil {
		logger = slog.Default()
	}
	dim := components.C(cfg.Arena.Height, cfg.Arena.Width)
	world := ecs.NewWorld()
	a := &Arena{
		cfg:        cfg,
		seed:       seed,
		dim:        dim,
		maxTurns:   cfg.Derived.MaxTurns,
		halite:     GenerateHalite(cfg, seed, dim, cfg.Arena.Players),
		world:      world,
		shipMapper: ecs.NewMap2[components.Position, components.Hull](world),
		shipFilter: ecs.NewFilter2[components.Position, components.Hull](world),
		log:        logger.With("seed", seed),
	}
	for i, yard := range Shipyards(dim, cfg.Arena.Players) {
		a.players = append(a.players, &playerState{id: i, score: cfg.Engine.InitialHalite, shipyard: yard})
		// Shipyards never hold halite.
		a.halite.Set(yard, 0)
	}
	return a
}

// Turn returns the number of the next turn to be played.
func (a *Arena) Turn() int { return a.turn + 1 }

// MaxTurns returns the match length.
func (a *Arena) MaxTurns() int { return a.maxTurns }

// Done reports whether every turn has been played.
func (a *Arena) Done() bool { return a.turn >= a.maxTurns }

// Dim returns (rows, cols).
func (a *Arena) Dim() components.Coord { return a.dim }

// Halite returns the live halite field.
func (a *Arena) Halite() *systems.ResourceField { return a.halite }

// NumPlayers returns the player count.
func (a *Arena) NumPlayers() int { return len(a.players) }

// Score returns player id's banked halite.
func (a *Arena) Score(id int) int { return a.players[id].score }

// Init builds the startup block for player id.
func (a *Arena) Init(id int) *protocol.Init {
	setup := &protocol.Init{
		Constants: protocol.Constants{
			MaxTurns:      a.maxTurns,
			MaxCargo:      a.cfg.Engine.MaxCargo,
			ShipCost:      a.cfg.Engine.ShipCost,
			DropoffCost:   a.cfg.Engine.DropoffCost,
			ExtractRatio:  a.cfg.Engine.ExtractRatio,
			MoveCostRatio: a.cfg.Engine.MoveCostRatio,
			InitialHalite: a.cfg.Engine.InitialHalite,
			Seed:          a.seed,
		},
		NumPlayers: len(a.players),
		MyID:       id,
		Dim:        a.dim,
		Halite:     make([][]int, a.dim.Row),
	}
	for _, p := range a.players {
		setup.Shipyards = append(setup.Shipyards, protocol.Shipyard{Player: p.id, Pos: p.shipyard})
	}
	cells := a.halite.Cells()
	for r := range setup.Halite {
		setup.Halite[r] = append([]int(nil), cells[r*a.dim.Col:(r+1)*a.dim.Col]...)
	}
	return setup
}

// Snapshot returns the state players plan the next turn from.
func (a *Arena) Snapshot() *game.Snapshot {
	s := &game.Snapshot{
		Turn:     a.turn + 1,
		MaxTurns: a.maxTurns,
		Dim:      a.dim,
		Halite:   append([]int(nil), a.halite.Cells()...),
		Players:  make([]game.PlayerState, len(a.players)),
	}
	for i, p := range a.players {
		s.Players[i] = game.PlayerState{
			ID:       p.id,
			Score:    p.score,
			Shipyard: p.shipyard,
			Dropoffs: append([]game.DropoffInfo(nil), p.dropoffs...),
		}
	}
	query := a.shipFilter.Query()
	for query.Next() {
		pos, hull := query.Get()
		ps := &s.Players[hull.Owner]
		ps.Ships = append(ps.Ships, game.ShipInfo{ID: hull.ID, Pos: pos.Coord, Cargo: hull.Cargo})
	}
	for i := range s.Players {
		sort.Slice(s.Players[i].Ships, func(x, y int) bool { return s.Players[i].Ships[x].ID < s.Players[i].Ships[y].ID })
	}
	return s
}

// ReplayFrame captures the arena for a replay file.
func (a *Arena) ReplayFrame() telemetry.ReplayFrame {
	fr := telemetry.ReplayFrame{
		Turn:   a.turn,
		Rows:   a.dim.Row,
		Cols:   a.dim.Col,
		Halite: append([]int(nil), a.halite.Cells()...),
	}
	for _, p := range a.players {
		fr.Scores = append(fr.Scores, p.score)
		fr.Dropoffs = append(fr.Dropoffs, telemetry.ReplayDropoff{
			Owner: p.id, ID: components.ShipyardID, Row: p.shipyard.Row, Col: p.shipyard.Col,
		})
		for _, d := range p.dropoffs {
			fr.Dropoffs = append(fr.Dropoffs, telemetry.ReplayDropoff{Owner: p.id, ID: d.ID, Row: d.Pos.Row, Col: d.Pos.Col})
		}
	}
	query := a.shipFilter.Query()
	for query.Next() {
		pos, hull := query.Get()
		fr.Ships = append(fr.Ships, telemetry.ReplayShip{
			Owner: hull.Owner, ID: hull.ID, Row: pos.Row, Col: pos.Col, Cargo: hull.Cargo,
		})
	}
	sort.Slice(fr.Ships, func(i, j int) bool { return fr.Ships[i].ID < fr.Ships[j].ID })
	return fr
}

// ShipCount returns the live ships of player id.
func (a *Arena) ShipCount(id int) int {
	n := 0
	query := a.shipFilter.Query()
	for query.Next() {
		_, hull := query.Get()
		if hull.Owner == id {
			n++
		}
	}
	return n
}

// dropoffOwner returns the player whose shipyard or dropoff sits on c.
func (a *Arena) dropoffOwner(c components.Coord) (int, bool) {
	for _, p := range a.players {
		if p.shipyard == c {
			return p.id, true
		}
		for _, d := range p.dropoffs {
			if d.Pos == c {
				return p.id, true
			}
		}
	}
	return components.NoOwner, false
}

// ship is a working copy of a ship entity during Step. Spawned ships have
// no entity until they survive the turn.
type ship struct {
	entity  ecs.Entity
	spawned bool
	pos     components.Coord
	hull    components.Hull
}

// Step applies one turn of commands, indexed by player id. Commands for
// ships the player does not own, duplicate commands for one ship and
// unaffordable actions are dropped.
func (a *Arena) Step(cmds [][]protocol.Command) TurnStats {
	var st TurnStats
	a.turn++

	ships := make(map[int]*ship)
	query := a.shipFilter.Query()
	for query.Next() {
		pos, hull := query.Get()
		s := &ship{entity: query.Entity(), pos: pos.Coord, hull: *hull}
		s.hull.Moved = false
		ships[hull.ID] = s
	}

	moves := make(map[int]components.Direction)
	var converts []*ship
	spawns := make([]bool, len(a.players))
	commanded := make(map[int]bool)
	for pid, list := range cmds {
		if pid >= len(a.players) {
			continue
		}
		for _, c := range list {
			if c.Kind == protocol.CmdSpawn {
				spawns[pid] = true
				continue
			}
			s, ok := ships[c.Ship]
			if !ok || s.hull.Owner != pid || commanded[c.Ship] {
				st.Rejected++
				continue
			}
			commanded[c.Ship] = true
			switch c.Kind {
			case protocol.CmdMove:
				if c.Dir != components.Still {
					moves[c.Ship] = c.Dir
				}
			case protocol.CmdConvert:
				converts = append(converts, s)
			}
		}
	}

	var removed []ecs.Entity
	for _, s := range converts {
		p := a.players[s.hull.Owner]
		if _, taken := a.dropoffOwner(s.pos); taken {
			st.Rejected++
			continue
		}
		// A negative cost banks the surplus.
		cost := a.cfg.Engine.DropoffCost - s.hull.Cargo - a.halite.Get(s.pos)
		if cost > p.score {
			st.Rejected++
			continue
		}
		p.score -= cost
		a.halite.Set(s.pos, 0)
		p.dropoffs = append(p.dropoffs, game.DropoffInfo{ID: a.nextID, Pos: s.pos})
		a.nextID++
		delete(ships, s.hull.ID)
		removed = append(removed, s.entity)
		st.Conversions++
	}

	// A ship that does not move, or cannot pay to move, mines.
	for _, id := range sortedIDs(ships) {
		s := ships[id]
		cell := a.halite.Get(s.pos)
		if d, ok := moves[id]; ok {
			cost := cell / a.cfg.Engine.MoveCostRatio
			if s.hull.Cargo >= cost {
				s.hull.Cargo -= cost
				s.pos = s.pos.Add(d.Offset()).Wrap(a.dim)
				s.hull.Moved = true
				st.Moves++
				continue
			}
		}
		take := (cell + a.cfg.Engine.ExtractRatio - 1) / a.cfg.Engine.ExtractRatio
		take = min(take, a.cfg.Engine.MaxCargo-s.hull.Cargo)
		if take > 0 {
			s.hull.Cargo += take
			a.halite.Set(s.pos, cell-take)
			st.Mined += take
		}
	}

	// Spawns land on the shipyard before collisions are resolved.
	for pid, want := range spawns {
		if !want {
			continue
		}
		p := a.players[pid]
		if p.score < a.cfg.Engine.ShipCost {
			st.Rejected++
			continue
		}
		p.score -= a.cfg.Engine.ShipCost
		ships[a.nextID] = &ship{spawned: true, pos: p.shipyard, hull: components.Hull{Owner: pid, ID: a.nextID}}
		a.nextID++
		st.Spawns++
	}

	// Collisions destroy every ship on a shared cell. The cargo goes to the
	// structure's owner or stays on the cell.
	byCell := make(map[components.Coord][]int)
	for _, id := range sortedIDs(ships) {
		c := ships[id].pos
		byCell[c] = append(byCell[c], id)
	}
	for c, ids := range byCell {
		if len(ids) < 2 {
			continue
		}
		lost := 0
		for _, id := range ids {
			s := ships[id]
			lost += s.hull.Cargo
			if !s.spawned {
				removed = append(removed, s.entity)
			}
			delete(ships, id)
			st.Collisions++
		}
		if owner, ok := a.dropoffOwner(c); ok {
			a.players[owner].score += lost
		} else {
			a.halite.Set(c, a.halite.Get(c)+lost)
		}
	}

	for _, s := range ships {
		if owner, ok := a.dropoffOwner(s.pos); ok && owner == s.hull.Owner && s.hull.Cargo > 0 {
			a.players[owner].score += s.hull.Cargo
			st.Deposited += s.hull.Cargo
			s.hull.Cargo = 0
		}
	}

	for _, e := range removed {
		a.world.RemoveEntity(e)
	}
	for _, id := range sortedIDs(ships) {
		s := ships[id]
		if s.spawned {
			pos := components.Position{Coord: s.pos}
			hull := s.hull
			a.shipMapper.NewEntity(&pos, &hull)
			continue
		}
		pos, hull := a.shipMapper.Get(s.entity)
		pos.Coord = s.pos
		*hull = s.hull
	}
	return st
}

func sortedIDs(ships map[int]*ship) []int {
	ids := make([]int, 0, len(ships))
	for id := range ships {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// spawnShip places a ship for tests and scenario setup.
func (a *Arena) spawnShip(owner int, pos components.Coord, cargo int) int {
	p := components.Position{Coord: pos.Wrap(a.dim)}
	h := components.Hull{Owner: owner, ID: a.nextID, Cargo: cargo}
	a.shipMapper.NewEntity(&p, &h)
	a.nextID++
	return h.ID
}

func (a *Arena) String() string {
	return fmt.Sprintf("arena{seed=%d dim=%v turn=%d/%d players=%d}", a.seed, a.dim, a.turn, a.maxTurns, len(a.players))
}
