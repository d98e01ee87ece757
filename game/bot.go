package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/systems"
	"github.com/pthm-cable/fleet/telemetry"
)

// TurnBudget is the engine's per-turn time allowance.
const TurnBudget = 2 * time.Second

// scoreRateAlpha weighs the newest score delta in PlayerStats.ScoreRate.
const scoreRateAlpha = 0.1

// Options configures a Bot.
type Options struct {
	PlayerID int
	Seed     int64
	Logger   *slog.Logger             // nil = slog.Default()
	Output   *telemetry.OutputManager // nil = no CSV output
}

// Bot plans one player's turns. It keeps the fleet's long-lived state
// between turns and rebuilds every field from the snapshot each turn.
type Bot struct {
	cfg    *config.Config
	id     int
	rng    *rand.Rand
	policy *systems.Policy
	search *systems.PathSearch
	kernel systems.KernelShape

	fleet systems.Fleet
	stats map[int]*components.PlayerStats

	perf   *telemetry.PerfCollector
	output *telemetry.OutputManager
	log    *slog.Logger

	// Last turn's planning state, for viewers.
	maps    *systems.Maps
	intents []components.Intent
	paths   map[int][]components.Coord
	endGame bool
}

// NewBot creates a bot for opts.PlayerID.
func NewBot(cfg *config.Config, opts Options) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	kernel, _ := systems.ParseKernelShape(cfg.Selector.Kernel)
	return &Bot{
		cfg:    cfg,
		id:     opts.PlayerID,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		policy: systems.NewPolicy(cfg),
		search: systems.NewPathSearch(cfg.Search.ExpansionFactor),
		kernel: kernel,
		fleet:  systems.Fleet{},
		stats:  make(map[int]*components.PlayerStats),
		perf:   telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow, TurnBudget),
		output: opts.Output,
		log:    logger.With("player", opts.PlayerID),
	}
}

// ID returns the player id the bot plays.
func (b *Bot) ID() int { return b.id }

// Turn plans one turn. An invariant violation inside the pipeline aborts
// the turn and is returned as an error; the caller should send no commands
// for that turn.
func (b *Bot) Turn(s *Snapshot) (res TurnResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn %d: %v", s.Turn, r)
			b.log.Error("turn aborted", "turn", s.Turn, "error", err)
			res = TurnResult{}
		}
	}()
	return b.turn(s), nil
}

func (b *Bot) turn(s *Snapshot) TurnResult {
	b.perf.StartTurn()

	b.perf.StartPhase(telemetry.PhaseSync)
	maps := BuildMaps(s)
	me, ok := s.Player(b.id)
	if !ok {
		panic(fmt.Sprintf("game: snapshot has no player %d", b.id))
	}
	b.updateStats(s)
	created, removed := b.fleet.Sync(maps.Units.AgentsOf(b.id))
	if len(created) > 0 || len(removed) > 0 {
		b.log.Debug("fleet changed", "turn", s.Turn, "created", created, "removed", removed)
	}

	b.perf.StartPhase(telemetry.PhaseAdvance)
	endGame := systems.IsEndGame(s.Turn, s.MaxTurns, s.Dim.Row, b.cfg)
	agents := b.fleet.Sorted()
	budget := me.Score
	var conversions []int
	for _, a := range agents {
		if endGame {
			if a.Status != components.EndGame {
				b.policy.EnterEndGame(a, maps.Dropoffs, b.id)
			}
			continue
		}
		from := a.Status
		if b.policy.Advance(a, maps.Resources.Get(a.Pos), b.rng) {
			b.log.Debug("transition", "turn", s.Turn, "agent", a.ID, "from", from.String(), "to", a.Status.String())
		}
		if b.policy.AssignMineLocally(a, maps, b.cfg.Selector.KernelSize, b.rng) {
			b.log.Debug("local mine", "turn", s.Turn, "agent", a.ID, "mine", a.Mine.Pos)
		}
		if systems.CanConvert(a, maps.Resources, budget, b.cfg) {
			budget -= max(b.cfg.Engine.DropoffCost-a.Cargo-maps.Resources.Get(a.Pos), 0)
			conversions = append(conversions, a.ID)
		}
	}

	var pool *systems.Pool
	if !endGame {
		b.perf.StartPhase(telemetry.PhaseRank)
		ranked := systems.RankLocations(maps.Resources, b.kernel, b.cfg.Selector.KernelSize, b.rng, b.cfg.Selector.CandidateLimit)
		pool = systems.NewPool(ranked)
		for _, a := range agents {
			if a.Mine.Set {
				pool.Claim(a.Mine.Pos)
			}
			if a.CreateDropoff.Set && a.Status == components.CreateDropoff {
				pool.Claim(a.CreateDropoff.Pos)
			}
		}

		b.perf.StartPhase(telemetry.PhaseAssign)
		b.planDropoff(pool, maps, budget, s.Turn)
		var needy []*components.Agent
		for _, a := range agents {
			if b.policy.NeedsMine(a, maps.Resources, b.rng) {
				needy = append(needy, a)
			}
		}
		for _, as := range systems.AssignAgentsToMine(needy, pool, maps, b.id, b.policy, b.cfg) {
			b.log.Debug("assigned", "turn", s.Turn, "agent", as.ID, "mine", as.Mine, "dropoff", as.Dropoff, "profit", as.Profit)
		}
	}

	converting := make(map[int]bool, len(conversions))
	for _, id := range conversions {
		converting[id] = true
	}
	intents := make([]components.Intent, 0, len(agents))
	for _, a := range agents {
		if converting[a.ID] {
			continue
		}
		in := b.policy.Execute(a)
		if !systems.CanMove(a, maps.Resources, b.cfg) {
			// Stuck for this turn; its cell stays taken.
			in.To = in.From
		}
		intents = append(intents, in)
	}

	b.perf.StartPhase(telemetry.PhaseSearch)
	paths := b.planPaths(intents, maps)

	b.perf.StartPhase(telemetry.PhaseSchedule)
	moves := systems.Schedule(systems.ScheduleInput{
		Intents: intents,
		Owner:   b.id,
		EndGame: endGame,
		Paths:   paths,
	}, maps, b.rng)

	b.perf.StartPhase(telemetry.PhaseEmit)
	spawn := systems.ShouldSpawn(systems.SpawnState{
		Turn:         s.Turn,
		MaxTurns:     s.MaxTurns,
		Score:        budget,
		Ships:        len(me.Ships),
		TotalHalite:  maps.Resources.Total(),
		ShipyardFree: !maps.Units.Occupied(me.Shipyard),
		EndGame:      endGame,
	}, b.cfg)

	b.maps, b.intents, b.paths, b.endGame = maps, intents, paths, endGame
	res := TurnResult{Moves: moves, Conversions: conversions, Spawn: spawn}
	elapsed := b.perf.EndTurn()
	b.report(s, maps, res, endGame, elapsed)
	return res
}

// planDropoff designates a founder when a new dropoff is affordable and a
// good site exists.
func (b *Bot) planDropoff(pool *systems.Pool, maps *systems.Maps, score, turn int) {
	if !systems.WantsDropoff(b.fleet, maps, b.id, score, b.cfg) {
		return
	}
	site, ok := systems.PickDropoffSite(pool, maps, b.id, b.cfg)
	if !ok {
		return
	}
	a, ok := systems.NearestIdle(b.fleet, site, maps.Dim())
	if !ok {
		return
	}
	if b.policy.DesignateFounder(a, site) {
		b.log.Info("dropoff founder", "turn", turn, "agent", a.ID, "site", site)
	}
}

// planPaths searches full routes for the longest trips, up to the
// per-turn path budget. Short trips are left to greedy steps.
func (b *Bot) planPaths(intents []components.Intent, maps *systems.Maps) map[int][]components.Coord {
	paths := make(map[int][]components.Coord)
	dim := maps.Dim()
	for _, in := range intents {
		if len(paths) >= b.cfg.Search.MaxPathsPerTurn {
			break
		}
		if in.From.Dist(in.To, dim) < b.cfg.Search.MinDistance {
			continue
		}
		if p := b.search.Find(in.From, in.To, maps.Units); p != nil {
			paths[in.ID] = p
		}
	}
	return paths
}

func (b *Bot) updateStats(s *Snapshot) {
	for _, p := range s.Players {
		st, ok := b.stats[p.ID]
		if !ok {
			st = &components.PlayerStats{}
			b.stats[p.ID] = st
		}
		st.Update(p.Score, len(p.Ships), len(p.Dropoffs), scoreRateAlpha)
	}
}

func (b *Bot) report(s *Snapshot, maps *systems.Maps, res TurnResult, endGame bool, elapsed time.Duration) {
	st := b.stats[b.id]
	counts := b.fleet.CountByStatus()
	b.log.Info("turn",
		"turn", s.Turn,
		"score", st.Score,
		"ships", st.Ships,
		"moves", len(res.Moves),
		"conversions", len(res.Conversions),
		"spawn", res.Spawn,
		"end_game", endGame,
		"elapsed_us", elapsed.Microseconds(),
	)

	if err := b.output.WriteTurn(telemetry.TurnRecord{
		Turn:        s.Turn,
		Player:      b.id,
		Score:       st.Score,
		ScoreRate:   st.ScoreRate,
		Ships:       st.Ships,
		Dropoffs:    st.Dropoffs,
		HaliteLeft:  maps.Resources.Total(),
		Moves:       len(res.Moves),
		Conversions: len(res.Conversions),
		Spawned:     res.Spawn,
		EndGame:     endGame,
		Idle:        counts[components.Idle],
		Mining:      counts[components.Mining],
		Returning:   counts[components.MoveToDropoff] + counts[components.EndGame],
		ElapsedUS:   elapsed.Microseconds(),
	}); err != nil {
		b.log.Error("failed to write turn", "error", err)
	}

	window := b.cfg.Telemetry.PerfCollectorWindow
	if window > 0 && s.Turn%window == 0 {
		stats := b.perf.Stats()
		b.log.Info("perf", "turn", s.Turn, "stats", stats)
		if err := b.output.WritePerf(stats, s.Turn); err != nil {
			b.log.Error("failed to write perf", "error", err)
		}
	}
}

// Stats returns the tracked stats of player id.
func (b *Bot) Stats(id int) (components.PlayerStats, bool) {
	st, ok := b.stats[id]
	if !ok {
		return components.PlayerStats{}, false
	}
	return *st, true
}

// Maps returns the fields the last turn was planned on.
func (b *Bot) Maps() *systems.Maps { return b.maps }

// EndGame reports whether the last turn ran in end-game mode.
func (b *Bot) EndGame() bool { return b.endGame }

// Agents returns the fleet ordered by id.
func (b *Bot) Agents() []*components.Agent { return b.fleet.Sorted() }

// Plan returns the previous turn's intents and routes.
func (b *Bot) Plan() ([]components.Intent, map[int][]components.Coord) {
	return b.intents, b.paths
}

// PerfStats returns the rolling turn timing.
func (b *Bot) PerfStats() telemetry.PerfStats { return b.perf.Stats() }
