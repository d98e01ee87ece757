package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pthm-cable/fleet/protocol"
	"github.com/pthm-cable/fleet/telemetry"
)

// MatchOptions configures a Match.
type MatchOptions struct {
	Replay *telemetry.ReplayWriter // nil = no replay
	Logger *slog.Logger
}

// PlayerResult is one player's final standing.
type PlayerResult struct {
	ID     int
	Name   string
	Score  int
	Ships  int
	Rank   int  // 1 = winner
	Failed bool // dropped out after an error
}

// Result is a finished match.
type Result struct {
	Seed    int64
	Turns   int
	Players []PlayerResult // by player id
}

// Records converts the result into matches.csv rows.
func (r Result) Records() []telemetry.MatchRecord {
	out := make([]telemetry.MatchRecord, len(r.Players))
	for i, p := range r.Players {
		out[i] = telemetry.MatchRecord{
			Seed: r.Seed, Player: p.ID, Name: p.Name,
			Score: p.Score, Ships: p.Ships, Rank: p.Rank, Turns: r.Turns,
		}
	}
	return out
}

// Winner returns the rank 1 player.
func (r Result) Winner() PlayerResult {
	for _, p := range r.Players {
		if p.Rank == 1 {
			return p
		}
	}
	return PlayerResult{}
}

// Match drives players through an arena.
type Match struct {
	arena   *Arena
	players []Player
	names   []string
	failed  []bool
	opts    MatchOptions
	log     *slog.Logger
}

// NewMatch seats players in id order and sends each its startup block.
func NewMatch(ctx context.Context, arena *Arena, players []Player, opts MatchOptions) (*Match, error) {
	if len(players) != arena.NumPlayers() {
		return nil, fmt.Errorf("match: arena has %d seats, got %d players", arena.NumPlayers(), len(players))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Match{
		arena:   arena,
		players: players,
		names:   make([]string, len(players)),
		failed:  make([]bool, len(players)),
		opts:    opts,
		log:     logger,
	}
	for id, p := range players {
		name, err := p.Setup(ctx, arena.Init(id))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("setting up player %d: %w", id, err), m.Close())
		}
		m.names[id] = name
		m.log.Info("player joined", "player", id, "name", name)
	}
	if err := opts.Replay.Write(arena.ReplayFrame()); err != nil {
		return nil, errors.Join(err, m.Close())
	}
	return m, nil
}

// Arena returns the arena being played.
func (m *Match) Arena() *Arena { return m.arena }

// Step plays one turn. A player whose Turn fails is dropped and sends no
// more commands.
func (m *Match) Step(ctx context.Context) (TurnStats, error) {
	if m.arena.Done() {
		return TurnStats{}, errors.New("match: already finished")
	}
	snap := m.arena.Snapshot()
	cmds := make([][]protocol.Command, len(m.players))
	for id, p := range m.players {
		if m.failed[id] {
			continue
		}
		list, err := p.Turn(ctx, snap)
		if err != nil {
			if ctx.Err() != nil {
				return TurnStats{}, ctx.Err()
			}
			m.failed[id] = true
			m.log.Warn("player dropped", "player", id, "turn", snap.Turn, "error", err)
			continue
		}
		cmds[id] = list
	}
	st := m.arena.Step(cmds)
	m.log.Debug("turn",
		"turn", snap.Turn,
		"moves", st.Moves,
		"mined", st.Mined,
		"spawns", st.Spawns,
		"conversions", st.Conversions,
		"collisions", st.Collisions,
		"deposited", st.Deposited,
		"rejected", st.Rejected,
	)
	if err := m.opts.Replay.Write(m.arena.ReplayFrame()); err != nil {
		return st, err
	}
	return st, nil
}

// Run plays the remaining turns and returns the result.
func (m *Match) Run(ctx context.Context) (Result, error) {
	for !m.arena.Done() {
		if _, err := m.Step(ctx); err != nil {
			return m.Result(), err
		}
	}
	res := m.Result()
	w := res.Winner()
	m.log.Info("match finished", "turns", res.Turns, "winner", w.ID, "name", w.Name, "score", w.Score)
	return res, nil
}

// Result ranks players by score, ties broken by id.
func (m *Match) Result() Result {
	res := Result{Seed: m.arena.seed, Turns: m.arena.turn}
	for id := range m.players {
		res.Players = append(res.Players, PlayerResult{
			ID:     id,
			Name:   m.names[id],
			Score:  m.arena.Score(id),
			Ships:  m.arena.ShipCount(id),
			Failed: m.failed[id],
		})
	}
	order := make([]int, len(res.Players))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return res.Players[order[i]].Score > res.Players[order[j]].Score
	})
	for rank, id := range order {
		res.Players[id].Rank = rank + 1
	}
	return res
}

// Close closes every player.
func (m *Match) Close() error {
	var errs []error
	for _, p := range m.players {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

// Play runs a whole match and closes the players.
func Play(ctx context.Context, arena *Arena, players []Player, opts MatchOptions) (Result, error) {
	m, err := NewMatch(ctx, arena, players, opts)
	if err != nil {
		return Result{}, err
	}
	res, err := m.Run(ctx)
	return res, errors.Join(err, m.Close())
}
