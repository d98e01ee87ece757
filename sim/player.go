package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/game"
	"github.com/pthm-cable/fleet/protocol"
	"github.com/pthm-cable/fleet/telemetry"
)

// Player is one seat in a match.
type Player interface {
	// Setup receives the startup block and returns the player's name.
	Setup(ctx context.Context, setup *protocol.Init) (string, error)
	// Turn returns the commands for the snapshot's turn.
	Turn(ctx context.Context, s *game.Snapshot) ([]protocol.Command, error)
	Close() error
}

// BotPlayer runs a game.Bot in-process.
type BotPlayer struct {
	cfg    *config.Config
	seed   int64
	name   string
	output *telemetry.OutputManager
	log    *slog.Logger
	bot    *game.Bot
}

// NewBotPlayer creates an in-process bot. cfg is cloned on Setup so the
// engine constants do not leak between seats.
func NewBotPlayer(cfg *config.Config, name string, seed int64, output *telemetry.OutputManager, logger *slog.Logger) *BotPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &BotPlayer{cfg: cfg, seed: seed, name: name, output: output, log: logger}
}

// Setup implements Player.
func (p *BotPlayer) Setup(_ context.Context, setup *protocol.Init) (string, error) {
	cfg := p.cfg.Clone()
	game.ApplyConstants(cfg, setup.Constants)
	p.bot = game.NewBot(cfg, game.Options{
		PlayerID: setup.MyID,
		Seed:     p.seed + int64(setup.MyID),
		Logger:   p.log,
		Output:   p.output,
	})
	return p.name, nil
}

// Turn implements Player. An aborted bot turn sends no commands.
func (p *BotPlayer) Turn(_ context.Context, s *game.Snapshot) ([]protocol.Command, error) {
	if p.bot == nil {
		return nil, errors.New("bot player: Turn before Setup")
	}
	res, err := p.bot.Turn(s)
	if err != nil {
		return nil, nil
	}
	return res.Commands(), nil
}

// Bot returns the underlying bot, nil before Setup.
func (p *BotPlayer) Bot() *game.Bot { return p.bot }

// Close implements Player.
func (p *BotPlayer) Close() error { return nil }

// ProcessPlayer runs an external bot binary and talks to it over its
// stdin and stdout.
type ProcessPlayer struct {
	argv    []string
	timeout time.Duration
	log     *slog.Logger

	cmd  *exec.Cmd
	conn *protocol.EngineConn
	last []int // halite the bot has been told about
}

// NewProcessPlayer prepares argv[0] with its arguments. timeout bounds each
// read from the bot; zero means game.TurnBudget.
func NewProcessPlayer(argv []string, timeout time.Duration, logger *slog.Logger) *ProcessPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = game.TurnBudget
	}
	return &ProcessPlayer{argv: argv, timeout: timeout, log: logger}
}

// Setup implements Player.
func (p *ProcessPlayer) Setup(ctx context.Context, setup *protocol.Init) (string, error) {
	if len(p.argv) == 0 {
		return "", errors.New("process player: empty command")
	}
	p.cmd = exec.CommandContext(ctx, p.argv[0], p.argv[1:]...)
	p.cmd.Stderr = os.Stderr
	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("process player: %w", err)
	}
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("process player: %w", err)
	}
	if err := p.cmd.Start(); err != nil {
		return "", fmt.Errorf("starting %s: %w", p.argv[0], err)
	}
	p.conn = protocol.NewEngineConn(stdout, stdin)

	if err := p.conn.WriteInit(setup); err != nil {
		return "", err
	}
	for _, row := range setup.Halite {
		p.last = append(p.last, row...)
	}
	return withTimeout(ctx, p.timeout, p.conn.ReadName)
}

// Turn implements Player. Only the cells that changed since the previous
// frame are sent.
func (p *ProcessPlayer) Turn(ctx context.Context, s *game.Snapshot) ([]protocol.Command, error) {
	fr := &protocol.Frame{Turn: s.Turn}
	for _, ps := range s.Players {
		pf := protocol.PlayerFrame{ID: ps.ID, Halite: ps.Score}
		for _, sh := range ps.Ships {
			pf.Ships = append(pf.Ships, protocol.ShipFrame{ID: sh.ID, Pos: sh.Pos, Cargo: sh.Cargo})
		}
		for _, d := range ps.Dropoffs {
			pf.Dropoffs = append(pf.Dropoffs, protocol.DropoffFrame{ID: d.ID, Pos: d.Pos})
		}
		fr.Players = append(fr.Players, pf)
	}
	for i, v := range s.Halite {
		if p.last[i] != v {
			fr.Updates = append(fr.Updates, protocol.CellUpdate{Pos: coordOf(i, s.Dim.Col), Halite: v})
			p.last[i] = v
		}
	}
	if err := p.conn.WriteFrame(fr); err != nil {
		return nil, err
	}
	return withTimeout(ctx, p.timeout, p.conn.ReadCommands)
}

// Close implements Player.
func (p *ProcessPlayer) Close() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	_ = p.cmd.Process.Kill()
	err := p.cmd.Wait()
	var exit *exec.ExitError
	if errors.As(err, &exit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// withTimeout runs read in the background and gives up after d. A read
// that times out is left to fail when the process is killed.
func withTimeout[T any](ctx context.Context, d time.Duration, read func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := read()
		ch <- result{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		var zero T
		return zero, fmt.Errorf("bot did not answer within %v", d)
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func coordOf(i, cols int) components.Coord {
	return components.C(i/cols, i%cols)
}
