// Command selfplay runs matches in the local arena between in-process bots
// and external bot binaries, and records results and replays.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/sim"
	"github.com/pthm-cable/fleet/telemetry"
)

// botFlags collects repeated -bot values.
type botFlags []string

func (b *botFlags) String() string { return strings.Join(*b, ",") }
func (b *botFlags) Set(v string) error { *b = append(*b, v); return nil }

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	opponentPath := flag.String("opponent-config", "", "Config for the other in-process seats (empty = same as -config)")
	seed := flag.Int64("seed", 0, "First map seed (0 = time-based)")
	matches := flag.Int("matches", 1, "Number of matches, seeds counting up from -seed")
	players := flag.Int("players", 0, "Seats per match: 1, 2 or 4 (0 = use config)")
	size := flag.Int("size", 0, "Map width and height (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and replays")
	replay := flag.Bool("replay", false, "Write a zstd replay per match into -output-dir")
	timeout := flag.Duration("timeout", 0, "Per-turn answer timeout for external bots (0 = engine budget)")
	var bots botFlags
	flag.Var(&bots, "bot", "External bot command line; fills seats from 0, remaining seats run in-process (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *players > 0 {
		cfg.Arena.Players = *players
	}
	if *size > 0 {
		cfg.Arena.Width, cfg.Arena.Height = *size, *size
		cfg.Arena.MaxTurns = 0
	}
	cfg.Recompute()
	oppCfg := cfg
	if *opponentPath != "" {
		if oppCfg, err = config.Load(*opponentPath); err != nil {
			slog.Error("failed to load opponent config", "error", err)
			os.Exit(1)
		}
	}
	if len(bots) > cfg.Arena.Players {
		slog.Error("more bots than seats", "bots", len(bots), "seats", cfg.Arena.Players)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Derived.LogLevel}))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting selfplay",
		"seed", rngSeed,
		"matches", *matches,
		"players", cfg.Arena.Players,
		"width", cfg.Arena.Width,
		"height", cfg.Arena.Height,
		"max_turns", cfg.Derived.MaxTurns,
		"external", len(bots),
	)

	wins := make([]int, cfg.Arena.Players)
	for i := 0; i < *matches; i++ {
		s := rngSeed + int64(i)
		seats := make([]sim.Player, cfg.Arena.Players)
		for id := range seats {
			switch {
			case id < len(bots):
				seats[id] = sim.NewProcessPlayer(strings.Fields(bots[id]), *timeout, logger)
			case id == 0:
				seats[id] = sim.NewBotPlayer(cfg, "fleet", s, output, logger)
			default:
				seats[id] = sim.NewBotPlayer(oppCfg, fmt.Sprintf("fleet-%d", id), s, output, logger)
			}
		}

		var rw *telemetry.ReplayWriter
		if *replay && output != nil {
			rw, err = telemetry.NewReplayWriter(filepath.Join(output.Dir(), fmt.Sprintf("replay-%d.jsonl.zst", s)))
			if err != nil {
				slog.Error("failed to create replay", "error", err)
				os.Exit(1)
			}
		}

		start := time.Now()
		res, err := sim.Play(ctx, sim.NewArena(cfg, s, logger), seats, sim.MatchOptions{Replay: rw, Logger: logger})
		if cerr := rw.Close(); cerr != nil {
			slog.Error("failed to close replay", "error", cerr)
		}
		if err != nil {
			slog.Error("match failed", "seed", s, "error", err)
			os.Exit(1)
		}
		if err := output.WriteMatch(res.Records()); err != nil {
			slog.Error("failed to write match", "error", err)
		}

		w := res.Winner()
		wins[w.ID]++
		slog.Info("match",
			"seed", s,
			"winner", w.ID,
			"scores", scores(res),
			"elapsed", time.Since(start).Round(time.Millisecond).String(),
		)
	}
	slog.Info("selfplay finished", "wins", wins)
}

func scores(res sim.Result) []int {
	out := make([]int, len(res.Players))
	for i, p := range res.Players {
		out[i] = p.Score
	}
	return out
}
