package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/game"
	"github.com/pthm-cable/fleet/protocol"
	"github.com/pthm-cable/fleet/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = engine game seed, else time-based)")
	logDir := flag.String("log-dir", ".", "Directory for bot-<id>.log (empty = no log file)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	name := flag.String("name", "fleet", "Bot name sent to the engine")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// stdout belongs to the engine.
	conn := protocol.NewBotConn(bufio.NewReader(os.Stdin), os.Stdout)
	setup, err := conn.ReadInit()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read init: %v\n", err)
		os.Exit(1)
	}
	game.ApplyConstants(cfg, setup.Constants)

	logger, closeLog, err := openLog(*logDir, setup.MyID, cfg.Derived.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = setup.Constants.Seed
	}
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

	bot := game.NewBot(cfg, game.Options{
		PlayerID: setup.MyID,
		Seed:     rngSeed,
		Logger:   logger,
		Output:   output,
	})
	sess := game.NewSession(setup, cfg)

	slog.Info("starting",
		"player", setup.MyID,
		"players", setup.NumPlayers,
		"dim", setup.Dim,
		"max_turns", sess.MaxTurns,
		"seed", rngSeed,
	)
	if err := conn.SendName(*name); err != nil {
		slog.Error("failed to send name", "error", err)
		os.Exit(1)
	}

	for {
		fr, err := conn.ReadFrame(setup.NumPlayers)
		if errors.Is(err, io.EOF) {
			slog.Info("engine closed the game")
			return
		}
		if err != nil {
			slog.Error("failed to read frame", "error", err)
			os.Exit(1)
		}

		// An aborted turn still answers with an empty command line.
		res, _ := bot.Turn(sess.Apply(fr))
		if err := conn.SendCommands(res.Commands()); err != nil {
			slog.Error("failed to send commands", "turn", fr.Turn, "error", err)
			os.Exit(1)
		}
	}
}

// openLog creates dir/bot-<id>.log with a JSON handler. An empty dir
// discards logs.
func openLog(dir string, id int, level slog.Level) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: level}
	if dir == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, opts)), func() {}, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("bot-%d.log", id)))
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(f, opts)), func() { _ = f.Close() }, nil
}
