// Arena viewer - interactive local matches and replay playback.
//
// Usage: go run ./cmd/arenaview [-replay out/replay-42.jsonl.zst]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/sim"
	"github.com/pthm-cable/fleet/telemetry"
)

const (
	windowWidth  = 1100
	windowHeight = 760
	boardSize    = 720
	panelX       = boardSize + 20
	panelWidth   = windowWidth - boardSize - 30
)

// viewer holds either a live match or a loaded replay.
type viewer struct {
	cfg    *config.Config
	seed   int64
	logger *slog.Logger

	// live mode
	match *sim.Match
	hero  *sim.BotPlayer
	stats sim.TurnStats

	// replay mode
	frames []telemetry.ReplayFrame
	cursor int

	playing   bool
	speed     float32 // turns per second
	acc       float32
	showPaths bool
	status    string
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 42, "Map seed")
	replayPath := flag.String("replay", "", "Replay file to play back instead of a live match")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	v := &viewer{
		cfg:       cfg,
		seed:      *seed,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		speed:     10,
		showPaths: true,
	}
	if *replayPath != "" {
		if v.frames, err = telemetry.ReadReplayFile(*replayPath); err != nil {
			log.Fatalf("failed to read replay: %v", err)
		}
		if len(v.frames) == 0 {
			log.Fatalf("replay %s has no frames", *replayPath)
		}
	} else if err := v.restart(); err != nil {
		log.Fatalf("failed to start match: %v", err)
	}

	rl.InitWindow(windowWidth, windowHeight, "Fleet Arena")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	for !rl.WindowShouldClose() {
		v.handleInput()
		if v.playing {
			v.acc += rl.GetFrameTime() * v.speed
			for v.acc >= 1 {
				v.acc--
				v.advance()
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)
		fr := v.frame()
		drawBoard(fr, v.cfg.Arena.MaxHalite)
		if v.showPaths && v.hero != nil && v.hero.Bot() != nil {
			_, paths := v.hero.Bot().Plan()
			drawPaths(paths, components.C(fr.Rows, fr.Cols))
		}
		v.drawPanel(fr)
		rl.EndDrawing()
	}
	if v.match != nil {
		_ = v.match.Close()
	}
}

// restart begins a new live match with the current config and seed.
func (v *viewer) restart() error {
	if v.match != nil {
		_ = v.match.Close()
	}
	arena := sim.NewArena(v.cfg, v.seed, v.logger)
	seats := make([]sim.Player, arena.NumPlayers())
	v.hero = sim.NewBotPlayer(v.cfg, "fleet", v.seed, nil, v.logger)
	seats[0] = v.hero
	for id := 1; id < len(seats); id++ {
		seats[id] = sim.NewBotPlayer(v.cfg, fmt.Sprintf("fleet-%d", id), v.seed, nil, v.logger)
	}
	m, err := sim.NewMatch(context.Background(), arena, seats, sim.MatchOptions{Logger: v.logger})
	if err != nil {
		return err
	}
	v.match = m
	v.stats = sim.TurnStats{}
	v.status = ""
	return nil
}

// advance plays or replays one turn.
func (v *viewer) advance() {
	if v.frames != nil {
		if v.cursor < len(v.frames)-1 {
			v.cursor++
		} else {
			v.playing = false
		}
		return
	}
	if v.match.Arena().Done() {
		v.playing = false
		res := v.match.Result()
		v.status = fmt.Sprintf("winner: player %d (%d)", res.Winner().ID, res.Winner().Score)
		return
	}
	st, err := v.match.Step(context.Background())
	if err != nil {
		v.status = err.Error()
		v.playing = false
		return
	}
	v.stats = st
}

func (v *viewer) frame() telemetry.ReplayFrame {
	if v.frames != nil {
		return v.frames[v.cursor]
	}
	return v.match.Arena().ReplayFrame()
}

func (v *viewer) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		v.playing = !v.playing
	}
	if rl.IsKeyPressed(rl.KeyRight) && !v.playing {
		v.advance()
	}
	if rl.IsKeyPressed(rl.KeyLeft) && v.frames != nil && v.cursor > 0 {
		v.cursor--
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.showPaths = !v.showPaths
	}
}

func (v *viewer) drawPanel(fr telemetry.ReplayFrame) {
	x := float32(panelX)
	y := float32(10)

	title := fmt.Sprintf("Seed %d", v.seed)
	if v.frames != nil {
		title = "Replay"
	}
	rl.DrawText(title, int32(x), int32(y), 20, rl.DarkGray)
	y += 30
	rl.DrawText(fmt.Sprintf("Turn %d", fr.Turn), int32(x), int32(y), 16, rl.DarkGray)
	y += 24
	for id, score := range fr.Scores {
		ships := 0
		for _, s := range fr.Ships {
			if s.Owner == id {
				ships++
			}
		}
		rl.DrawRectangle(int32(x), int32(y+2), 12, 12, playerColor(id))
		rl.DrawText(fmt.Sprintf("P%d  %6d  ships %d", id, score, ships), int32(x+18), int32(y), 16, rl.DarkGray)
		y += 20
	}
	y += 10

	if v.frames == nil {
		rl.DrawText(fmt.Sprintf("moves %d  mined %d  spawns %d", v.stats.Moves, v.stats.Mined, v.stats.Spawns), int32(x), int32(y), 14, rl.Gray)
		y += 18
		rl.DrawText(fmt.Sprintf("collisions %d  deposited %d", v.stats.Collisions, v.stats.Deposited), int32(x), int32(y), 14, rl.Gray)
		y += 18
		if v.hero != nil && v.hero.Bot() != nil {
			perf := v.hero.Bot().PerfStats()
			rl.DrawText(fmt.Sprintf("turn avg %v  max %v", perf.AvgTurn, perf.MaxTurn), int32(x), int32(y), 14, rl.Gray)
		}
		y += 28
	}

	rl.DrawText("Speed (turns/s)", int32(x), int32(y), 14, rl.Gray)
	y += 18
	v.speed = gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: panelWidth - 80, Height: 20}, "1", "60", v.speed, 1, 60)
	rl.DrawText(fmt.Sprintf("%.0f", v.speed), int32(x+panelWidth-70), int32(y+2), 16, rl.DarkGray)
	y += 35

	if v.frames != nil {
		rl.DrawText("Frame", int32(x), int32(y), 14, rl.Gray)
		y += 18
		pos := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: panelWidth - 80, Height: 20}, "0", fmt.Sprint(len(v.frames)-1),
			float32(v.cursor), 0, float32(len(v.frames)-1))
		v.cursor = int(pos)
		y += 35
	} else {
		rl.DrawText("Selector kernel size (next match)", int32(x), int32(y), 14, rl.Gray)
		y += 18
		k := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: panelWidth - 80, Height: 20}, "1", "11",
			float32(v.cfg.Selector.KernelSize), 1, 11)
		v.cfg.Selector.KernelSize = int(k)
		rl.DrawText(fmt.Sprintf("%d", v.cfg.Selector.KernelSize), int32(x+panelWidth-70), int32(y+2), 16, rl.DarkGray)
		y += 35

		rl.DrawText("Noise scale (next match)", int32(x), int32(y), 14, rl.Gray)
		y += 18
		v.cfg.Arena.NoiseScale = float64(gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: panelWidth - 80, Height: 20}, "0.02", "0.3",
			float32(v.cfg.Arena.NoiseScale), 0.02, 0.3))
		rl.DrawText(fmt.Sprintf("%.2f", v.cfg.Arena.NoiseScale), int32(x+panelWidth-70), int32(y+2), 16, rl.DarkGray)
		y += 45
	}

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 30}, toggleText(v.playing, "Pause", "Play")) {
		v.playing = !v.playing
	}
	if gui.Button(rl.Rectangle{X: x + 130, Y: y, Width: 120, Height: 30}, "Step") && !v.playing {
		v.advance()
	}
	y += 40
	if v.frames == nil {
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 30}, "Restart") {
			v.report(v.restart())
		}
		if gui.Button(rl.Rectangle{X: x + 130, Y: y, Width: 120, Height: 30}, "Random Seed") {
			v.seed = int64(rl.GetRandomValue(0, 99999))
			v.report(v.restart())
		}
		y += 40
	}

	if v.status != "" {
		rl.DrawText(v.status, int32(x), int32(y), 16, rl.Maroon)
	}
	rl.DrawText("Space play/pause, Right step, Left back, P paths", int32(x), windowHeight-30, 12, rl.LightGray)
}

func (v *viewer) report(err error) {
	if err != nil {
		v.status = err.Error()
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
