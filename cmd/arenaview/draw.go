package main

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/telemetry"
)

var playerColors = []rl.Color{
	{R: 230, G: 41, B: 55, A: 255},
	{R: 0, G: 121, B: 241, A: 255},
	{R: 0, G: 158, B: 47, A: 255},
	{R: 200, G: 122, B: 255, A: 255},
}

func playerColor(id int) rl.Color {
	return playerColors[id%len(playerColors)]
}

// haliteColor shades a cell from deep blue (empty) to gold (max).
func haliteColor(v, maxHalite int) rl.Color {
	t := float32(v) / float32(max(maxHalite, 1))
	t = min(max(t, 0), 1)
	lerp := func(a, b uint8) uint8 { return uint8(float32(a) + (float32(b)-float32(a))*t) }
	return rl.Color{R: lerp(12, 250), G: lerp(20, 200), B: lerp(48, 40), A: 255}
}

// cellSize returns the pixel size of one cell for a rows x cols board.
func cellSize(rows, cols int) int32 {
	return int32(boardSize / max(rows, cols, 1))
}

func cellOrigin(c components.Coord, size int32) (int32, int32) {
	return 10 + int32(c.Col)*size, 10 + int32(c.Row)*size
}

func drawBoard(fr telemetry.ReplayFrame, maxHalite int) {
	size := cellSize(fr.Rows, fr.Cols)
	for i, v := range fr.Halite {
		x, y := cellOrigin(components.C(i/fr.Cols, i%fr.Cols), size)
		rl.DrawRectangle(x, y, size, size, haliteColor(v, maxHalite))
	}
	for _, d := range fr.Dropoffs {
		x, y := cellOrigin(components.C(d.Row, d.Col), size)
		rl.DrawRectangleLines(x+1, y+1, size-2, size-2, playerColor(d.Owner))
		if d.ID == components.ShipyardID {
			rl.DrawRectangleLines(x+3, y+3, size-6, size-6, playerColor(d.Owner))
		}
	}
	for _, s := range fr.Ships {
		x, y := cellOrigin(components.C(s.Row, s.Col), size)
		r := float32(size) / 2
		rl.DrawCircle(x+size/2, y+size/2, r*0.7, playerColor(s.Owner))
		// Inner dot grows with cargo.
		rl.DrawCircle(x+size/2, y+size/2, r*0.6*float32(s.Cargo)/1000, rl.White)
	}
	rl.DrawRectangleLines(10, 10, int32(fr.Cols)*size, int32(fr.Rows)*size, rl.DarkGray)
}

// drawPaths overlays the searched routes of the watched bot.
func drawPaths(paths map[int][]components.Coord, dim components.Coord) {
	size := cellSize(dim.Row, dim.Col)
	half := size / 2
	for _, p := range paths {
		for i := 1; i < len(p); i++ {
			// Skip segments that wrap around the board edge.
			if p[i-1].Sub(p[i]).Abs() != 1 {
				continue
			}
			x0, y0 := cellOrigin(p[i-1], size)
			x1, y1 := cellOrigin(p[i], size)
			rl.DrawLine(x0+half, y0+half, x1+half, y1+half, rl.Fade(rl.White, 0.6))
		}
	}
}
