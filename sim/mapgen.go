// Package sim is a local Halite arena: it generates maps, applies the game
// rules to player commands and drives bots in-process or over the engine
// protocol.
package sim

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/fleet/components"
	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/systems"
)

const (
	noiseOctaves = 3
	noiseGain    = 0.5
	// haliteFloor keeps some halite on every cell.
	haliteFloor = 0.02
)

// GenerateHalite fills a rows x cols field from layered simplex noise. The
// map is mirrored left-right for two players and across both axes for four,
// so every player starts from an identical neighborhood.
func GenerateHalite(cfg *config.Config, seed int64, dim components.Coord, players int) *systems.ResourceField {
	noise := opensimplex.NewNormalized(seed)
	field := systems.NewResourceField(dim)

	// Fundamental region that gets mirrored.
	rows, cols := dim.Row, dim.Col
	if players >= 2 {
		cols = (dim.Col + 1) / 2
	}
	if players >= 4 {
		rows = (dim.Row + 1) / 2
	}

	scale := cfg.Arena.NoiseScale
	maxHalite := float64(cfg.Arena.MaxHalite)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			amp, freq, sum, norm := 1.0, scale, 0.0, 0.0
			for o := 0; o < noiseOctaves; o++ {
				sum += amp * noise.Eval2(float64(c)*freq, float64(r)*freq)
				norm += amp
				amp *= noiseGain
				freq *= 2
			}
			v := sum / norm
			// Sharpen peaks so halite clusters.
			v = math.Max(haliteFloor, v*v*v)
			h := int(v * maxHalite)

			mirror(field, components.C(r, c), dim, players, h)
		}
	}
	return field
}

func mirror(field *systems.ResourceField, c, dim components.Coord, players, v int) {
	field.Set(c, v)
	if players >= 2 {
		field.Set(components.C(c.Row, dim.Col-1-c.Col), v)
	}
	if players >= 4 {
		field.Set(components.C(dim.Row-1-c.Row, c.Col), v)
		field.Set(components.C(dim.Row-1-c.Row, dim.Col-1-c.Col), v)
	}
}

// Shipyards places one shipyard per player, mirrored like the halite.
func Shipyards(dim components.Coord, players int) []components.Coord {
	r, c := dim.Row/2, dim.Col/4
	switch {
	case players <= 1:
		return []components.Coord{components.C(dim.Row/2, dim.Col/2)}
	case players < 4:
		return []components.Coord{
			components.C(r, c),
			components.C(r, dim.Col-1-c),
		}
	}
	r = dim.Row / 4
	return []components.Coord{
		components.C(r, c),
		components.C(r, dim.Col-1-c),
		components.C(dim.Row-1-r, c),
		components.C(dim.Row-1-r, dim.Col-1-c),
	}
}
