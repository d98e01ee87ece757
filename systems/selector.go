package systems

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/fleet/components"
)

// KernelShape selects the convolution weights used to score cells.
type KernelShape uint8

const (
	KernelUniform KernelShape = iota
	KernelGaussian
)

// ParseKernelShape maps a config name to a KernelShape.
func ParseKernelShape(name string) (KernelShape, bool) {
	switch name {
	case "uniform", "":
		return KernelUniform, true
	case "gaussian":
		return KernelGaussian, true
	}
	return KernelUniform, false
}

// Candidate is a ranked harvesting cell.
type Candidate struct {
	Pos   components.Coord
	Score float64
}

// NewKernel builds a size x size weight matrix. Uniform weights are 1/size²;
// Gaussian weights are exp(-(dr²+dc²)/(2σ²)) with σ = size/4, unnormalized.
func NewKernel(shape KernelShape, size int) *mat.Dense {
	if size < 1 {
		size = 1
	}
	k := mat.NewDense(size, size, nil)
	half := size / 2
	sigma := math.Max(float64(size)/4, 0.5)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			switch shape {
			case KernelGaussian:
				dr, dc := float64(i-half), float64(j-half)
				k.Set(i, j, math.Exp(-(dr*dr+dc*dc)/(2*sigma*sigma)))
			default:
				k.Set(i, j, 1/float64(size*size))
			}
		}
	}
	return k
}

// Convolve correlates the resource field with kernel using wrap-around
// indexing. Kernel cell (i, j) weighs the field cell offset by
// (i - size/2, j - size/2) from the output cell.
func Convolve(field *ResourceField, kernel *mat.Dense) *mat.Dense {
	dim := field.Dim()
	src := mat.NewDense(dim.Row, dim.Col, nil)
	for i, v := range field.Cells() {
		c := field.CoordOf(i)
		src.Set(c.Row, c.Col, float64(v))
	}

	out := mat.NewDense(dim.Row, dim.Col, nil)
	kr, kc := kernel.Dims()
	for i := 0; i < kr; i++ {
		for j := 0; j < kc; j++ {
			w := kernel.At(i, j)
			if w == 0 {
				continue
			}
			dr, dc := i-kr/2, j-kc/2
			shift := ((dc % dim.Col) + dim.Col) % dim.Col
			for r := 0; r < dim.Row; r++ {
				dst := out.RawRowView(r)
				row := src.RawRowView((((r+dr)%dim.Row)+dim.Row)%dim.Row)
				// dst[x] += w * row[x+shift], split where x+shift wraps.
				floats.AddScaled(dst[:dim.Col-shift], w, row[shift:])
				if shift > 0 {
					floats.AddScaled(dst[dim.Col-shift:], w, row[:shift])
				}
			}
		}
	}
	return out
}

// RankLocations scores every cell by convolving the field with the kernel,
// shuffles to break ties fairly, then stable-sorts by descending score.
// limit <= 0 returns the full list.
func RankLocations(field *ResourceField, shape KernelShape, size int, rng *rand.Rand, limit int) []Candidate {
	scores := Convolve(field, NewKernel(shape, size))
	dim := field.Dim()

	out := make([]Candidate, 0, dim.Row*dim.Col)
	for r := 0; r < dim.Row; r++ {
		for c, s := range scores.RawRowView(r) {
			out = append(out, Candidate{Pos: components.C(r, c), Score: s})
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Pool is a ranked candidate list consumed front-to-back. Claimed cells are
// skipped by later scans.
type Pool struct {
	cands   []Candidate
	claimed map[components.Coord]bool
}

// NewPool wraps a ranked list.
func NewPool(cands []Candidate) *Pool {
	return &Pool{cands: cands, claimed: make(map[components.Coord]bool)}
}

// Scan visits up to limit unclaimed candidates in rank order until fn
// returns false. limit <= 0 visits all of them.
func (p *Pool) Scan(limit int, fn func(Candidate) bool) {
	seen := 0
	for _, c := range p.cands {
		if p.claimed[c.Pos] {
			continue
		}
		if limit > 0 && seen >= limit {
			return
		}
		seen++
		if !fn(c) {
			return
		}
	}
}

// Claim removes pos from future scans.
func (p *Pool) Claim(pos components.Coord) {
	p.claimed[pos] = true
}

// Remaining counts unclaimed candidates.
func (p *Pool) Remaining() int {
	n := 0
	for _, c := range p.cands {
		if !p.claimed[c.Pos] {
			n++
		}
	}
	return n
}
