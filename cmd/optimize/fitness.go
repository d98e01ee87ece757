package main

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/pthm-cable/fleet/config"
	"github.com/pthm-cable/fleet/sim"
)

// FitnessEvaluator plays the candidate config against the baseline config
// on a fixed set of seeds and scores the result.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	log        *slog.Logger

	mu        sync.Mutex
	lastShare float64 // candidate score share from the most recent Evaluate
	lastWins  int
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LastShare returns the candidate's mean score share and win count from
// the most recent evaluation.
func (fe *FitnessEvaluator) LastShare() (float64, int) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastShare, fe.lastWins
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	share float64
	won   bool
	err   error
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated mean share of the total score the candidate
// banks, so 0.5 means parity with the baseline.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	share, wins := fe.play(x, fe.seeds)
	fe.mu.Lock()
	fe.lastShare, fe.lastWins = share, wins
	fe.mu.Unlock()
	return -share
}

// Validate plays x on seeds the search never saw and returns the mean
// score share and the number of wins.
func (fe *FitnessEvaluator) Validate(x []float64, seeds []int64) (float64, int) {
	return fe.play(x, seeds)
}

func (fe *FitnessEvaluator) play(x []float64, seeds []int64) (float64, int) {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]seedResult, len(seeds))
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runMatch(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	wins, played := 0, 0
	for _, r := range results {
		if r.err != nil {
			fe.log.Error("match failed", "error", r.err)
			continue
		}
		total += r.share
		played++
		if r.won {
			wins++
		}
	}
	if played == 0 {
		return 0, 0
	}
	return total / float64(played), wins
}

// runMatch plays one seed. Seats alternate by seed so neither config keeps
// a side of the map.
func (fe *FitnessEvaluator) runMatch(cand *config.Config, seed int64) seedResult {
	arenaCfg := fe.baseConfig.Clone()
	arenaCfg.Arena.Players = 2
	arenaCfg.Recompute()

	candSeat := int(seed % 2)
	cfgs := []*config.Config{fe.baseConfig, fe.baseConfig}
	cfgs[candSeat] = cand
	players := []sim.Player{
		sim.NewBotPlayer(cfgs[0], "seat0", seed, nil, fe.log),
		sim.NewBotPlayer(cfgs[1], "seat1", seed, nil, fe.log),
	}

	res, err := sim.Play(context.Background(), sim.NewArena(arenaCfg, seed, fe.log), players, sim.MatchOptions{Logger: fe.log})
	if err != nil {
		return seedResult{err: err}
	}
	mine := float64(res.Players[candSeat].Score)
	sum := mine + float64(res.Players[1-candSeat].Score)
	if sum <= 0 {
		return seedResult{share: 0.5}
	}
	return seedResult{share: mine / sum, won: res.Players[candSeat].Rank == 1}
}
