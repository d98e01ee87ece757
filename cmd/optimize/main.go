// Command optimize tunes the bot's config knobs with CMA-ES. Each candidate
// plays two-player matches against the base config and is scored by its
// share of the banked halite.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/fleet/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seeds := flag.Int("seeds", 4, "Matches per evaluation")
	firstSeed := flag.Int64("seed", 42, "First map seed of the evaluation set")
	size := flag.Int("size", 0, "Map width and height for evaluation matches (0 = use config)")
	holdout := flag.Int("validate", 8, "Matches on unseen seeds to check the best candidate (0 = skip)")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	step := flag.Float64("step", 0.3, "Initial CMA-ES step size in normalized units")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *size > 0 {
		baseCfg.Arena.Width, baseCfg.Arena.Height = *size, *size
		baseCfg.Arena.MaxTurns = 0
		baseCfg.Recompute()
	}

	// Seeds are spaced so neighbouring evaluations never share a map.
	seedRange := func(first int64, n int) []int64 {
		out := make([]int64, n)
		for i := range out {
			out[i] = first + int64(i)*1000
		}
		return out
	}
	evalSeeds := seedRange(*firstSeed, *seeds)

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg)

	trials, err := newTrialLog(filepath.Join(*outputDir, "optimize_log.csv"), params, *maxEvals, *seeds)
	if err != nil {
		log.Fatal(err)
	}
	defer trials.close()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			fitness := evaluator.Evaluate(params.Denormalize(x))
			share, wins := evaluator.LastShare()
			trials.record(x, fitness, share, wins)
			return fitness
		},
	}
	// Matches already run in parallel inside each evaluation.
	settings := &optimize.Settings{FuncEvaluations: *maxEvals}

	dim := params.Dim()
	popSize := *population
	if popSize == 0 {
		popSize = 4 + 3*dim/2
	}
	method := &optimize.CmaEsChol{InitStepSize: *step, Population: popSize}

	fmt.Printf("tuning %d knobs: population=%d max_evals=%d, %d matches per eval on %dx%d (%d turns)\n",
		dim, popSize, *maxEvals, *seeds, baseCfg.Arena.Width, baseCfg.Arena.Height, baseCfg.Derived.MaxTurns)

	start := time.Now()
	result, err := optimize.Minimize(problem, params.Normalize(params.ExtractFromConfig(baseCfg)), settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	best := trials.bestX
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		log.Fatal("no evaluation completed")
	}

	fmt.Printf("\n%d evaluations in %s, best share %.3f\n", trials.evals, time.Since(start).Round(time.Second), trials.bestShare())
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, best[i])
	}

	if *holdout > 0 {
		share, wins := evaluator.Validate(best, seedRange(*firstSeed+int64(*seeds)*1000, *holdout))
		fmt.Printf("unseen seeds: share=%.3f wins=%d/%d\n", share, wins, *holdout)
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, best)
	out := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(out); err != nil {
		log.Printf("failed to write best config: %v", err)
		return
	}
	fmt.Printf("best config saved to %s\n", out)
}
