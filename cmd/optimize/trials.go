package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

// trialLog appends every evaluation to optimize_log.csv and remembers the
// best candidate seen so far.
type trialLog struct {
	params   *ParamVector
	f        *os.File
	w        *csv.Writer
	maxEvals int
	seeds    int
	start    time.Time

	evals int
	best  float64
	bestX []float64 // clamped raw values
}

func newTrialLog(path string, params *ParamVector, maxEvals, seeds int) (*trialLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trial log: %w", err)
	}
	l := &trialLog{
		params:   params,
		f:        f,
		w:        csv.NewWriter(f),
		maxEvals: maxEvals,
		seeds:    seeds,
		start:    time.Now(),
		best:     math.Inf(1),
	}
	header := []string{"eval", "fitness", "share", "wins"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// record logs one evaluation of the normalized vector x and prints a
// progress line.
func (l *trialLog) record(x []float64, fitness, share float64, wins int) {
	l.evals++
	raw := l.params.Clamp(l.params.Denormalize(x))
	if fitness < l.best {
		l.best, l.bestX = fitness, raw
	}

	row := []string{strconv.Itoa(l.evals), fmt.Sprintf("%.6f", fitness), fmt.Sprintf("%.4f", share), strconv.Itoa(wins)}
	for _, v := range raw {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	_ = l.w.Write(row)
	l.w.Flush()

	elapsed := time.Since(l.start)
	eta := time.Duration(l.maxEvals-l.evals) * (elapsed / time.Duration(l.evals))
	fmt.Printf("eval %d/%d: share=%.3f wins=%d/%d best=%.3f elapsed=%s eta=%s\n",
		l.evals, l.maxEvals, share, wins, l.seeds, l.bestShare(),
		elapsed.Round(time.Second), eta.Round(time.Second))
}

// bestShare is the score share of the best candidate, 0 before any
// evaluation.
func (l *trialLog) bestShare() float64 {
	if l.bestX == nil {
		return 0
	}
	return -l.best
}

func (l *trialLog) close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
