package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the turn pipeline.
const (
	PhaseSync     = "sync"
	PhaseAdvance  = "advance"
	PhaseRank     = "rank"
	PhaseAssign   = "assign"
	PhaseSearch   = "search"
	PhaseSchedule = "schedule"
	PhaseEmit     = "emit"
)

// Phases lists the pipeline phases in execution order.
var Phases = []string{PhaseSync, PhaseAdvance, PhaseRank, PhaseAssign, PhaseSearch, PhaseSchedule, PhaseEmit}

// turnSample holds timing data for a single turn.
type turnSample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector tracks turn timing over a rolling window and counts turns
// that ran past the engine's time allowance.
type PerfCollector struct {
	window  []turnSample
	next    int
	filled  int
	budget  time.Duration
	overrun int

	current    map[string]time.Duration
	turnStart  time.Time
	phaseStart time.Time
	phase      string

	// Frame timing for the arena viewer
	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize turns.
// budget <= 0 disables overrun counting.
func NewPerfCollector(windowSize int, budget time.Duration) *PerfCollector {
	if windowSize < 1 {
		windowSize = 50
	}
	return &PerfCollector{
		window:  make([]turnSample, windowSize),
		budget:  budget,
		current: make(map[string]time.Duration),
	}
}

// StartTurn begins timing a turn.
func (p *PerfCollector) StartTurn() {
	p.turnStart = time.Now()
	p.current = make(map[string]time.Duration, len(Phases))
	p.phase = ""
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.phase != "" {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.phase = phase
}

// EndTurn records the turn and returns its wall time.
func (p *PerfCollector) EndTurn() time.Duration {
	now := time.Now()
	if p.phase != "" {
		p.current[p.phase] += now.Sub(p.phaseStart)
		p.phase = ""
	}
	total := now.Sub(p.turnStart)
	p.window[p.next] = turnSample{total: total, phases: p.current}
	p.next = (p.next + 1) % len(p.window)
	if p.filled < len(p.window) {
		p.filled++
	}
	if p.budget > 0 && total > p.budget {
		p.overrun++
	}
	return total
}

// RecordFrame records frame timing for the viewer.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats holds aggregated turn timing.
type PerfStats struct {
	AvgTurn time.Duration
	MaxTurn time.Duration

	// Average time per phase and its share of the average turn.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// BudgetUsed is MaxTurn as a fraction of the time allowance.
	BudgetUsed float64
	Overruns   int

	FPS float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
		Overruns: p.overrun,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	var sum time.Duration
	phaseSum := make(map[string]time.Duration)
	for _, t := range p.window[:p.filled] {
		sum += t.total
		s.MaxTurn = max(s.MaxTurn, t.total)
		for name, d := range t.phases {
			phaseSum[name] += d
		}
	}
	n := time.Duration(p.filled)
	s.AvgTurn = sum / n
	for name, d := range phaseSum {
		s.PhaseAvg[name] = d / n
		if s.AvgTurn > 0 {
			s.PhasePct[name] = float64(s.PhaseAvg[name]) / float64(s.AvgTurn) * 100
		}
	}
	if p.budget > 0 {
		s.BudgetUsed = float64(s.MaxTurn) / float64(p.budget)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_turn_us", s.AvgTurn.Microseconds()),
		slog.Int64("max_turn_us", s.MaxTurn.Microseconds()),
		slog.Float64("budget_used", s.BudgetUsed),
		slog.Int("overruns", s.Overruns),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, name := range Phases {
		if pct, ok := s.PhasePct[name]; ok {
			attrs = append(attrs, slog.Float64(name+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Turn        int     `csv:"turn"`
	AvgTurnUS   int64   `csv:"avg_turn_us"`
	MaxTurnUS   int64   `csv:"max_turn_us"`
	BudgetUsed  float64 `csv:"budget_used"`
	Overruns    int     `csv:"overruns"`
	SyncPct     float64 `csv:"sync_pct"`
	AdvancePct  float64 `csv:"advance_pct"`
	RankPct     float64 `csv:"rank_pct"`
	AssignPct   float64 `csv:"assign_pct"`
	SearchPct   float64 `csv:"search_pct"`
	SchedulePct float64 `csv:"schedule_pct"`
	EmitPct     float64 `csv:"emit_pct"`
}

// ToCSV flattens the stats for the row ending at turn.
func (s PerfStats) ToCSV(turn int) PerfStatsCSV {
	return PerfStatsCSV{
		Turn:        turn,
		AvgTurnUS:   s.AvgTurn.Microseconds(),
		MaxTurnUS:   s.MaxTurn.Microseconds(),
		BudgetUsed:  s.BudgetUsed,
		Overruns:    s.Overruns,
		SyncPct:     s.PhasePct[PhaseSync],
		AdvancePct:  s.PhasePct[PhaseAdvance],
		RankPct:     s.PhasePct[PhaseRank],
		AssignPct:   s.PhasePct[PhaseAssign],
		SearchPct:   s.PhasePct[PhaseSearch],
		SchedulePct: s.PhasePct[PhaseSchedule],
		EmitPct:     s.PhasePct[PhaseEmit],
	}
}
