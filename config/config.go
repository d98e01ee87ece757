// Package config provides configuration loading and access for the bot and its tools.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all bot and arena configuration parameters.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Policy    PolicyConfig    `yaml:"policy"`
	Selector  SelectorConfig  `yaml:"selector"`
	Assign    AssignConfig    `yaml:"assign"`
	Search    SearchConfig    `yaml:"search"`
	EndGame   EndGameConfig   `yaml:"endgame"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Dropoff   DropoffConfig   `yaml:"dropoff"`
	Arena     ArenaConfig     `yaml:"arena"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// EngineConfig mirrors the game rules. The bot overwrites these from the
// constants line the engine sends at startup.
type EngineConfig struct {
	MaxCargo      int `yaml:"max_cargo"`
	ShipCost      int `yaml:"ship_cost"`
	DropoffCost   int `yaml:"dropoff_cost"`
	ExtractRatio  int `yaml:"extract_ratio"`   // ship mines 1/ratio of the cell per turn
	MoveCostRatio int `yaml:"move_cost_ratio"` // leaving a cell costs 1/ratio of its halite
	InitialHalite int `yaml:"initial_halite"`
}

// BandConfig maps a lower bound to a per-turn probability.
type BandConfig struct {
	Min  int     `yaml:"min"`
	Prob float64 `yaml:"prob"`
}

// PolicyConfig holds agent state machine parameters.
type PolicyConfig struct {
	NearFull           int          `yaml:"near_full"`            // cargo that always leaves Mining
	MiningBands        []BandConfig `yaml:"mining_bands"`         // cargo band -> P(leave Mining)
	DepletionFloor     int          `yaml:"depletion_floor"`      // cell halite below which Mining gives up
	DepletionIdleProb  float64      `yaml:"depletion_idle_prob"`  // P(Idle) vs MoveToDropoff on depletion
	CooldownMine       int          `yaml:"cooldown_mine"`        // turns before Mining may re-evaluate
	CooldownMoveToMine int          `yaml:"cooldown_move_to_mine"`
	ReassignFloor      int          `yaml:"reassign_floor"` // mine halite that triggers reassignment
	ReassignProb       float64      `yaml:"reassign_prob"`
	LocalTrigger       int          `yaml:"local_trigger"`       // cell halite at or below which a miner looks nearby
	LocalBands         []BandConfig `yaml:"local_bands"`         // cell halite band -> P(take cell)
	LocalSearchFactor  int          `yaml:"local_search_factor"` // spiral visits kernel²*factor cells
}

// SelectorConfig holds location ranking parameters.
type SelectorConfig struct {
	Kernel         string `yaml:"kernel"` // uniform or gaussian
	KernelSize     int    `yaml:"kernel_size"`
	CandidateLimit int    `yaml:"candidate_limit"` // 0 keeps every cell
}

// AssignConfig holds mine assignment parameters.
type AssignConfig struct {
	TransitCostRatio float64 `yaml:"transit_cost_ratio"`
	MiningTurns      int     `yaml:"mining_turns"`
	DistancePenalty  float64 `yaml:"distance_penalty"`
	ScanLimit        int     `yaml:"scan_limit"`
}

// SearchConfig holds path search budgets.
type SearchConfig struct {
	ExpansionFactor float64 `yaml:"expansion_factor"`
	MaxPathsPerTurn int     `yaml:"max_paths_per_turn"`
	MinDistance     int     `yaml:"min_distance"` // shorter trips use greedy steps only
}

// EndGameConfig holds end-game window parameters.
type EndGameConfig struct {
	WindowFactor float64 `yaml:"window_factor"` // end-game when turns left <= rows * factor
}

// SpawnConfig holds ship creation parameters.
type SpawnConfig struct {
	MinScore      int     `yaml:"min_score"`
	HalitePerShip float64 `yaml:"halite_per_ship"`
	TurnFraction  float64 `yaml:"turn_fraction"`
}

// DropoffConfig holds dropoff founding parameters.
type DropoffConfig struct {
	MaxDropoffs   int `yaml:"max_dropoffs"`
	MinShips      int `yaml:"min_ships"`
	MinDistance   int `yaml:"min_distance"`
	AreaRadius    int `yaml:"area_radius"`
	MinAreaHalite int `yaml:"min_area_halite"`
	Reserve       int `yaml:"reserve"` // score kept after paying for a dropoff
}

// ArenaConfig holds local match settings.
type ArenaConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Players    int     `yaml:"players"`
	MaxTurns   int     `yaml:"max_turns"` // 0 derives from width
	NoiseScale float64 `yaml:"noise_scale"`
	MaxHalite  int     `yaml:"max_halite"`
}

// TelemetryConfig holds logging and output settings.
type TelemetryConfig struct {
	LogLevel            string `yaml:"log_level"`
	PerfCollectorWindow int    `yaml:"perf_collector_window"`
	Replay              bool   `yaml:"replay"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	ExtractFrac float64 // 1 / extract_ratio
	MaxTurns    int
	LogLevel    slog.Level
}

var global *Config

// Init loads configuration from the given path (or defaults if empty).
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Clone returns a deep copy, so tools can tweak one without touching another.
func (c *Config) Clone() *Config {
	out := *c
	out.Policy.MiningBands = append([]BandConfig(nil), c.Policy.MiningBands...)
	out.Policy.LocalBands = append([]BandConfig(nil), c.Policy.LocalBands...)
	return &out
}

func (c *Config) validate() error {
	switch {
	case c.Engine.ExtractRatio <= 0:
		return fmt.Errorf("engine.extract_ratio must be positive, got %d", c.Engine.ExtractRatio)
	case c.Engine.MoveCostRatio <= 0:
		return fmt.Errorf("engine.move_cost_ratio must be positive, got %d", c.Engine.MoveCostRatio)
	case c.Selector.KernelSize < 1:
		return fmt.Errorf("selector.kernel_size must be at least 1, got %d", c.Selector.KernelSize)
	case c.Selector.Kernel != "uniform" && c.Selector.Kernel != "gaussian":
		return fmt.Errorf("selector.kernel: unknown shape %q", c.Selector.Kernel)
	case len(c.Policy.MiningBands) == 0:
		return fmt.Errorf("policy.mining_bands must not be empty")
	case c.Arena.Players != 1 && c.Arena.Players != 2 && c.Arena.Players != 4:
		return fmt.Errorf("arena.players must be 1, 2 or 4, got %d", c.Arena.Players)
	case c.Arena.Width < 8 || c.Arena.Height < 8:
		return fmt.Errorf("arena must be at least 8x8, got %dx%d", c.Arena.Width, c.Arena.Height)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ExtractFrac = 1 / float64(c.Engine.ExtractRatio)

	// Bands are matched highest bound first.
	sortBands(c.Policy.MiningBands)
	sortBands(c.Policy.LocalBands)

	c.Derived.MaxTurns = c.Arena.MaxTurns
	if c.Derived.MaxTurns == 0 {
		c.Derived.MaxTurns = MaxTurnsFor(c.Arena.Width)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Telemetry.LogLevel)); err != nil {
		lvl = slog.LevelInfo
	}
	c.Derived.LogLevel = lvl
}

// Recompute refreshes derived values after fields were changed in place.
func (c *Config) Recompute() {
	c.computeDerived()
}

// MaxTurnsFor returns the match length the engine uses for a map width.
func MaxTurnsFor(width int) int {
	return 400 + 25*(width-32)/8
}

func sortBands(b []BandConfig) {
	sort.SliceStable(b, func(i, j int) bool { return b[i].Min > b[j].Min })
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
