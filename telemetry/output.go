package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/fleet/config"
)

// csvFile appends gocsv rows to a file, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

// write marshals rows, which must be a slice of csv-tagged structs.
func (c *csvFile) write(rows any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(rows, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(rows, c.f)
}

func (c *csvFile) close() error {
	if c == nil || c.f == nil {
		return nil
	}
	return c.f.Close()
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir     string
	turns   *csvFile
	perf    *csvFile
	matches *csvFile
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled); all methods accept a nil
// receiver.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.turns, err = createCSV(dir, "turns.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = createCSV(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.matches, err = createCSV(dir, "matches.csv"); err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves the configuration in effect as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTurn appends a row to turns.csv.
func (om *OutputManager) WriteTurn(r TurnRecord) error {
	if om == nil {
		return nil
	}
	if err := om.turns.write([]TurnRecord{r}); err != nil {
		return fmt.Errorf("writing turn: %w", err)
	}
	return nil
}

// WritePerf appends the window stats ending at turn to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, turn int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(turn)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteMatch appends final results to matches.csv.
func (om *OutputManager) WriteMatch(rs []MatchRecord) error {
	if om == nil || len(rs) == 0 {
		return nil
	}
	if err := om.matches.write(rs); err != nil {
		return fmt.Errorf("writing match: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files and returns the first error.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, c := range []*csvFile{om.turns, om.perf, om.matches} {
		if err := c.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
