package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Policy.NearFull != 975 {
		t.Errorf("near_full = %d, want 975", cfg.Policy.NearFull)
	}
	if got := cfg.Derived.ExtractFrac; got != 0.25 {
		t.Errorf("ExtractFrac = %v, want 0.25", got)
	}
	if got := cfg.Derived.MaxTurns; got != 400 {
		t.Errorf("MaxTurns for width 32 = %d, want 400", got)
	}
	for i := 1; i < len(cfg.Policy.MiningBands); i++ {
		if cfg.Policy.MiningBands[i].Min > cfg.Policy.MiningBands[i-1].Min {
			t.Errorf("mining bands not sorted descending: %+v", cfg.Policy.MiningBands)
		}
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("selector:\n  kernel: gaussian\ntelemetry:\n  log_level: debug\narena:\n  width: 64\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Selector.Kernel != "gaussian" {
		t.Errorf("kernel = %q, want gaussian", cfg.Selector.Kernel)
	}
	if cfg.Selector.KernelSize != 5 {
		t.Errorf("kernel_size = %d, want default 5 kept", cfg.Selector.KernelSize)
	}
	if cfg.Derived.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.Derived.LogLevel)
	}
	if cfg.Derived.MaxTurns != 500 {
		t.Errorf("MaxTurns for width 64 = %d, want 500", cfg.Derived.MaxTurns)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"kernel shape", "selector:\n  kernel: box\n"},
		{"kernel size", "selector:\n  kernel_size: 0\n"},
		{"extract ratio", "engine:\n  extract_ratio: 0\n"},
		{"players", "arena:\n  players: 3\n"},
		{"arena size", "arena:\n  width: 4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load(%s) succeeded, want error", tt.name)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Assign.DistancePenalty = 3.5
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if back.Assign.DistancePenalty != 3.5 {
		t.Errorf("distance_penalty = %v, want 3.5", back.Assign.DistancePenalty)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	c := cfg.Clone()
	c.Policy.MiningBands[0].Prob = 0
	if cfg.Policy.MiningBands[0].Prob == 0 {
		t.Error("Clone shares mining bands with the original")
	}
}
