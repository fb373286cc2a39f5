package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Generation.ASqMax != DefaultASqMax {
		t.Errorf("expected asq_max %f, got %f", DefaultASqMax, cfg.Generation.ASqMax)
	}
	if cfg.Integration.M13BinWidth <= 0 {
		t.Error("bin width should be positive")
	}
	if !cfg.Symmetric() || cfg.FullySymmetric() {
		t.Error("pi+ pi+ K- should be symmetric but not fully symmetric")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("d_pipik", "kstar")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.Resonances) != 2 {
		t.Fatalf("expected 2 resonances, got %d", len(cfg.Resonances))
	}
	if cfg.Resonances[1].Coeff.Complex() != complex(2.1, -0.3) {
		t.Errorf("unexpected NR coefficient %v", cfg.Resonances[1].Coeff.Complex())
	}

	// presets are copied out
	cfg.Resonances[0].Name = "changed"
	if GetPreset("d_pipik", "kstar").Resonances[0].Name != "K*0(892)" {
		t.Error("modifying a returned preset changed the table")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("d_pipik", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "kstar")
	if cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	if diff := cmp.Diff([]string{"kstar", "kstar_k0", "nr"}, ListPresets("d_pipik")); diff != "" {
		t.Errorf("presets mismatch (-want +got):\n%s", diff)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent model")
	}
	if diff := cmp.Diff([]string{"b_pipipi", "d0_kspipi", "d_pipik", "ds_kkpi"}, ListModels()); diff != "" {
		t.Errorf("models mismatch (-want +got):\n%s", diff)
	}
}

func TestPresetsValidate(t *testing.T) {
	for model, presets := range Presets {
		for name, cfg := range presets {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
			}
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	spin := 2
	cfg := GetPreset("d0_kspipi", "flatte")
	cfg.Resonances[0].Spin = &spin
	cfg.Radii = []RadiusConfig{{Category: "light", Value: 1.5, Fixed: true}}
	cfg.Generation.Seed = 17

	if err := SaveFs(fs, "/models/flatte.yaml", cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFs(fs, "/models/flatte.yaml")
	if err != nil {
		t.Fatal(err)
	}

	if got.BaseDir != "/models" {
		t.Errorf("expected base dir /models, got %s", got.BaseDir)
	}
	got.BaseDir = cfg.BaseDir
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kstar.yaml")
	cfg := GetPreset("d_pipik", "kstar")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Resonances) != len(cfg.Resonances) {
		t.Errorf("expected %d resonances, got %d", len(cfg.Resonances), len(got.Resonances))
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `
model: custom
parent: D+
daughters: [K-, pi+, pi+]
resonances:
  - name: K*0(892)
    kind: relbw
    bachelor: 3
    coeff: {re: 1, im: 0}
generation:
  events: 50
  iterations_max: 1000
  asq_max: 2.5
`
	if err := afero.WriteFile(fs, "m.yaml", []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFs(fs, "m.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Resonances) != 1 || cfg.Resonances[0].Bachelor != 3 {
		t.Errorf("unexpected resonances %+v", cfg.Resonances)
	}
	if cfg.Integration.NarrowWidth != DefaultNarrowWidth {
		t.Errorf("expected default narrow width, got %f", cfg.Integration.NarrowWidth)
	}
	if cfg.Efficiency.Constant != DefaultEfficiency {
		t.Errorf("expected default efficiency, got %f", cfg.Efficiency.Constant)
	}
	if cfg.Symmetric() {
		t.Error("K- pi+ pi+ is not symmetric in daughters 1 and 2")
	}
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := LoadFs(fs, "missing.yaml"); err == nil {
		t.Error("expected error for a missing file")
	}

	if err := afero.WriteFile(fs, "bad.yaml", []byte("resonances: {"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFs(fs, "bad.yaml"); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no parent", func(c *Config) { c.Parent = "" }},
		{"two daughters", func(c *Config) { c.Daughters = c.Daughters[:2] }},
		{"no resonances", func(c *Config) { c.Resonances = nil }},
		{"duplicate", func(c *Config) { c.Resonances = append(c.Resonances, c.Resonances[0]) }},
		{"bad bachelor", func(c *Config) { c.Resonances[0].Bachelor = 4 }},
		{"unknown propagator", func(c *Config) { c.Resonances[0].Propagator = "pipi" }},
		{"bad efficiency", func(c *Config) { c.Efficiency.Constant = 1.5 }},
		{"zero envelope", func(c *Config) { c.Generation.ASqMax = 0 }},
		{"bad kmatrix pair", func(c *Config) {
			c.KMatrix = []KMatrixConfig{{Name: "pipi", File: "f.dat", Pair: 0}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
