package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/vicsek/internal/vicsek"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Simulation.ParticleCount != 300 {
		t.Errorf("expected 300 particles, got %d", cfg.Simulation.ParticleCount)
	}
	if cfg.Domain.Width != 160 || cfg.Domain.Height != 100 {
		t.Errorf("expected 160x100 domain, got %v", cfg.Domain)
	}
	if cfg.Run.FPS <= 0 {
		t.Error("fps should be positive")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Simulation.NoiseAmplitude = 1.25
	cfg.Simulation.NeighborSearch = vicsek.SearchGrid
	cfg.Domain.Width = 64
	cfg.Run.Steps = 10

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "simulation:\n  noise_amplitude: 3.5\ndomain:\n  width: 50\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Simulation.NoiseAmplitude != 3.5 {
		t.Errorf("expected noise 3.5, got %v", cfg.Simulation.NoiseAmplitude)
	}
	if cfg.Simulation.ParticleCount != vicsek.DefaultParticleCount {
		t.Errorf("expected default particle count, got %d", cfg.Simulation.ParticleCount)
	}
	if cfg.Domain.Width != 50 || cfg.Domain.Height != DefaultHeight {
		t.Errorf("expected 50x%v, got %v", DefaultHeight, cfg.Domain)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad radius", "simulation:\n  interaction_radius: -1\n"},
		{"bad domain", "domain:\n  height: 0\n"},
		{"bad fps", "run:\n  fps: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, vicsek.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("simulation: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("ordered")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Simulation.NoiseAmplitude != 0.1 {
		t.Errorf("expected noise 0.1, got %v", cfg.Simulation.NoiseAmplitude)
	}

	cfg.Simulation.NoiseAmplitude = 9
	if GetPreset("ordered").Simulation.NoiseAmplitude != 0.1 {
		t.Error("presets must not share state between calls")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d names, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestDensity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulation.ParticleCount = 400
	cfg.Domain.Width, cfg.Domain.Height = 20, 10
	if got := cfg.Density(); got != 2 {
		t.Errorf("expected density 2, got %v", got)
	}
}
