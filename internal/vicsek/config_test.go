package vicsek

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestValidateAcceptsEdgeValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoiseAmplitude = 0
	cfg.Speed = 0
	cfg.BurnIn = 0
	cfg.Trails = 0
	cfg.NeighborSearch = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AvgWindow = -4

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "avg_window") || !strings.Contains(err.Error(), "-4") {
		t.Errorf("message should name field and value, got %q", err.Error())
	}
}

func TestConfigPatch(t *testing.T) {
	tests := []struct {
		name  string
		patch ConfigPatch
		reset bool
	}{
		{"empty", ConfigPatch{}, false},
		{"noise", ConfigPatch{NoiseAmplitude: Ptr(1.0)}, false},
		{"radius and speed", ConfigPatch{InteractionRadius: Ptr(2.0), Speed: Ptr(0.3)}, false},
		{"trails", ConfigPatch{Trails: Ptr(0)}, false},
		{"workers", ConfigPatch{Workers: Ptr(8)}, false},
		{"seed", ConfigPatch{Seed: Ptr(int64(1))}, true},
		{"count", ConfigPatch{ParticleCount: Ptr(10)}, true},
		{"headings", ConfigPatch{InitHeadings: Ptr(HeadingsAligned)}, true},
		{"positions with noise", ConfigPatch{InitPositions: Ptr(PositionsGrid), NoiseAmplitude: Ptr(0.0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.patch.RequiresReset(); got != tt.reset {
				t.Errorf("expected RequiresReset %v, got %v", tt.reset, got)
			}
			if got := tt.patch.Empty(); got != (tt.name == "empty") {
				t.Errorf("unexpected Empty() = %v", got)
			}
		})
	}
}

func TestConfigPatchApply(t *testing.T) {
	base := DefaultConfig()
	p := ConfigPatch{
		NoiseAmplitude: Ptr(2.0),
		BurnIn:         Ptr(0),
		NeighborSearch: Ptr(SearchGrid),
	}

	got := p.Apply(base)
	if got.NoiseAmplitude != 2 || got.BurnIn != 0 || got.NeighborSearch != SearchGrid {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.ParticleCount != base.ParticleCount || got.Seed != base.Seed {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if base != DefaultConfig() {
		t.Error("Apply must not modify its argument")
	}
}
