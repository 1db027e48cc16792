package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vicsek/internal/config"
	"github.com/san-kum/vicsek/internal/torus"
	"github.com/san-kum/vicsek/internal/vicsek"
)

// Scenario is a scripted list of runs read from yaml.
//
//	name: noise-ladder
//	steps: 500
//	runs:
//	  - name: quiet
//	    set: {noise_amplitude: 0.1}
//	  - name: loud
//	    preset: disordered
//	    steps: 1000
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Steps       int           `yaml:"steps"`
	Domain      *torus.Domain `yaml:"domain,omitempty"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun is one entry of a scenario. Preset, when set, replaces the
// base configuration; Set is then applied on top.
type ScenarioRun struct {
	Name   string             `yaml:"name"`
	Preset string             `yaml:"preset,omitempty"`
	Steps  int                `yaml:"steps,omitempty"`
	Domain *torus.Domain      `yaml:"domain,omitempty"`
	Set    vicsek.ConfigPatch `yaml:"set,omitempty"`
	Save   bool               `yaml:"save,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("experiment: parse scenario: %w", err)
	}
	if len(sc.Runs) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no runs", ErrInvalidSpec, sc.Name)
	}
	return &sc, nil
}

// Specs resolves every run of sc against base into a runnable Spec.
func (sc *Scenario) Specs(base *config.Config) ([]Spec, error) {
	specs := make([]Spec, 0, len(sc.Runs))
	for i, run := range sc.Runs {
		cfg := base.Clone()
		if run.Preset != "" {
			p := config.GetPreset(run.Preset)
			if p == nil {
				return nil, fmt.Errorf("%w: run %d: unknown preset %q", ErrInvalidSpec, i+1, run.Preset)
			}
			cfg = p
		}
		if sc.Domain != nil {
			cfg.Domain = *sc.Domain
		}
		if run.Domain != nil {
			cfg.Domain = *run.Domain
		}

		steps := cfg.Run.Steps
		if sc.Steps > 0 {
			steps = sc.Steps
		}
		if run.Steps > 0 {
			steps = run.Steps
		}

		name := run.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", sc.Name, i+1)
		}

		specs = append(specs, Spec{
			Name:   name,
			Config: run.Set.Apply(cfg.Simulation),
			Domain: cfg.Domain,
			Steps:  steps,
		})
	}
	return specs, nil
}

// RunScenario executes all runs of a scenario in order.
func RunScenario(ctx context.Context, sc *Scenario, base *config.Config) ([]*Result, error) {
	specs, err := sc.Specs(base)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(specs))
	for i, spec := range specs {
		slog.Info("scenario run", "scenario", sc.Name, "step", i+1, "of", len(specs), "name", spec.Name)

		res, err := Run(ctx, spec)
		if err != nil {
			return results, fmt.Errorf("run %d (%s): %w", i+1, spec.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}
