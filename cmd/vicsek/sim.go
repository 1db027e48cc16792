package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/vicsek/internal/config"
	"github.com/san-kum/vicsek/internal/experiment"
	"github.com/san-kum/vicsek/internal/export"
	"github.com/san-kum/vicsek/internal/server"
	"github.com/san-kum/vicsek/internal/storage"
	"github.com/san-kum/vicsek/internal/vicsek"
	"github.com/san-kum/vicsek/internal/viz"
)

var (
	noSave  bool
	runName string

	svgScale      float64
	svgLinks      bool
	svgNoTrails   bool
	svgVelocities bool

	addr  string
	force bool
	theme string
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	fmt.Printf("running %d particles for %d steps on %s...\n",
		cfg.Simulation.ParticleCount, cfg.Run.Steps, cfg.Domain)
	result, err := experiment.Run(ctx, experiment.Spec{
		Name:   runName,
		Config: cfg.Simulation,
		Domain: cfg.Domain,
		Steps:  cfg.Run.Steps,
	})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("final ⟨Φ⟩: %.6f\n", result.Final)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := result.Save(st)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	printMetrics(os.Stdout, result.Metrics)
	return nil
}

func printMetrics(w io.Writer, ms map[string]float64) {
	names := make([]string, 0, len(ms))
	for name := range ms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6f\n", name, ms[name])
	}
}

func newSimulation(cmd *cobra.Command) (*vicsek.Simulation, *config.Config, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	sim, err := vicsek.NewWithConfig(cfg.Simulation, cfg.Domain)
	if err != nil {
		return nil, nil, err
	}
	return sim, cfg, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if !slices.Contains(viz.ThemeNames(), theme) {
		return fmt.Errorf("unknown theme: %s (available: %v)", theme, viz.ThemeNames())
	}
	viz.SetTheme(theme)

	sim, cfg, err := newSimulation(cmd)
	if err != nil {
		return err
	}
	return viz.Run(sim, cfg.Run.FPS)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	sim, cfg, err := newSimulation(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	if err := sim.StepN(ctx, cfg.Run.Steps); err != nil {
		return err
	}

	opts := export.Options{
		Scale:      svgScale,
		Trails:     !svgNoTrails,
		Links:      svgLinks,
		Velocities: svgVelocities,
	}

	out := "-"
	if len(args) > 0 {
		out = args[0]
	}
	if out == "-" {
		return export.WriteSVG(os.Stdout, export.FromSimulation(sim), opts)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.WriteSVG(f, export.FromSimulation(sim), opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s (iteration %d, Φ %.4f)\n", out, sim.Iteration(), sim.CurrentPhi())
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	sim, cfg, err := newSimulation(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	return server.New(sim, cfg.Run.FPS, slog.Default()).Start(ctx, addr)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tN\tη\tR\tDENSITY\tINIT\tSTEPS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.3f\t%s/%s\t%d\n",
			name,
			p.Simulation.ParticleCount,
			p.Simulation.NoiseAmplitude,
			p.Simulation.InteractionRadius,
			p.Density(),
			p.Simulation.InitPositions,
			p.Simulation.InitHeadings,
			p.Run.Steps,
		)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "vicsek.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
