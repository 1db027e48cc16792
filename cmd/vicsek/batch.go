package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/vicsek/internal/experiment"
	"github.com/san-kum/vicsek/internal/optim"
	"github.com/san-kum/vicsek/internal/storage"
)

var (
	repeats   int
	seedStart int64
	parallel  int
	outFormat string

	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepPoints int

	ensembleSave bool

	gridAxes     []string
	gridMetric   string
	gridMaximize bool
)

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&repeats, "repeats", 4, "seeds per configuration")
	cmd.Flags().Int64Var(&seedStart, "seed-start", 1, "first seed")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 uses all CPUs)")
}

// writeStructured prints v as json or yaml and reports whether it did.
func writeStructured(w io.Writer, v any) (bool, error) {
	switch outFormat {
	case "json":
		return true, storage.WriteJSON(w, v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case "table", "":
		return false, nil
	}
	return true, fmt.Errorf("unknown format %q (want table, json or yaml)", outFormat)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	points, err := experiment.Sweep(ctx, experiment.SweepSpec{
		Base: experiment.Spec{
			Name:   "sweep",
			Config: cfg.Simulation,
			Domain: cfg.Domain,
			Steps:  cfg.Run.Steps,
		},
		Param:     sweepParam,
		Min:       sweepMin,
		Max:       sweepMax,
		Points:    sweepPoints,
		Repeats:   repeats,
		SeedStart: seedStart,
		Parallel:  parallel,
	})
	if err != nil {
		return err
	}

	if done, err := writeStructured(os.Stdout, points); done {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t⟨Φ⟩\tσ\tχ\tBINDER\n", sweepParam)
	for _, p := range points {
		fmt.Fprintf(w, "%.4g\t%.4f\t%.4f\t%.4f\t%.4f\n", p.Value, p.MeanPhi, p.StdPhi, p.Susceptibility, p.Binder)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(points) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(experiment.Values(points, func(p experiment.SweepPoint) float64 { return p.MeanPhi }),
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.Caption(fmt.Sprintf("⟨Φ⟩ vs %s in [%g, %g]", sweepParam, sweepMin, sweepMax)),
		))
	}
	if c, ok := experiment.Critical(points); ok {
		fmt.Printf("\npeak susceptibility at %s = %.4g (χ = %.4f)\n", sweepParam, c.Value, c.Susceptibility)
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	results, err := experiment.Ensemble(ctx, experiment.Spec{
		Name:   "ensemble",
		Config: cfg.Simulation,
		Domain: cfg.Domain,
		Steps:  cfg.Run.Steps,
	}, repeats, seedStart, parallel)
	if err != nil {
		return err
	}

	if ensembleSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		for _, r := range results {
			if _, err := r.Save(st); err != nil {
				return err
			}
		}
	}

	sum := experiment.Summarize(results)
	if done, err := writeStructured(os.Stdout, sum); done {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\t⟨Φ⟩\tELAPSED")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.4f\t%v\n", r.Config.Seed, r.Final, r.Elapsed.Round(1e6))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d runs: ⟨Φ⟩ = %.4f ± %.4f (min %.4f, max %.4f)\n", sum.Runs, sum.Mean, sum.StdDev, sum.Min, sum.Max)
	printMetrics(os.Stdout, sum.Metrics)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := experiment.LoadScenario(args[0])
	if err != nil {
		return err
	}
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	results, err := experiment.RunScenario(ctx, sc, base)
	if err != nil {
		return err
	}

	var st *storage.Store
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "scenario: %s\n", sc.Name)
	fmt.Fprintln(w, "RUN\tN\tη\tSTEPS\t⟨Φ⟩\tID")
	for i, r := range results {
		id := "-"
		if sc.Runs[i].Save {
			if st == nil {
				st = storage.New(dataDir)
				if err := st.Init(); err != nil {
					return err
				}
			}
			if id, err = r.Save(st); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%d\t%.4f\t%s\n", r.Name, r.Config.ParticleCount, r.Config.NoiseAmplitude, r.Steps, r.Final, id)
	}
	return w.Flush()
}

func runGrid(cmd *cobra.Command, args []string) error {
	if len(gridAxes) == 0 {
		return fmt.Errorf("at least one --axis is required")
	}
	axes := make([]optim.Axis, 0, len(gridAxes))
	for _, s := range gridAxes {
		a, err := optim.ParseAxis(s)
		if err != nil {
			return err
		}
		axes = append(axes, a)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	g := optim.NewGridSearch(axes, gridMetric).Seeds(seedStart, repeats).Parallel(parallel)
	if gridMaximize {
		g.Maximize()
	}
	best, cells, err := g.Search(ctx, experiment.Spec{
		Name:   "grid",
		Config: cfg.Simulation,
		Domain: cfg.Domain,
		Steps:  cfg.Run.Steps,
	})
	if err != nil {
		return err
	}

	if done, err := writeStructured(os.Stdout, map[string]any{"best": best, "cells": cells}); done {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, a := range axes {
		fmt.Fprintf(w, "%s\t", a.Param)
	}
	fmt.Fprintf(w, "%s\t⟨Φ⟩\n", gridMetric)
	for _, c := range cells {
		for _, a := range axes {
			fmt.Fprintf(w, "%.4g\t", c.Params[a.Param])
		}
		fmt.Fprintf(w, "%.4f\t%.4f\n", c.Value, c.MeanPhi)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.4f at", gridMetric, best.Value)
	for _, a := range axes {
		fmt.Printf(" %s=%.4g", a.Param, best.Params[a.Param])
	}
	fmt.Println()
	return nil
}
