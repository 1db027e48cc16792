package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/vicsek/internal/analysis"
	"github.com/san-kum/vicsek/internal/storage"
)

var csvParticles bool

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tN\tη\tR\tSTEPS\t⟨Φ⟩\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3f\t%.2f\t%d\t%.4f\t%v\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.ParticleCount,
			run.Config.NoiseAmplitude,
			run.Config.InteractionRadius,
			run.Steps,
			run.AvgPhi,
			run.Elapsed.Round(1e6),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	if len(series.Phi) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d  noise: %.3f  domain: %s\n", meta.Config.ParticleCount, meta.Config.NoiseAmplitude, meta.Domain)
	fmt.Printf("samples: %d\n\n", len(series.Phi))

	graph := asciigraph.PlotMany([][]float64{series.Phi, series.AvgPhi},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(1),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow),
		asciigraph.Caption("Φ (green) and ⟨Φ⟩ (yellow) vs iteration"),
	)
	fmt.Println(graph)
	fmt.Println()
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	// Only the post burn-in part of the series is stationary. Phi[i]
	// belongs to iteration i+1.
	from := max(0, meta.Config.BurnIn-1)
	if from >= len(series.Phi) {
		return fmt.Errorf("run %s has no samples after burn-in (%d steps, burn-in %d)", meta.ID, len(series.Phi), meta.Config.BurnIn)
	}
	data := series.Phi[from:]

	sum := analysis.Summarize(data)
	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("samples after burn-in: %d\n\n", sum.N)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "mean Φ\t%.6f\n", sum.Mean)
	fmt.Fprintf(w, "std dev\t%.6f\n", sum.StdDev)
	fmt.Fprintf(w, "min / max\t%.6f / %.6f\n", sum.Min, sum.Max)
	fmt.Fprintf(w, "autocorrelation time\t%.2f steps\n", sum.Tau)
	fmt.Fprintf(w, "std error\t%.6f\n", sum.StdErr)
	if period := analysis.DominantPeriod(analysis.Detrend(data)); period > 0 {
		fmt.Fprintf(w, "dominant period\t%.1f steps\n", period)
	}
	for name, v := range meta.Metrics {
		fmt.Fprintf(w, "%s\t%.6f\n", name, v)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(analysis.Detrend(data))
	if len(ps) > 8 {
		plotData := ps[1 : len(ps)/4+1]
		fmt.Println()
		fmt.Println(asciigraph.Plot(plotData,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum of Φ (low frequencies)"),
		))
	}

	acf := analysis.Autocorrelation(data, min(len(data)/2, 200))
	if len(acf) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(acf,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.UpperBound(1),
			asciigraph.Caption("autocorrelation of Φ vs lag"),
		))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	return st.ExportJSON(os.Stdout, args[0])
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	if !csvParticles {
		return st.CopySeries(os.Stdout, runID)
	}

	particles, err := st.LoadParticles(runID)
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	w.Write([]string{"index", "x", "y", "theta"})
	for i, p := range particles {
		w.Write([]string{
			strconv.Itoa(i),
			strconv.FormatFloat(p.Pos.X, 'g', -1, 64),
			strconv.FormatFloat(p.Pos.Y, 'g', -1, 64),
			strconv.FormatFloat(p.Theta, 'g', -1, 64),
		})
	}
	w.Flush()
	return w.Error()
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
