package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/vicsek/internal/logging"
	"github.com/san-kum/vicsek/internal/viz"
)

var (
	dataDir  string
	logLevel string
)

// main registers commands and flags, launches the preset picker when no
// subcommand is given, and exits with status 1 on error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "vicsek",
		Short:        "vicsek flocking simulation lab",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logging.Setup(logLevel)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunPicker()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".vicsek", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&runName, "name", "vicsek", "run name")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.ThemeCyberpunk.Name, "color theme")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [out.svg]",
		Short: "step a simulation and write an SVG snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSnapshot,
	}
	addSimFlags(snapshotCmd)
	snapshotCmd.Flags().Float64Var(&svgScale, "scale", 4, "pixels per domain unit")
	snapshotCmd.Flags().BoolVar(&svgLinks, "links", false, "draw neighbor links")
	snapshotCmd.Flags().BoolVar(&svgNoTrails, "no-trails", false, "omit trails")
	snapshotCmd.Flags().BoolVar(&svgVelocities, "velocities", false, "draw velocity vectors")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve a simulation over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the order parameter of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "statistics and spectrum of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&csvParticles, "particles", false, "export final particles instead of the series")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and report the order parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	addBatchFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "noise", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 5, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 11, "number of values")
	sweepCmd.Flags().StringVar(&outFormat, "format", "table", "output format (table, json, yaml)")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run several seeds of one configuration",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addSimFlags(ensembleCmd)
	addBatchFlags(ensembleCmd)
	ensembleCmd.Flags().BoolVar(&ensembleSave, "save", false, "store every run")
	ensembleCmd.Flags().StringVar(&outFormat, "format", "table", "output format (table, json, yaml)")

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "search a parameter grid for the extremum of a statistic",
		Long: "Evaluates a statistic at every combination of the given axes, e.g.\n" +
			"  vicsek grid --axis noise=0:5:11 --axis density=0.5:4:8 --metric susceptibility --maximize",
		Args: cobra.NoArgs,
		RunE: runGrid,
	}
	addSimFlags(gridCmd)
	addBatchFlags(gridCmd)
	gridCmd.Flags().StringArrayVar(&gridAxes, "axis", nil, "param=min:max:points or param=v1,v2 (repeatable)")
	gridCmd.Flags().StringVar(&gridMetric, "metric", "avg_phi", "statistic to optimize (avg_phi or a metric name)")
	gridCmd.Flags().BoolVar(&gridMaximize, "maximize", false, "maximize instead of minimize")
	gridCmd.Flags().StringVar(&outFormat, "format", "table", "output format (table, json, yaml)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addSimFlags(scenarioCmd)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file with the current settings",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	addSimFlags(configInitCmd)
	configInitCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, liveCmd, snapshotCmd, serveCmd, listCmd, plotCmd, analyzeCmd,
		exportJSONCmd, exportCSVCmd, deleteCmd, presetsCmd, sweepCmd, ensembleCmd, gridCmd, scenarioCmd, configCmd)
	return rootCmd
}

// signalContext derives from the command context and is cancelled on
// SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
