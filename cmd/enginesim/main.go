package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	// run
	settingsFile string
	speeds       []float64
	progress     bool
	withTime     bool
	jsonOut      string
	// optimize
	gridParams []string
	metricName string
	// plot
	column   int
	height   int
	pvPlot   bool
	logScale bool
	svgOut   string
	// species
	speciesFile string
	presetOut   string
	settingsOut string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "enginesim",
		Short:         "zero-dimensional engine and gas network simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			log.SetOutput(os.Stderr)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".enginesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [case.yaml | preset]",
		Short: "run a case to steady state at every speed",
		Args:  cobra.ExactArgs(1),
		RunE:  runCase,
	}
	runCmd.Flags().StringVar(&settingsFile, "settings", "", "solver settings file (ini)")
	runCmd.Flags().Float64SliceVar(&speeds, "speeds", nil, "engine speeds [RPM], overrides the case")
	runCmd.Flags().BoolVar(&progress, "progress", false, "show a live progress view")
	runCmd.Flags().BoolVar(&withTime, "time", true, "write a leading time column in series files")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also export the last run as json to this file")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [case.yaml | preset]",
		Short: "grid search engine parameters for the best performance metric",
		Args:  cobra.ExactArgs(1),
		RunE:  optimize,
	}
	optimizeCmd.Flags().StringVar(&settingsFile, "settings", "", "solver settings file (ini)")
	optimizeCmd.Flags().StringArrayVar(&gridParams, "param", nil, "grid axis as name=v1,v2 (speed, lambda, displacement, compression_ratio)")
	optimizeCmd.Flags().StringVar(&metricName, "metric", "power", "metric to maximize (power, torque, imep, efficiency, volumetric_efficiency, residual)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "show the performance history",
		RunE:  listPerformance,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [object]",
		Short: "plot a stored series of the final cycle",
		Args:  cobra.ExactArgs(2),
		RunE:  plotSeries,
	}
	plotCmd.Flags().IntVar(&column, "column", 1, "column to plot, 0-based without the time column")
	plotCmd.Flags().IntVar(&height, "height", 12, "plot height")
	plotCmd.Flags().BoolVar(&pvPlot, "pv", false, "draw the pressure-volume diagram of a cylinder")
	plotCmd.Flags().BoolVar(&logScale, "log", false, "logarithmic axes for --pv")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the plot as svg to this file")

	speciesCmd := &cobra.Command{
		Use:   "species",
		Short: "list the species table",
		Args:  cobra.NoArgs,
		RunE:  listSpecies,
	}
	speciesCmd.Flags().StringVar(&speciesFile, "file", "", "species table (yaml), default is the built-in table")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list built-in cases or write one to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  presets,
	}
	presetsCmd.Flags().StringVarP(&presetOut, "out", "o", "", "write the preset case to this file")

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "write the default solver settings",
		Args:  cobra.NoArgs,
		RunE:  writeSettings,
	}
	settingsCmd.Flags().StringVarP(&settingsOut, "out", "o", "solver.ini", "settings file")

	rootCmd.AddCommand(runCmd, optimizeCmd, listCmd, plotCmd, speciesCmd, presetsCmd, settingsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
