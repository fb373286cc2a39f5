package main

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/experiment"
	"github.com/san-kum/dalitz/internal/tui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	configFile    string
	preset        string
	events        int
	seed          int64
	aSqMax        float64
	iterationsMax int
	squareDP      bool
	live          bool
	frameRate     int
	integralsFile string
	autoEnvelope  bool
	scanPoints    int

	nBins     int
	outFile   string
	numToys   int
	toyEvents int
	toySeed   int64
	scanEvts  int
	scanSeed  int64
	scanParam string
	scanVals  []float64
	metric    string

	sweepRes   string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dalitz",
		Short: "Dalitz-plot isobar amplitude engine and toy generator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dalitz", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	genCmd := &cobra.Command{
		Use:   "gen [model]",
		Short: "generate a toy sample",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGenerate,
	}
	addModelFlags(genCmd)
	genCmd.Flags().IntVar(&events, "events", config.DefaultEvents, "number of events")
	genCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	genCmd.Flags().Float64Var(&aSqMax, "asq-max", config.DefaultASqMax, "initial envelope")
	genCmd.Flags().IntVar(&iterationsMax, "iterations-max", config.DefaultIterationsMax, "trials per event before giving up")
	genCmd.Flags().BoolVar(&squareDP, "square-dp", false, "generate in the square Dalitz plot")
	genCmd.Flags().BoolVar(&live, "live", false, "draw accepted events while generating")
	genCmd.Flags().IntVar(&frameRate, "fps", 20, "frame rate for --live")
	genCmd.Flags().StringVar(&integralsFile, "integrals", "", "write normalisation integrals to file")
	genCmd.Flags().BoolVar(&autoEnvelope, "auto-envelope", false, "set the envelope from a scan of the Dalitz plot")
	genCmd.Flags().IntVar(&scanPoints, "scan-points", 100, "scan points per axis for --auto-envelope")

	toysCmd := &cobra.Command{
		Use:   "toys [model]",
		Short: "generate independent toy samples concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runToys,
	}
	addModelFlags(toysCmd)
	toysCmd.Flags().IntVar(&numToys, "n", 4, "number of toys")
	toysCmd.Flags().IntVar(&toyEvents, "events", config.DefaultEvents, "events per toy")
	toysCmd.Flags().Int64Var(&toySeed, "seed", 1, "seed of the first toy")

	scanCmd := &cobra.Command{
		Use:   "scan [model]",
		Short: "scan a generation setting and report the best value of a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	addModelFlags(scanCmd)
	scanCmd.Flags().StringVar(&scanParam, "param", "asq_max", "setting to scan (asq_max, iterations_max)")
	scanCmd.Flags().Float64SliceVar(&scanVals, "values", []float64{0.5, 1, 2, 4}, "values to try")
	scanCmd.Flags().StringVar(&metric, "metric", "envelope_headroom", "metric to minimise")
	scanCmd.Flags().IntVar(&scanEvts, "events", 500, "events per point")
	scanCmd.Flags().Int64Var(&scanSeed, "seed", 1, "random seed")

	normCmd := &cobra.Command{
		Use:   "norm [model]",
		Short: "compute normalisation integrals and fit fractions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runNorm,
	}
	addModelFlags(normCmd)
	normCmd.Flags().StringVar(&integralsFile, "integrals", "", "write normalisation integrals to file")

	evalCmd := &cobra.Command{
		Use:   "eval [model] [m13Sq] [m23Sq]",
		Short: "evaluate the amplitude at a Dalitz-plot point",
		Args:  cobra.ExactArgs(3),
		RunE:  runEval,
	}
	addModelFlags(evalCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run summary",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the Dalitz plot and its projections",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&nBins, "bins", 40, "projection bins")

	checkCmd := &cobra.Command{
		Use:   "check [run_id]",
		Short: "chi-square test of a run against a flat Dalitz plot",
		Args:  cobra.ExactArgs(1),
		RunE:  checkRun,
	}
	checkCmd.Flags().IntVar(&nBins, "bins", 20, "bins per axis")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the generation steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "fit fractions as one coefficient magnitude varies",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addModelFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepRes, "resonance", "", "component whose coefficient is scaled")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "smallest magnitude")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2, "largest magnitude")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of magnitudes")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the Dalitz plot of a run to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models with presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range config.ListModels() {
				fmt.Printf("  %-12s %v\n", m, config.ListPresets(m))
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Print(tui.ResonanceTable(config.GetPreset(args[0], p)))
				fmt.Println()
			}
			return nil
		},
	}

	kindsCmd := &cobra.Command{
		Use:   "kinds",
		Short: "list resonance lineshape kinds",
		Run: func(cmd *cobra.Command, args []string) {
			for _, k := range experiment.NewRegistry().ListKinds() {
				fmt.Printf("  %s\n", k)
			}
		},
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive model browser and generator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive()
		},
	}

	rootCmd.AddCommand(genCmd, toysCmd, scanCmd, scenarioCmd, sweepCmd, normCmd, evalCmd, listCmd, showCmd, plotCmd, checkCmd,
		exportSVGCmd, exportJSONCmd, modelsCmd, presetsCmd, kindsCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "model file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}
