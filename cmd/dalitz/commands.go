package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/san-kum/dalitz/internal/analysis"
	"github.com/san-kum/dalitz/internal/automation"
	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/dynamo"
	"github.com/san-kum/dalitz/internal/experiment"
	"github.com/san-kum/dalitz/internal/export"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/san-kum/dalitz/internal/optim"
	"github.com/san-kum/dalitz/internal/storage"
	"github.com/san-kum/dalitz/internal/tui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var fs afero.Fs = afero.NewOsFs()

// resolveConfig loads --config when given, otherwise the named preset of
// model, or its first preset.
func resolveConfig(model string) (*config.Config, error) {
	if configFile != "" {
		cfg, err := config.LoadFs(fs, configFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
		return cfg, nil
	}
	if model == "" {
		return nil, fmt.Errorf("a model or --config is required (models: %v)", config.ListModels())
	}
	presets := config.ListPresets(model)
	if len(presets) == 0 {
		return nil, fmt.Errorf("unknown model: %s (available: %v)", model, config.ListModels())
	}
	name := preset
	if name == "" {
		name = presets[0]
	}
	cfg := config.GetPreset(model, name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, presets)
	}
	return cfg, nil
}

func modelArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func writeIntegrals(eng *dynamo.Engine) error {
	if integralsFile == "" {
		return nil
	}
	f, err := fs.Create(integralsFile)
	if err != nil {
		return errors.Wrapf(err, "creating %s", integralsFile)
	}
	defer f.Close()
	return eng.WriteIntegrals(f)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(modelArg(args))
	if err != nil {
		return err
	}

	gen := &cfg.Generation
	if cmd.Flags().Changed("events") || gen.Events == 0 {
		gen.Events = events
	}
	if cmd.Flags().Changed("seed") || gen.Seed == 0 {
		gen.Seed = seed
	}
	if cmd.Flags().Changed("asq-max") {
		gen.ASqMax = aSqMax
	}
	if cmd.Flags().Changed("iterations-max") {
		gen.IterationsMax = iterationsMax
	}
	if cmd.Flags().Changed("square-dp") {
		gen.SquareDP = squareDP
	}

	st := storage.New(fs, dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg)
	if err := exp.Setup(fs, registry, registry.DefaultMetrics()); err != nil {
		return err
	}
	if err := writeIntegrals(exp.Model().Engine); err != nil {
		return err
	}
	if autoEnvelope {
		peak, err := optim.ScanASqMax(exp.Model().Engine, scanPoints, gen.SquareDP)
		if err != nil {
			return err
		}
		if err := exp.Generator().SetASqMax(1.1 * peak.Value); err != nil {
			return err
		}
		fmt.Printf("envelope from scan: %.6g (peak at m13Sq=%.4f m23Sq=%.4f)\n",
			exp.Generator().ASqMax(), peak.Point.M13Sq, peak.Point.M23Sq)
	}

	if live {
		r := tui.NewLiveRenderer(cfg.Model, exp.Model().Kin, os.Stdout, frameRate)
		exp.Generator().AddObserver(r)
		r.Start()
		defer r.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("generating %d %s events...\n", gen.Events, cfg.Model)
	start := time.Now()

	out, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.NewMetadata(out), out.Result.Events)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n\n", runID)
	fmt.Print(tui.StatusSummary(out.Result))
	fmt.Println()
	fmt.Print(tui.FitFractionTable(out.Names, out.Extra))
	return nil
}

func buildModel(args []string) (*experiment.Model, error) {
	cfg, err := resolveConfig(modelArg(args))
	if err != nil {
		return nil, err
	}
	return experiment.Build(fs, cfg, experiment.NewRegistry())
}

func resonanceNames(eng *dynamo.Engine) []string {
	names := make([]string, 0, eng.NAmp())
	for _, r := range eng.Resonances() {
		names = append(names, r.Name())
	}
	return names
}

func runNorm(cmd *cobra.Command, args []string) error {
	model, err := buildModel(args)
	if err != nil {
		return err
	}
	if err := writeIntegrals(model.Engine); err != nil {
		return err
	}
	fmt.Print(tui.ResonanceTable(model.Config))
	fmt.Println()
	fmt.Print(tui.FitFractionTable(resonanceNames(model.Engine), model.Engine.ExtraInfo()))
	return nil
}

func runEval(cmd *cobra.Command, args []string) error {
	m13Sq, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return errors.Wrap(err, "m13Sq")
	}
	m23Sq, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return errors.Wrap(err, "m23Sq")
	}

	model, err := buildModel(args[:1])
	if err != nil {
		return err
	}
	info, err := model.Engine.CalcLikelihoodInfo(m13Sq, m23Sq)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "m13Sq\t%.6f\n", info.Point.M13Sq)
	fmt.Fprintf(w, "m23Sq\t%.6f\n", info.Point.M23Sq)
	fmt.Fprintf(w, "m12Sq\t%.6f\n", info.Point.M12Sq)
	for i, name := range resonanceNames(model.Engine) {
		fmt.Fprintf(w, "F[%s]\t%.6g\n", name, info.FF[i])
	}
	fmt.Fprintf(w, "amplitude\t%.6g\n", info.Amp)
	fmt.Fprintf(w, "|A|^2\t%.6g\n", info.ASq)
	fmt.Fprintf(w, "efficiency\t%.4f\n", info.Eff)
	fmt.Fprintf(w, "likelihood\t%.6g\n", info.Likelihood)
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(fs, dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tEVENTS\tSEED\tACCEPT\tRESTARTS")

	for _, run := range runs {
		rate := 0.0
		if run.Trials > 0 {
			rate = float64(run.Accepted) / float64(run.Trials)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Events,
			run.Seed,
			rate,
			run.Restarts,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(fs, dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", meta.ID)
	fmt.Fprintf(w, "decay\t%s -> %v\n", meta.Parent, meta.Daughters)
	fmt.Fprintf(w, "events\t%d\n", meta.Events)
	fmt.Fprintf(w, "seed\t%d\n", meta.Seed)
	fmt.Fprintf(w, "trials\t%d\n", meta.Trials)
	fmt.Fprintf(w, "envelope\t%.6g\n", meta.ASqMax)
	fmt.Fprintf(w, "restarts\t%d\n", meta.Restarts)
	fmt.Fprintf(w, "DP rate\t%.6g\n", meta.DPRate)
	fmt.Fprintf(w, "mean efficiency\t%.4f\n", meta.MeanEff)
	for status, n := range meta.Statuses {
		fmt.Fprintf(w, "status %s\t%d\n", status, n)
	}
	for name, ff := range meta.FitFractions {
		fmt.Fprintf(w, "fit fraction %s\t%.4f\n", name, ff)
	}
	for name, v := range meta.Metrics {
		fmt.Fprintf(w, "metric %s\t%.6g\n", name, v)
	}
	return w.Flush()
}

type runData struct {
	meta   *storage.RunMetadata
	kin    *kinematics.Kinematics
	hist   *analysis.Histogram2D
	points []analysis.Point2
}

// loadRun rebuilds the decay kinematics of a run and bins its events.
func loadRun(runID string, bins int) (*runData, error) {
	st := storage.New(fs, dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	evts, err := st.LoadEvents(runID)
	if err != nil {
		return nil, err
	}
	if len(evts) == 0 {
		return nil, fmt.Errorf("no data to plot")
	}

	kin, err := experiment.DecayKinematics(meta.Parent, meta.Daughters, false)
	if err != nil {
		return nil, err
	}
	h, err := analysis.NewDalitzHistogram(kin, bins, bins)
	if err != nil {
		return nil, err
	}
	points := make([]analysis.Point2, len(evts))
	for i, ev := range evts {
		h.Fill(ev.M13Sq, ev.M23Sq)
		points[i] = analysis.Point2{X: ev.M13Sq, Y: ev.M23Sq}
	}
	return &runData{meta: meta, kin: kin, hist: h, points: points}, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0], nBins)
	if err != nil {
		return err
	}
	h := run.hist

	fmt.Printf("run: %s\n", run.meta.ID)
	fmt.Printf("model: %s\n", run.meta.Model)
	fmt.Printf("events: %d\n\n", len(run.points))

	fmt.Print(analysis.ScatterToASCII(run.points, run.kin, 70, 24))
	fmt.Println()

	fmt.Println(asciigraph.Plot(h.ProjectionX(),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("m13Sq projection [%.3f, %.3f]", h.XMin, h.XMax)),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(h.ProjectionY(),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("m23Sq projection [%.3f, %.3f]", h.YMin, h.YMax)),
	))
	return nil
}

func checkRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0], nBins)
	if err != nil {
		return err
	}

	res, err := analysis.UniformityChiSquare(run.hist, run.kin)
	if err != nil {
		return err
	}
	fmt.Printf("chi2/ndf = %.2f/%d  p = %.4g  (%d bins, %.1f expected per bin)\n",
		res.ChiSquare, res.NDF, res.PValue, res.Bins, res.Expected)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0], 1)
	if err != nil {
		return err
	}
	if outFile == "" {
		return export.WriteDalitzSVG(os.Stdout, run.points, run.kin, 600, 600)
	}
	f, err := fs.Create(outFile)
	if err != nil {
		return errors.Wrapf(err, "creating %s", outFile)
	}
	defer f.Close()
	if err := export.WriteDalitzSVG(f, run.points, run.kin, 600, 600); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func runToys(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(modelArg(args))
	if err != nil {
		return err
	}
	cfg.Generation.Events = toyEvents

	st := storage.New(fs, dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry := experiment.NewRegistry()
	ens := experiment.NewEnsemble(fs, cfg, registry, numToys, toySeed, registry.DefaultMetrics)
	outs, err := ens.Run(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEED\tEVENTS\tACCEPT\tRESTARTS\tENVELOPE")
	for _, out := range outs {
		runID, err := st.Save(storage.NewMetadata(out), out.Result.Events)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%d\t%.4g\n",
			runID,
			out.Config.Generation.Seed,
			len(out.Result.Events),
			out.Result.Stats.AcceptanceRate(),
			out.Result.Restarts,
			out.Result.ASqMax,
		)
	}
	return w.Flush()
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(modelArg(args))
	if err != nil {
		return err
	}
	cfg.Generation.Events = scanEvts
	cfg.Generation.Seed = scanSeed

	registry := experiment.NewRegistry()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := cfg.Clone()
		for name, v := range params {
			switch name {
			case "asq_max":
				c.Generation.ASqMax = v
			case "iterations_max":
				c.Generation.IterationsMax = int(v)
			default:
				return nil, fmt.Errorf("cannot scan %q", name)
			}
		}
		exp := experiment.New(c)
		if err := exp.Setup(fs, registry, registry.DefaultMetrics()); err != nil {
			return nil, err
		}
		return exp, nil
	}

	gs := optim.NewGridSearch([]string{scanParam}, [][]float64{scanVals})
	best, val, err := gs.Search(cmd.Context(), build, metric)
	if err != nil {
		return err
	}
	fmt.Printf("best %s = %g (%s = %.6g)\n", scanParam, best[scanParam], metric, val)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(fs, args[0])
	if err != nil {
		return err
	}

	st := storage.New(fs, dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario %s: %s\n", sc.Name, sc.Description)
	outs, err := automation.RunScenario(cmd.Context(), fs, sc, experiment.NewRegistry())
	for i, out := range outs {
		runID, serr := st.Save(storage.NewMetadata(out), out.Result.Events)
		if serr != nil {
			return serr
		}
		fmt.Printf("  step %d: %s (%d events)\n", i+1, runID, len(out.Result.Events))
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(modelArg(args))
	if err != nil {
		return err
	}
	if sweepRes == "" {
		return fmt.Errorf("--resonance is required")
	}

	sweep := &automation.CoefficientSweep{Resonance: sweepRes, Min: sweepMin, Max: sweepMax, NumSteps: sweepSteps}
	results, err := automation.RunSweep(cmd.Context(), fs, cfg, sweep, experiment.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "|c|")
	for _, r := range cfg.Resonances {
		fmt.Fprintf(w, "\t%s", r.Name)
	}
	fmt.Fprintln(w, "\ttotal")
	for _, res := range results {
		fmt.Fprintf(w, "%.3f", res.Magnitude)
		for _, ff := range res.FitFractions {
			fmt.Fprintf(w, "\t%.4f", ff)
		}
		fmt.Fprintf(w, "\t%.4f\n", res.Total)
	}
	return w.Flush()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(fs, dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	evts, err := st.LoadEvents(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, evts)
}
