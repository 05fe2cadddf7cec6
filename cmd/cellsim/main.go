package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/cellsim/internal/analysis"
	"github.com/san-kum/cellsim/internal/automation"
	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/experiment"
	"github.com/san-kum/cellsim/internal/export"
	"github.com/san-kum/cellsim/internal/logging"
	"github.com/san-kum/cellsim/internal/metrics"
	"github.com/san-kum/cellsim/internal/optim"
	"github.com/san-kum/cellsim/internal/sim"
	"github.com/san-kum/cellsim/internal/storage"
	"github.com/san-kum/cellsim/internal/storage/archive"
	"github.com/san-kum/cellsim/internal/storage/sqlstore"
	"github.com/san-kum/cellsim/internal/viz"
)

var (
	dataDir    string
	storeKind  string
	dsn        string
	configFile string
	logLevel   string
	logFormat  string

	preset     string
	dt         float64
	steps      int
	every      int
	seed       int64
	workers    int
	integrator string

	metricsAddr string
	watch       bool
	svgOut      string
	noSave      bool

	fields []string
	out    string
	runs   int
	fps    int

	analyzeFields []string
	xField        string
	yField        string
	tolerance     float64

	param    string
	pmin     float64
	pmax     float64
	points   int
	axes     []string
	metric   string
	maximize bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cellsim",
		Short:        "adhesive cell mechanics simulator",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".cellsim", "data directory")
	pf.StringVar(&storeKind, "store", "fs", "run store: fs, sqlite or postgres")
	pf.StringVar(&dsn, "dsn", "", "database dsn for sqlite or postgres stores")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "text", "log format: text or json")

	sceneFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&preset, "preset", "", "use preset configuration")
		c.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
		c.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
		c.Flags().Int64Var(&seed, "seed", 0, "random seed")
		c.Flags().IntVar(&workers, "workers", 0, "detection workers (0 = one per cpu)")
		c.Flags().StringVar(&integrator, "integrator", "euler", "integrator: euler or verlet")
	}

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a simulation and store its statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	sceneFlags(runCmd)
	runCmd.Flags().IntVar(&every, "every", 1, "record statistics every n steps")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	runCmd.Flags().BoolVar(&watch, "watch", false, "draw the world in the terminal while running")
	runCmd.Flags().IntVar(&fps, "fps", 10, "frame rate for --watch")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write a snapshot of the final world to this svg file")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "step a scene interactively in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	sceneFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "run seeded copies of a scene concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	sceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&runs, "runs", 4, "ensemble size")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&fields, "field", []string{"edges", "mean_pressure", "kinetic_energy"}, "statistics to plot")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "write the first field as an svg chart to this file")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run statistics to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and statistics to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "copy runs to and from s3 compatible storage (CELLSIM_S3_* env)",
	}
	archiveCmd.AddCommand(
		&cobra.Command{Use: "push [run_id]", Short: "upload a run", Args: cobra.ExactArgs(1), RunE: pushRun},
		&cobra.Command{Use: "pull [run_id]", Short: "download a run into the data directory", Args: cobra.ExactArgs(1), RunE: pullRun},
		&cobra.Command{Use: "list", Short: "list archived runs", Args: cobra.NoArgs, RunE: listArchive},
	)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and settling analysis of stored statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringSliceVar(&analyzeFields, "field", []string{"kinetic_energy"}, "statistics to analyze")
	analyzeCmd.Flags().Float64Var(&tolerance, "tol", 1e-3, "settling tolerance")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "plot one statistic against another",
		Args:  cobra.ExactArgs(1),
		RunE:  phaseRun,
	}
	phaseCmd.Flags().StringVar(&xField, "x", "mean_compression", "horizontal statistic")
	phaseCmd.Flags().StringVar(&yField, "y", "mean_pressure", "vertical statistic")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "run a scene over a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScene,
	}
	sceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "adhesion", "parameter to vary")
	sweepCmd.Flags().Float64Var(&pmin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&pmax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&points, "n", 5, "number of values")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [scene]",
		Short: "grid search parameters for the best metric value",
		Args:  cobra.MaximumNArgs(1),
		RunE:  optimizeScene,
	}
	sceneFlags(optimizeCmd)
	optimizeCmd.Flags().StringArrayVar(&axes, "axis", nil, "searched parameter as name=v1,v2,... (repeatable)")
	optimizeCmd.Flags().StringVar(&metric, "metric", "energy", "metric to optimize")
	optimizeCmd.Flags().BoolVar(&maximize, "maximize", false, "prefer larger metric values")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the runs listed in a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list parameters accepted by sweep, optimize and scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDEFAULT")
			for _, name := range config.Tunables() {
				v, _ := cfg.Get(name)
				fmt.Fprintf(w, "%s\t%g\n", name, v)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, presetsCmd, archiveCmd,
		analyzeCmd, phaseCmd, sweepCmd, optimizeCmd, scenarioCmd, paramsCmd)
	return rootCmd
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	lc := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()}
	if cmd.Flags().Changed("log-level") || lc.Level == "" {
		lc.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") || lc.Format == "" {
		lc.Format = logFormat
	}
	return logging.New(lc)
}

// resolveConfig layers a preset, the config file and explicitly set flags
// over the defaults, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	scene := ""
	if len(args) > 0 {
		scene = args[0]
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		if scene == "" {
			return nil, fmt.Errorf("--preset needs a scene")
		}
		p := config.GetPreset(scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scene))
		}
		cfg = p.Clone()
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if scene != "" {
		cfg.Scene.Kind = scene
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("every") {
		cfg.Every = every
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	applyStoreFlags(cmd, &cfg.Storage)
	return cfg, cfg.Validate()
}

// applyStoreFlags lets store flags override the config file. Without a
// config file the flags, defaults included, decide.
func applyStoreFlags(cmd *cobra.Command, sc *config.StorageConfig) {
	flags := cmd.Flags()
	if flags.Changed("store") || configFile == "" || sc.Driver == "" {
		sc.Driver = storeKind
	}
	if flags.Changed("dsn") || configFile == "" {
		sc.DSN = dsn
	}
	if flags.Changed("data") || configFile == "" || sc.Dir == "" {
		sc.Dir = dataDir
	}
}

// storeConfig is used by commands that never load a scene.
func storeConfig(cmd *cobra.Command) (config.StorageConfig, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return config.StorageConfig{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	applyStoreFlags(cmd, &cfg.Storage)
	return cfg.Storage, nil
}

// openStore returns the configured backend and a close function.
func openStore(ctx context.Context, sc config.StorageConfig) (storage.Backend, func() error, error) {
	switch sc.Driver {
	case "", "fs":
		st := storage.New(sc.Dir)
		if err := st.Init(); err != nil {
			return nil, nil, err
		}
		return st, func() error { return nil }, nil
	case "sqlite":
		path := sc.DSN
		if path == "" {
			path = filepath.Join(sc.Dir, "cellsim.db")
		}
		st, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, path)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case "postgres", "pgx":
		st, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, sc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", sc.Driver)
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, st storage.Backend) error) (err error) {
	ctx := cmd.Context()
	sc, err := storeConfig(cmd)
	if err != nil {
		return err
	}
	st, closeFn, err := openStore(ctx, sc)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, st)
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "err", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg, registry, log)
	if err := exp.Setup(registry.DefaultMetrics()); err != nil {
		return err
	}
	simulator := exp.GetSimulator()

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		rec, err := metrics.NewRecorder(reg)
		if err != nil {
			return err
		}
		simulator.AddObserver(rec)
		defer serveMetrics(metricsAddr, reg, log)()
	}
	if watch {
		w := viz.NewWatcher(cmd.OutOrStdout(), cfg.Scene.Kind, cfg.Steps, fps)
		simulator.AddObserver(w)
		w.Start()
		defer w.Stop()
	}

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	world := simulator.World()

	if svgOut != "" {
		snap := world.Snapshot()
		cam := viz.NewCamera()
		cam.Fit(snap.Bounds())
		if err := os.WriteFile(svgOut, []byte(export.SnapshotToSVG(snap, cam, 800, 600)), 0644); err != nil {
			return err
		}
	}

	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "completed in %v\n", result.Elapsed)
	if !noSave {
		st, closeFn, err := openStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer closeFn()
		runID, err := st.Save(ctx, storage.RunMetadata{
			ID:         storage.NewRunID(cfg.Scene.Kind),
			Scene:      cfg.Scene.Kind,
			Preset:     preset,
			Seed:       cfg.Seed,
			Dt:         cfg.Dt,
			Steps:      cfg.Steps,
			StepsTaken: result.StepsTaken,
			Cells:      len(world.Cells()),
			Integrator: cfg.Integrator,
			Elapsed:    result.Elapsed,
			Metrics:    result.Metrics,
		}, result.Stats)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "run id: %s\n", runID)
	}

	fmt.Fprintf(stdout, "steps: %d/%d\n", result.StepsTaken, cfg.Steps)
	if final, ok := result.Final(); ok {
		fmt.Fprintf(stdout, "cells: %d  links: %d  contacts: %d\n", final.Cells, final.Edges, final.Contacts)
	}
	fmt.Fprintln(stdout, "\nmetrics:")
	for _, name := range slices.Sorted(maps.Keys(result.Metrics)) {
		fmt.Fprintf(stdout, "  %s: %.6f\n", name, result.Metrics[name])
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("run stopped at step %d: %w", result.StepsTaken, result.Errors[0])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	build := func() (*sim.World, error) {
		return experiment.New(cfg, registry, logging.Discard()).BuildWorld()
	}
	return viz.RunLive(cfg.Scene.Kind, build, cfg.Dt)
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	ens := sim.NewEnsemble(experiment.Builder(cfg, registry, logging.Discard()), runs, cfg.Seed)
	ens.SetWorkers(workers)

	log.Info("bench started", "scene", cfg.Scene.Kind, "runs", runs, "steps", cfg.Steps)
	start := time.Now()
	results, err := ens.Run(cmd.Context(), sim.Config{Dt: cfg.Dt, Steps: cfg.Steps, Seed: cfg.Seed, Every: cfg.Steps})
	if err != nil {
		return err
	}
	wall := time.Since(start)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tLINKS\tPRESSURE\tTIME\tSTEPS/SEC")
	total := 0
	for i, r := range results {
		final, _ := r.Final()
		total += r.StepsTaken
		fmt.Fprintf(w, "%d\t%d\t%d\t%.4f\t%v\t%.0f\n",
			cfg.Seed+int64(i), r.StepsTaken, final.Edges, final.MeanPressure,
			r.Elapsed.Round(time.Millisecond), float64(r.StepsTaken)/r.Elapsed.Seconds())
	}
	fmt.Fprintf(w, "total\t%d\t\t\t%v\t%.0f\n", total, wall.Round(time.Millisecond), float64(total)/wall.Seconds())
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st storage.Backend) error {
		runs, err := st.List(ctx)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSCENE\tTIME\tSTEPS\tDT\tCELLS\tINTEG")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%.4f\t%d\t%s\n",
				run.ID,
				run.Scene,
				run.Timestamp.Format("2006-01-02 15:04:05"),
				run.StepsTaken, run.Steps,
				run.Dt,
				run.Cells,
				run.Integrator,
			)
		}
		return w.Flush()
	})
}

func plotRun(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st storage.Backend) error {
		meta, err := st.Load(ctx, args[0])
		if err != nil {
			return err
		}
		stats, err := st.LoadStats(ctx, args[0])
		if err != nil {
			return err
		}
		if len(stats) < 2 {
			return fmt.Errorf("no data to plot")
		}

		stdout := cmd.OutOrStdout()
		fmt.Fprintf(stdout, "run: %s\nscene: %s\nsamples: %d\n\n", meta.ID, meta.Scene, len(stats))

		res := &sim.Result{Stats: stats}
		for _, f := range fields {
			data, err := res.Series(f)
			if err != nil {
				return err
			}
			graph := asciigraph.Plot(data,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(f+" vs step"),
			)
			fmt.Fprintln(stdout, graph)
			fmt.Fprintln(stdout)
		}

		if svgOut != "" && len(fields) > 0 {
			svg, err := export.SeriesToSVG(stats, fields[0], 800, 300, "#00ff88")
			if err != nil {
				return err
			}
			return os.WriteFile(svgOut, []byte(svg), 0644)
		}
		return nil
	})
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st storage.Backend) error {
		stats, err := st.LoadStats(ctx, args[0])
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			return fmt.Errorf("no data to export")
		}
		return storage.WriteCSV(cmd.OutOrStdout(), stats)
	})
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st storage.Backend) error {
		meta, err := st.Load(ctx, args[0])
		if err != nil {
			return err
		}
		stats, err := st.LoadStats(ctx, args[0])
		if err != nil {
			return err
		}
		if out != "" {
			return storage.ExportJSON(out, *meta, stats)
		}
		return storage.WriteJSON(cmd.OutOrStdout(), *meta, stats)
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	stdout := cmd.OutOrStdout()
	scenes := config.ListScenes()
	if len(args) > 0 {
		scenes = []string{args[0]}
	}
	for _, scene := range scenes {
		presets := config.ListPresets(scene)
		if len(presets) == 0 {
			fmt.Fprintf(stdout, "no presets for scene: %s\n", scene)
			continue
		}
		fmt.Fprintf(stdout, "%s: %s\n", scene, strings.Join(presets, ", "))
	}
	return nil
}

func openArchive(ctx context.Context) (*archive.Archive, error) {
	cfg := archive.ConfigFromEnv()
	cfg.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	return archive.New(ctx, cfg)
}

// pushRun uploads a run. Runs kept in a database are first written out in
// the directory layout of the file store.
func pushRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	return withStore(cmd, func(ctx context.Context, st storage.Backend) error {
		dir := ""
		if fs, ok := st.(*storage.Store); ok {
			dir = fs.Dir(runID)
			if _, err := fs.Load(ctx, runID); err != nil {
				return err
			}
		} else {
			tmp, err := os.MkdirTemp("", "cellsim-push-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tmp)
			meta, err := st.Load(ctx, runID)
			if err != nil {
				return err
			}
			stats, err := st.LoadStats(ctx, runID)
			if err != nil {
				return err
			}
			staged := storage.New(tmp)
			if _, err := staged.Save(ctx, *meta, stats); err != nil {
				return err
			}
			dir = staged.Dir(runID)
		}

		a, err := openArchive(ctx)
		if err != nil {
			return err
		}
		n, err := a.Push(ctx, runID, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pushed %s (%d files)\n", runID, n)
		return nil
	})
}

func pullRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openArchive(ctx)
	if err != nil {
		return err
	}
	sc, err := storeConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(sc.Dir)
	if err := st.Init(); err != nil {
		return err
	}
	n, err := a.Pull(ctx, args[0], st.Dir(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pulled %s (%d files) into %s\n", args[0], n, st.Dir(args[0]))
	return nil
}

func listArchive(cmd *cobra.Command, args []string) error {
	a, err := openArchive(cmd.Context())
	if err != nil {
		return err
	}
	ids, err := a.List(cmd.Context())
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st storage.Backend) error {
		stats, err := st.LoadStats(ctx, args[0])
		if err != nil {
			return err
		}
		if len(stats) < 4 {
			return fmt.Errorf("need at least 4 samples, got %d", len(stats))
		}
		sampleDt := stats[1].Time - stats[0].Time

		stdout := cmd.OutOrStdout()
		res := &sim.Result{Stats: stats}
		for _, f := range analyzeFields {
			data, err := res.Series(f)
			if err != nil {
				return err
			}
			power, n := analysis.Spectrum(data)
			freq, mag := analysis.Dominant(data, sampleDt)
			fmt.Fprintf(stdout, "%s\n  dominant frequency: %.4f (magnitude %.4f)\n", f, freq, mag)
			if i := analysis.Settle(data, tolerance); i < len(stats) {
				fmt.Fprintf(stdout, "  settles at t=%.3f (sample %d)\n", stats[i].Time, i)
			}
			if len(power) > 1 {
				fmt.Fprintln(stdout, asciigraph.Plot(power[1:],
					asciigraph.Height(8),
					asciigraph.Width(60),
					asciigraph.Caption(fmt.Sprintf("%s spectrum, %d bins", f, n/2))))
			}
			fmt.Fprintln(stdout)
		}
		return nil
	})
}

func phaseRun(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st storage.Backend) error {
		stats, err := st.LoadStats(ctx, args[0])
		if err != nil {
			return err
		}
		plot, err := analysis.NewPhasePlot(stats, xField, yField)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s vs %s\n%s\n", yField, xField, plot.ASCII(70, 20))
		return nil
	})
}

func sweepScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base: cfg, Param: param, Min: pmin, Max: pmax, N: points,
	}, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	names := slices.Sorted(maps.Keys(results[0].Metrics))
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tLINKS\tPRESSURE", strings.ToUpper(param))
	for _, name := range names {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(name))
	}
	fmt.Fprintln(w)
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d\t%.4f", r.Value, r.Final.Edges, r.Final.MeanPressure)
		for _, name := range names {
			fmt.Fprintf(w, "\t%.4f", r.Metrics[name])
		}
		if r.Err != nil {
			fmt.Fprintf(w, "\t%v", r.Err)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// parseAxis reads name=v1,v2,...
func parseAxis(s string) (optim.Axis, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return optim.Axis{}, fmt.Errorf("axis %q: expected name=v1,v2,...", s)
	}
	axis := optim.Axis{Param: name}
	for _, part := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return optim.Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		axis.Values = append(axis.Values, v)
	}
	return axis, nil
}

func optimizeScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(axes) == 0 {
		return fmt.Errorf("at least one --axis is required")
	}
	parsed := make([]optim.Axis, 0, len(axes))
	for _, a := range axes {
		axis, err := parseAxis(a)
		if err != nil {
			return err
		}
		parsed = append(parsed, axis)
	}

	g := optim.NewGridSearch(parsed)
	if maximize {
		g.Maximize()
	}
	registry := experiment.NewRegistry()
	best, trials, err := g.Search(cmd.Context(), optim.ConfigBuilder(cfg, registry, logging.Discard()), metric)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PARAMS\t%s\n", strings.ToUpper(metric))
	for _, t := range trials {
		if t.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", formatParams(t.Params), t.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.6f\n", formatParams(t.Params), t.Value)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nbest: %s %s=%.6f\n", formatParams(best.Params), metric, best.Value)
	return nil
}

func formatParams(p map[string]float64) string {
	parts := make([]string, 0, len(p))
	for _, k := range slices.Sorted(maps.Keys(p)) {
		parts = append(parts, fmt.Sprintf("%s=%g", k, p[k]))
	}
	return strings.Join(parts, " ")
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, config.DefaultConfig())
	if err != nil {
		return err
	}
	return withStore(cmd, func(ctx context.Context, st storage.Backend) error {
		results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), st, log)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSCENE\tSTEPS\tLINKS\tPRESSURE\tSAVED")
		for i, r := range results {
			run := sc.Runs[i]
			final, _ := r.Final()
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.4f\t%s\n", i+1, run.Scene, r.StepsTaken, final.Edges, final.MeanPressure, run.SaveAs)
		}
		if ferr := w.Flush(); ferr != nil {
			return ferr
		}
		return err
	})
}
