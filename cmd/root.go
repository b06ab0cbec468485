package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roadsim/roadsim/sim"
	"github.com/roadsim/roadsim/sim/analytics"
	"github.com/roadsim/roadsim/sim/control"
	"github.com/roadsim/roadsim/sim/roadnet"
	"github.com/roadsim/roadsim/sim/trace"

	// sub-simulator registrations
	_ "github.com/roadsim/roadsim/sim/driving"
	_ "github.com/roadsim/roadsim/sim/intersection"
	_ "github.com/roadsim/roadsim/sim/parking"
	_ "github.com/roadsim/roadsim/sim/walking"
)

var (
	// CLI flags for the run command
	scenarioPath   string  // Scenario YAML file
	mapPath        string  // Road network YAML file
	gridRows       int     // Rows of the generated grid
	gridCols       int     // Columns of the generated grid
	controlsPath   string  // Control map YAML file
	seed           int64   // Seed for the random stream
	ticks          int64   // Number of time-steps to run
	parkedPercent  float64 // Fraction of parking spots filled before the run
	cars           int     // Parked cars started at tick 0
	pedestrians    int     // Pedestrians spawned at tick 0
	workers        int     // Pathfinding workers
	traceLevel     string  // Spawn trace level
	logLevel       string  // Log verbosity level
	loadPath       string  // Snapshot to resume from
	savePath       string  // Snapshot written after the run
	recordBaseline string  // Analytics baseline written after the run
	baselinePath   string  // Analytics baseline compared against after the run
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "roadsim",
	Short: "Deterministic tick-stepped traffic simulator",
}

// runCmd executes a scenario using parameters from the scenario file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a traffic simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		sc := DefaultScenario()
		if scenarioPath != "" {
			if sc, err = LoadScenario(scenarioPath); err != nil {
				logrus.Fatalf("Unable to load scenario: %v", err)
			}
		}
		applyFlagOverrides(cmd, &sc)
		if err := sc.Validate(); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		startTime := time.Now()
		opts := runOptions{load: loadPath, save: savePath, recordBaseline: recordBaseline, baseline: baselinePath}
		if err := runScenario(sc, opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime))
	},
}

// applyFlagOverrides copies explicitly set flags over the scenario.
func applyFlagOverrides(cmd *cobra.Command, sc *Scenario) {
	flags := cmd.Flags()
	if flags.Changed("map") {
		sc.Map = mapPath
	}
	if flags.Changed("rows") {
		sc.Grid.Rows = gridRows
	}
	if flags.Changed("cols") {
		sc.Grid.Cols = gridCols
	}
	if flags.Changed("controls") {
		sc.Controls = controlsPath
	}
	if flags.Changed("seed") {
		s := seed
		sc.Seed = &s
	}
	if flags.Changed("ticks") {
		sc.Ticks = ticks
	}
	if flags.Changed("parked-percent") {
		sc.ParkedPercent = parkedPercent
	}
	if flags.Changed("cars") {
		sc.Cars = cars
	}
	if flags.Changed("peds") {
		sc.Pedestrians = pedestrians
	}
	if flags.Changed("workers") {
		sc.Workers = workers
	}
	if flags.Changed("trace") {
		sc.Trace = trace.TraceLevel(traceLevel)
	}
}

type runOptions struct {
	load           string
	save           string
	recordBaseline string
	baseline       string
}

// runScenario builds (or resumes) a simulation, runs it for sc.Ticks and
// writes the report to out.
func runScenario(sc Scenario, opts runOptions, out io.Writer) error {
	m, err := sc.LoadNetwork()
	if err != nil {
		return err
	}
	controls := control.NewControlMap(m)
	if sc.Controls != "" {
		if controls, err = control.LoadControlMap(sc.Controls, m); err != nil {
			return err
		}
	}

	cfg := sim.SimConfig{Seed: sc.Seed, Workers: sc.Workers, Trace: trace.TraceConfig{Level: sc.Trace}}
	s, err := newOrLoadSim(m, cfg, opts.load)
	if err != nil {
		return err
	}
	if opts.load == "" {
		s.SeedParkedCars(sc.ParkedPercent)
		s.StartManyParkedCars(m, sc.Cars)
		s.SeedPedestrians(m, sc.Pedestrians)
	}

	logrus.Infof("Starting simulation on %s for %d ticks", m.Name, sc.Ticks)
	b := s.StartBenchmark()
	for i := int64(0); i < sc.Ticks; i++ {
		s.Step(m, controls)
		if b.HasRealTimePassed(time.Second) {
			logrus.Infof("%s, speed = %.2fx", s.Summary(), s.MeasureSpeed(b))
		}
	}

	if err := report(out, s, opts.baseline); err != nil {
		return err
	}
	if opts.save != "" {
		if err := saveSnapshot(s, m, opts.save); err != nil {
			return err
		}
	}
	if opts.recordBaseline != "" {
		if err := analytics.SaveBaseline(s.Analytics(), opts.recordBaseline); err != nil {
			return err
		}
		logrus.Infof("Recorded baseline to %s", opts.recordBaseline)
	}
	return nil
}

func newOrLoadSim(m *roadnet.Map, cfg sim.SimConfig, path string) (*sim.Sim, error) {
	if path == "" {
		return sim.New(m, cfg), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()
	s, err := sim.Load(f, m, cfg)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Resumed from %s at %s", path, s.Time())
	return s, nil
}

func saveSnapshot(s *sim.Sim, m *roadnet.Map, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing snapshot: %w", closeErr)
		}
	}()
	if err := s.Save(f, m); err != nil {
		return err
	}
	logrus.Infof("Saved snapshot to %s", path)
	return nil
}

// report prints the final summary, trip statistics, the spawn trace summary
// and, when a baseline is given, the comparison against it.
func report(out io.Writer, s *sim.Sim, baselinePath string) error {
	_, _ = fmt.Fprintln(out, "=== Simulation Summary ===")
	_, _ = fmt.Fprintln(out, s.Summary())

	now := s.Time().AsDuration()
	for _, mode := range []analytics.Mode{analytics.ModeDrive, analytics.ModeWalk} {
		stats := s.Analytics().FinishedTrips(now, mode)
		if stats.Count() == 0 {
			_, _ = fmt.Fprintf(out, "%s: no finished trips\n", mode)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s: %d finished trips, mean %s, 50%%ile %s, max %s\n", mode, stats.Count(),
			stats.Select(analytics.Mean), stats.Select(analytics.P50), stats.Select(analytics.Max))
	}

	if s.Trace().Enabled() {
		ts := trace.Summarize(s.Trace())
		_, _ = fmt.Fprintf(out, "spawns: %d decisions, %d spawned, %d failed\n", ts.TotalDecisions, ts.SpawnedCount, ts.FailedCount)
		_, _ = fmt.Fprintf(out, "  %d car and %d pedestrian attempts\n", ts.CarAttempts, ts.PedestrianAttempts)
		reasons := lo.Keys(ts.FailureReasons)
		slices.Sort(reasons)
		for _, reason := range reasons {
			_, _ = fmt.Fprintf(out, "  %s: %d\n", reason, ts.FailureReasons[reason])
		}
	}

	if baselinePath == "" {
		return nil
	}
	baseline, err := analytics.LoadBaseline(baselinePath)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "=== Compared to baseline ===")
	for _, mode := range []analytics.Mode{analytics.ModeDrive, analytics.ModeWalk} {
		for _, line := range analytics.Compare(now, mode, s.Analytics(), baseline) {
			_, _ = fmt.Fprintln(out, line)
		}
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file (flags override its fields)")
	runCmd.Flags().StringVar(&mapPath, "map", "", "Road network YAML file (default: generated grid)")
	runCmd.Flags().IntVar(&gridRows, "rows", 3, "Rows of the generated grid")
	runCmd.Flags().IntVar(&gridCols, "cols", 3, "Columns of the generated grid")
	runCmd.Flags().StringVar(&controlsPath, "controls", "", "Control map YAML file (default: derived from the map)")
	runCmd.Flags().Int64Var(&seed, "seed", DefaultSeed, "Seed for the random stream (set `seed: null` in the scenario to seed from entropy)")
	runCmd.Flags().Int64Var(&ticks, "ticks", 3000, "Number of 100ms time-steps to run")
	runCmd.Flags().Float64Var(&parkedPercent, "parked-percent", 0.5, "Fraction of parking spots filled before the run")
	runCmd.Flags().IntVar(&cars, "cars", 20, "Parked cars to start at tick 0")
	runCmd.Flags().IntVar(&pedestrians, "peds", 20, "Pedestrians to spawn at tick 0")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Pathfinding workers (0 = GOMAXPROCS)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Spawn trace level (none, spawns)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&loadPath, "load", "", "Resume from a JSON snapshot instead of spawning")
	runCmd.Flags().StringVar(&savePath, "save", "", "Write a JSON snapshot after the run")
	runCmd.Flags().StringVar(&recordBaseline, "record-baseline", "", "Write finished-trip analytics as a baseline after the run")
	runCmd.Flags().StringVar(&baselinePath, "baseline", "", "Compare finished trips against a recorded baseline")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
