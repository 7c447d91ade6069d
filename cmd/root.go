package cmd

import (
	"io"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"

	sim "github.com/sharp-sim/sharp-sim/sim"
	"github.com/sharp-sim/sharp-sim/sim/cache"
	"github.com/sharp-sim/sharp-sim/sim/record"
	"github.com/sharp-sim/sharp-sim/sim/score"
	"github.com/sharp-sim/sharp-sim/sim/trace"
)

var (
	// CLI flags for the scenario
	configPath string // YAML scenario file, flags override its values
	variant    string // Attack variant: group or cross-core
	policy     string // Eviction policy of every level
	capacity   int    // Ways of the shared set
	spies      int    // Spy group size
	interval   int64  // Victim probe interval, 0 = spies+1
	l2Capacity int    // Private level capacity, 0 = none
	secretKey  string // Secret key bits
	iterations int    // Attack iterations merged into the final key
	seed       int64  // Seed for eviction choices and noise
	noise      int    // Percent chance of a foreign access per tick
	traceLevel string // Probe trace level

	// CLI flags for output
	logLevel   string // Log verbosity level
	verbose    bool   // Print every tick of every iteration
	recordPath string // SQLite database (without extension) to record results into
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "sharp-sim",
	Short: "Deterministic Prime+Probe simulator for inclusive cache hierarchies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		if verbose && level < logrus.DebugLevel {
			level = logrus.DebugLevel
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes one scenario and prints its report
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an attack scenario and print the key report",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := scenarioConfig(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		runID := xid.New().String()
		log := logrus.WithField("run", runID)
		log.Infof("Starting %s attack: policy=%s capacity=%d spies=%d key=%s iterations=%d seed=%d noise=%d",
			cfg.Variant, cfg.Policy, cfg.Capacity, cfg.Spies, cfg.Key, cfg.Iterations, cfg.Seed, cfg.Noise)

		res, runErr := runScenario(cmd.OutOrStdout(), cfg, verbose)
		if res != nil && recordPath != "" {
			if err := recordResults(recordPath, []record.SweepRow{sweepRow(cfg, res)}); err != nil {
				log.Errorf("Recording results: %v", err)
			}
		}
		if runErr != nil {
			log.Fatalf("Attack failed: %v", runErr)
		}
		log.Info("Attack complete.")
	},
}

// runScenario builds and runs cfg and writes the report to w. A result is
// returned alongside a run error when the report could still be produced.
func runScenario(w io.Writer, cfg sim.ScenarioConfig, verbose bool) (*sim.Result, error) {
	s, err := sim.Build(cfg)
	if err != nil {
		return nil, err
	}
	res, runErr := s.Run()
	if res == nil {
		return nil, runErr
	}
	if err := sim.WriteReport(w, res, verbose); err != nil {
		return res, err
	}
	if res.Trace.Enabled() {
		ts := trace.Summarize(res.Trace)
		logrus.Debugf("Trace: %d probes, spy miss rate %.3f, %d targeted evictions, %d inconclusive rounds",
			ts.TotalProbes, ts.SpyMissRate(), ts.TargetedEvictions, ts.InconclusiveRounds)
	}
	return res, runErr
}

// scenarioConfig loads --config (or the defaults) and applies every flag the
// user set explicitly.
func scenarioConfig(fs *pflag.FlagSet) (sim.ScenarioConfig, error) {
	cfg := sim.DefaultScenarioConfig()
	if configPath != "" {
		loaded, err := sim.LoadScenarioConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if fs.Changed("variant") {
		cfg.Variant = variant
	}
	if fs.Changed("policy") {
		cfg.Policy = policy
	}
	if fs.Changed("capacity") {
		cfg.Capacity = capacity
	}
	if fs.Changed("spies") {
		cfg.Spies = spies
	}
	if fs.Changed("interval") {
		cfg.Interval = interval
	}
	if fs.Changed("l2-capacity") {
		cfg.L2Capacity = l2Capacity
	}
	if fs.Changed("key") {
		cfg.Key = secretKey
	}
	if fs.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if fs.Changed("seed") {
		cfg.Seed = seed
	}
	if fs.Changed("noise") {
		cfg.Noise = noise
	}
	if fs.Changed("trace") {
		cfg.Trace = traceLevel
	}
	if verbose {
		cfg.Trace = string(trace.TraceLevelProbes)
	}
	return cfg, cfg.Validate()
}

// sweepRow scores a result for recording.
func sweepRow(cfg sim.ScenarioConfig, res *sim.Result) record.SweepRow {
	return record.SweepRow{
		Variant:   res.Variant,
		Policy:    cfg.Policy,
		Noise:     cfg.Noise,
		KeyLen:    len(res.Secret),
		Correct:   score.CorrectBits(res.Secret.Compact(), res.Final.Key.Compact()),
		Unknown:   res.Diagnostics.Unknown,
		Wrong:     res.Diagnostics.Wrong,
		Conflicts: len(res.Final.Conflicts),
	}
}

func recordResults(path string, rows []record.SweepRow) error {
	rec, err := record.Open(path)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := rec.Insert(row); err != nil {
			rec.Close()
			return err
		}
	}
	if err := rec.Close(); err != nil {
		return err
	}
	logrus.WithField("run", rec.RunID()).Infof("Recorded %d rows into %s table %s", len(rows), rec.Path(), rec.Table())
	return nil
}

// Execute runs the CLI root command. Exit goes through atexit so that
// registered recorders are flushed, including on logrus.Fatal.
func Execute() {
	logrus.StandardLogger().ExitFunc = atexit.Exit
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func addScenarioFlags(fs *pflag.FlagSet) {
	def := sim.DefaultScenarioConfig()
	fs.StringVar(&configPath, "config", "", "YAML scenario file; explicitly set flags override its values")
	fs.StringVar(&variant, "variant", def.Variant, "Attack variant (group, cross-core)")
	fs.StringVar(&policy, "policy", def.Policy, "Eviction policy ("+cache.PolicyRandom+", "+cache.PolicyOwnership+")")
	fs.IntVar(&capacity, "capacity", def.Capacity, "Ways of the shared cache set")
	fs.IntVar(&spies, "spies", def.Spies, "Number of spies in the group (group variant)")
	fs.Int64Var(&interval, "interval", def.Interval, "Victim probe interval in ticks (0 = spies+1)")
	fs.IntVar(&l2Capacity, "l2-capacity", def.L2Capacity, "Capacity of each private level below the shared set (0 = none)")
	fs.StringVar(&secretKey, "key", def.Key, "Secret key bits, e.g. 0110")
	fs.IntVar(&iterations, "iterations", def.Iterations, "Attack iterations merged into the final key")
	fs.Int64Var(&seed, "seed", def.Seed, "Seed for eviction choices and noise")
	fs.IntVar(&noise, "noise", def.Noise, "Percent chance of a foreign access per tick (0-100)")
	fs.StringVar(&traceLevel, "trace", def.Trace, "Probe trace level (none, probes)")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print every tick of every iteration (implies --log debug)")

	addScenarioFlags(runCmd.Flags())
	runCmd.Flags().StringVar(&recordPath, "record", "", "Record the scored result into this SQLite database (path without .sqlite3)")

	rootCmd.AddCommand(runCmd)
}
