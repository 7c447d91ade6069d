package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/sharp-sim/sharp-sim/sim"
	"github.com/sharp-sim/sharp-sim/sim/record"
	"github.com/sharp-sim/sharp-sim/sim/score"
)

var (
	// CLI flags for the noise sweep
	noiseFrom int    // First noise level
	noiseTo   int    // Noise level bound (exclusive)
	noiseStep int    // Noise increment
	csvPath   string // CSV file for plotting
)

// sweepCmd runs the same scenario across a range of noise levels
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a scenario for every noise level in [from, to) and score the recovered keys",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := scenarioConfig(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		log := logrus.WithField("run", xid.New().String())
		log.Infof("Sweeping noise %d..%d step %d over a %s attack", noiseFrom, noiseTo, noiseStep, cfg.Variant)

		rows, summary, err := runSweep(cmd.OutOrStdout(), cfg, noiseFrom, noiseTo, noiseStep)
		if err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		printSummary(cmd.OutOrStdout(), summary)

		if csvPath != "" {
			if err := writeCSVFile(csvPath, rows); err != nil {
				log.Fatalf("Writing CSV: %v", err)
			}
			log.Infof("Wrote %d rows to %s", len(rows), csvPath)
		}
		if recordPath != "" {
			if err := recordResults(recordPath, rows); err != nil {
				log.Fatalf("Recording results: %v", err)
			}
		}
	},
}

// runSweep runs cfg once per noise level, printing "{noise} --> {correct}"
// for each. Unknown bits count as incorrect.
func runSweep(w io.Writer, cfg sim.ScenarioConfig, from, to, step int) ([]record.SweepRow, score.Summary, error) {
	if step <= 0 {
		return nil, score.Summary{}, errors.Errorf("step must be > 0, got %d", step)
	}
	if from < 0 || to > 101 || from >= to {
		return nil, score.Summary{}, errors.Errorf("noise range [%d, %d) must be a non-empty part of [0, 101)", from, to)
	}

	var rows []record.SweepRow
	var correct []int
	for n := from; n < to; n += step {
		cfg.Noise = n
		s, err := sim.Build(cfg)
		if err != nil {
			return nil, score.Summary{}, errors.Wrapf(err, "noise %d", n)
		}
		res, err := s.Run()
		if err != nil {
			return nil, score.Summary{}, errors.Wrapf(err, "noise %d", n)
		}
		row := sweepRow(cfg, res)
		rows = append(rows, row)
		correct = append(correct, row.Correct)
		fmt.Fprintf(w, "%d --> %d\n", n, row.Correct)
	}
	keyLen := 0
	if len(rows) > 0 {
		keyLen = rows[0].KeyLen
	}
	return rows, score.Summarize(correct, keyLen), nil
}

func printSummary(w io.Writer, s score.Summary) {
	fmt.Fprintf(w, "Runs: %d\n", s.Runs)
	fmt.Fprintf(w, "Correct bits: min %d max %d of %d\n", s.MinCorrect, s.MaxCorrect, s.KeyLen)
	fmt.Fprintf(w, "Accuracy: mean %.4f stddev %.4f\n", s.MeanAccuracy, s.StdDevAccuracy)
}

func writeCSVFile(path string, rows []record.SweepRow) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating csv file")
	}
	if err := record.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "closing csv file")
}

func init() {
	addScenarioFlags(sweepCmd.Flags())
	sweepCmd.Flags().IntVar(&noiseFrom, "from", 1, "First noise level (percent)")
	sweepCmd.Flags().IntVar(&noiseTo, "to", 100, "Noise level bound, exclusive (percent)")
	sweepCmd.Flags().IntVar(&noiseStep, "step", 2, "Noise increment (percent)")
	sweepCmd.Flags().StringVar(&csvPath, "csv", "", "Write the sweep rows to this CSV file")
	sweepCmd.Flags().StringVar(&recordPath, "record", "", "Record the sweep into this SQLite database (path without .sqlite3)")

	rootCmd.AddCommand(sweepCmd)
}
