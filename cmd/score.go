package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sharp-sim/sharp-sim/sim/recon"
	"github.com/sharp-sim/sharp-sim/sim/score"
)

var originalKey string // Original key for combined-key alignment

// scoreCmd groups the offline scorers
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score attack outputs against the true key",
}

var scoreReportCmd = &cobra.Command{
	Use:   "report FILE",
	Short: "Count correct bits of a sharp-sim run report",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := withFile(args[0], func(r io.Reader) error { return scoreReport(cmd.OutOrStdout(), r) }); err != nil {
			logrus.Fatalf("Scoring report: %v", err)
		}
	},
}

var scoreHarnessCmd = &cobra.Command{
	Use:   "harness FILE",
	Short: "Count correct bits of an instrumentation harness log (d = / Key: lines)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := withFile(args[0], func(r io.Reader) error { return scoreHarness(cmd.OutOrStdout(), r) }); err != nil {
			logrus.Fatalf("Scoring harness log: %v", err)
		}
	},
}

var scoreCombinedCmd = &cobra.Command{
	Use:   "combined FILE",
	Short: "Merge \"Combined Key:\" lines and align the result against --key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := recon.ParseSecret(originalKey); err != nil || originalKey == "" {
			logrus.Fatalf("--key must be a non-empty string of 0 and 1")
		}
		if err := withFile(args[0], func(r io.Reader) error { return scoreCombined(cmd.OutOrStdout(), r, originalKey) }); err != nil {
			logrus.Fatalf("Scoring combined keys: %v", err)
		}
	},
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer f.Close()
	return fn(f)
}

func scoreReport(w io.Writer, r io.Reader) error {
	rep, err := score.ParseReport(r)
	if err != nil {
		return err
	}
	d := recon.Diagnose(rep.Spied, rep.Secret)
	fmt.Fprintf(w, "Correct: %d of %d\n", rep.Correct(), len(rep.Secret))
	fmt.Fprintf(w, "Unknown: %d\n", d.Unknown)
	fmt.Fprintf(w, "Wrong: %d\n", d.Wrong)
	return nil
}

func scoreHarness(w io.Writer, r io.Reader) error {
	run, err := score.ParseHarnessLog(r)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Correct: %d of %d\n", score.CorrectBits(run.Secret, run.Leaked), len(run.Secret))
	return nil
}

func scoreCombined(w io.Writer, r io.Reader, original string) error {
	c, err := score.MergeCombined(r)
	if err != nil {
		return err
	}
	for _, pos := range c.Conflicts {
		fmt.Fprintf(w, "Conflict at position %d\n", pos)
	}
	a := score.Align(c.Key, original)
	if a.Overrun > 0 {
		fmt.Fprintf(w, "Long by %d\n", a.Overrun)
	}
	fmt.Fprintf(w, "Hits: %d\n", a.Hits)
	fmt.Fprintf(w, "Duplicates: %d\n", a.Duplicates)
	fmt.Fprintf(w, "Errors: %d\n", a.Errors)
	fmt.Fprintf(w, "Unknowns in combined full key: %d\n", c.Unknown)
	fmt.Fprintf(w, "Combined Full Key: %s\n", c.Key)
	fmt.Fprintf(w, "Original Key: %s\n", original)
	return nil
}

func init() {
	scoreCombinedCmd.Flags().StringVar(&originalKey, "key", "", "Original key bits to align against")

	scoreCmd.AddCommand(scoreReportCmd, scoreHarnessCmd, scoreCombinedCmd)
	rootCmd.AddCommand(scoreCmd)
}
