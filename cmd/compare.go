package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roadsim/roadsim/sim/analytics"
)

// --- roadsim compare ---

var (
	compareLive     string
	compareBaseline string
	compareAt       time.Duration
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two recorded baselines",
	Long:  "Compare the finished trips of a recorded run against a baseline, as of a simulated time (default: the last finish in either file).",
	Run: func(cmd *cobra.Command, args []string) {
		if err := compareBaselines(os.Stdout, compareLive, compareBaseline, compareAt); err != nil {
			logrus.Fatalf("Compare failed: %v", err)
		}
	},
}

func compareBaselines(out io.Writer, livePath, baselinePath string, at time.Duration) error {
	live, err := analytics.LoadBaseline(livePath)
	if err != nil {
		return err
	}
	baseline, err := analytics.LoadBaseline(baselinePath)
	if err != nil {
		return err
	}
	if at <= 0 {
		at = max(lastFinish(live), lastFinish(baseline))
	}
	_, _ = fmt.Fprintf(out, "=== %s vs %s at %s ===\n", livePath, baselinePath, at)
	for _, mode := range []analytics.Mode{analytics.ModeDrive, analytics.ModeWalk} {
		for _, line := range analytics.Compare(at, mode, live, baseline) {
			_, _ = fmt.Fprintln(out, line)
		}
	}
	return nil
}

func lastFinish(a *analytics.Analytics) time.Duration {
	if len(a.Trips) == 0 {
		return 0
	}
	return lo.MaxBy(a.Trips, func(x, y analytics.TripRecord) bool { return x.Finished > y.Finished }).Finished
}

func init() {
	compareCmd.Flags().StringVar(&compareLive, "live", "", "Baseline recorded from the run under test")
	compareCmd.Flags().StringVar(&compareBaseline, "baseline", "", "Baseline to compare against")
	compareCmd.Flags().DurationVar(&compareAt, "at", 0, "Simulated time to compare at (0 = last finish)")
	_ = compareCmd.MarkFlagRequired("live")
	_ = compareCmd.MarkFlagRequired("baseline")

	rootCmd.AddCommand(compareCmd)
}
