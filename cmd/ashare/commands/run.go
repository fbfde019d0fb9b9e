package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/pipeline"
	"github.com/wonny/ashare-daily/backend/internal/reporter"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "执行完整管线 (采集 → 质检 → 分析 → 报告)",
	Long: `Runs collect, quality, analyze and report for a date.

By default a failing quality gate is logged and the run continues.
With --stop-on-fail the run halts before analysis and exits non-zero.

Example:
  go run ./cmd/ashare run
  go run ./cmd/ashare run --date 2026-01-05 --stop-on-fail
  go run ./cmd/ashare run --skip-collect --format brief`,
	RunE: runPipeline,
}

var (
	runDate        string
	runStopOnFail  bool
	runSkipCollect bool
	runFormat      string
	runOutput      string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDate, "date", "", "trading date YYYY-MM-DD (default today)")
	runCmd.Flags().BoolVar(&runStopOnFail, "stop-on-fail", false, "halt when the quality gate fails")
	runCmd.Flags().BoolVar(&runSkipCollect, "skip-collect", false, "reuse stored payloads")
	runCmd.Flags().StringVar(&runFormat, "format", "markdown", "markdown|brief")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the report to file instead of stdout")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	format, err := reporter.ParseFormat(runFormat)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := resolveDate(runDate, a.cfg.Location(), time.Now())
	if err != nil {
		return err
	}
	day := date.Format(contracts.DateLayout)

	if !a.calendar.IsTradingDay(date) {
		PrintWarning(out, day+" is not a trading day; upstream data may be stale")
	}

	start := time.Now()
	result, err := a.pipeline.Run(ctx, date, pipeline.Options{
		StopOnFail:  runStopOnFail,
		SkipCollect: runSkipCollect,
		Format:      format,
	})

	if result != nil && result.Quality != nil {
		mark := "✅"
		if !result.Quality.Passed {
			mark = "❌"
		}
		fmt.Fprintf(out, "%s Quality %d/100\n", mark, result.Quality.OverallScore)
	}
	if errors.Is(err, pipeline.ErrQualityGateFailed) {
		PrintError(out, "Run halted by quality gate")
		return err
	}
	if err != nil {
		return err
	}

	if err := writeOutput(out, runOutput, result.Report); err != nil {
		return err
	}
	PrintSeparator(out)
	fmt.Fprintf(out, "✅ %s completed in %.2fs (%d stages, %d basis records)\n",
		day, time.Since(start).Seconds(), len(result.Completed), len(result.Basis))
	return nil
}
