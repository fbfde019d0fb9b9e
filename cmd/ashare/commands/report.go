package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ashare-daily/backend/internal/reporter"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "生成每日报告",
	Long: `Renders the daily report of a date. The stored analysis is used
when present; otherwise it is computed from the stored payloads.

Formats:
  markdown - full report (default)
  brief    - short plain-text summary

Example:
  go run ./cmd/ashare report --date 2026-01-05
  go run ./cmd/ashare report --format brief --output brief.txt`,
	RunE: runReport,
}

var (
	reportDate   string
	reportFormat string
	reportOutput string
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportDate, "date", "", "trading date YYYY-MM-DD (default today)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown", "markdown|brief")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write to file instead of stdout")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := reporter.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := resolveDate(reportDate, a.cfg.Location(), time.Now())
	if err != nil {
		return err
	}

	body, err := a.pipeline.Report(ctx, date, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), reportOutput, body)
}
