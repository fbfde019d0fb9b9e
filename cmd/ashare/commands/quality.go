package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ashare-daily/backend/internal/quality"
)

// qualityCmd represents the quality command
var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "数据质量检查",
	Long: `Validates the stored payloads of a date and prints per-domain scores.

The gate passes at an overall score of 70. With --strict a failing
gate exits non-zero.

Example:
  go run ./cmd/ashare quality
  go run ./cmd/ashare quality --date 2026-01-05 --json
  go run ./cmd/ashare quality --strict`,
	RunE: runQuality,
}

var (
	qualityDate   string
	qualityJSON   bool
	qualityStrict bool
)

func init() {
	rootCmd.AddCommand(qualityCmd)
	qualityCmd.Flags().StringVar(&qualityDate, "date", "", "trading date YYYY-MM-DD (default today)")
	qualityCmd.Flags().BoolVar(&qualityJSON, "json", false, "print the report as JSON")
	qualityCmd.Flags().BoolVar(&qualityStrict, "strict", false, "exit non-zero when the gate fails")
}

func runQuality(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := resolveDate(qualityDate, a.cfg.Location(), time.Now())
	if err != nil {
		return err
	}

	report, err := a.pipeline.Quality(ctx, date)
	if err != nil {
		return err
	}

	if qualityJSON {
		if err := PrintJSON(out, report); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, quality.RenderText(report))
	}

	if qualityStrict && !report.Passed {
		return fmt.Errorf("quality gate failed: score %d < %d", report.OverallScore, quality.PassThreshold)
	}
	return nil
}
