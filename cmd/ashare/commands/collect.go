package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "行情/期货/新闻数据采集",
	Long: `Fetches spot indices (Tencent), index futures (Eastmoney) and
news, and stores one payload per domain under DATA_DIR.

A failing source is reported but does not abort the others.

Example:
  go run ./cmd/ashare collect
  go run ./cmd/ashare collect --date 2026-01-05`,
	RunE: runCollect,
}

var collectDate string

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().StringVar(&collectDate, "date", "", "trading date YYYY-MM-DD (default today)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := resolveDate(collectDate, a.cfg.Location(), time.Now())
	if err != nil {
		return err
	}
	day := date.Format(contracts.DateLayout)

	PrintHeader(out, "Data Collection", day)
	if !a.calendar.IsTradingDay(date) {
		PrintWarning(out, day+" is not a trading day")
	}

	start := time.Now()
	summary, err := a.pipeline.Collect(ctx, date)
	if err != nil {
		return err
	}

	for _, t := range []contracts.PayloadType{contracts.PayloadMarket, contracts.PayloadFutures, contracts.PayloadNews} {
		if msg, failed := summary.Errors[t]; failed {
			PrintError(out, fmt.Sprintf("%-8s %s", t, msg))
			continue
		}
		PrintSuccess(out, fmt.Sprintf("%-8s %d", t, summary.Counts[t]))
	}

	PrintSeparator(out)
	fmt.Fprintf(out, "Completed in %.2fs\n", time.Since(start).Seconds())
	return nil
}
