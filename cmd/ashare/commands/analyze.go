package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ashare-daily/backend/internal/reporter"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "基差计算与市场分析",
	Long: `Computes basis records and the market/news analysis from the
stored payloads of a date, and stores both.

Example:
  go run ./cmd/ashare analyze --date 2026-01-05
  go run ./cmd/ashare analyze --json`,
	RunE: runAnalyze,
}

var (
	analyzeDate string
	analyzeJSON bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "trading date YYYY-MM-DD (default today)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the analysis as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := resolveDate(analyzeDate, a.cfg.Location(), time.Now())
	if err != nil {
		return err
	}

	analysis, err := a.pipeline.Analyze(ctx, date)
	if err != nil {
		return err
	}

	if analyzeJSON {
		return PrintJSON(out, analysis)
	}

	PrintHeader(out, "Market Analysis", analysis.Date)
	fmt.Fprintf(out, "  Indices   : %d\n", len(analysis.Market.Daily))
	fmt.Fprintf(out, "  Basis     : %d records\n", len(analysis.Basis))
	fmt.Fprintf(out, "  News      : %d (%s)\n", analysis.News.Count, analysis.News.Sentiment)
	PrintSeparator(out)

	for _, r := range analysis.Basis {
		fmt.Fprintf(out, "  %s %-4s %s %8.2f (%s%.2f%%, 年化 %.2f%%)\n",
			r.FuturesCode, r.ContractType.Label(), reporter.Arrow(r), r.Basis,
			sign(r.BasisPercent), r.BasisPercent, r.AnnualizedBasis)
	}
	if len(analysis.Basis) > 0 {
		PrintSeparator(out)
	}

	fmt.Fprintf(out, "  %s\n", analysis.Conclusion.MarketView)
	return nil
}

func sign(v float64) string {
	if v > 0 {
		return "+"
	}
	return ""
}
