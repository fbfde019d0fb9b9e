package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ashare",
	Short: "A股每日基差与数据质量管线",
	Long: `ashare-daily Unified CLI

A-share daily pipeline: spot index quotes, CFFEX index futures and
financial news are collected, scored by the quality gate, turned into
basis records and rendered as a daily report.

Usage:
  go run ./cmd/ashare [command]

Examples:
  go run ./cmd/ashare run
  go run ./cmd/ashare collect --date 2026-01-05
  go run ./cmd/ashare quality --date 2026-01-05 --strict
  go run ./cmd/ashare report --format brief
  go run ./cmd/ashare calendar --year 2026
  go run ./cmd/ashare api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load before the environment (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
