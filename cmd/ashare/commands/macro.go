package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ashare-daily/backend/internal/api/handlers"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/quality"
	"github.com/wonny/ashare-daily/backend/internal/storage"
)

// macroCmd represents the macro command
var macroCmd = &cobra.Command{
	Use:   "macro",
	Short: "宏观经济数据",
	Long: `Imports macro snapshots (GDP, CPI, PPI, PMI, M2, policy rates ...) and
checks their quality: completeness of the 12 required fields, plausible
value ranges and jumps against the previous snapshot.

Subcommands:
  import  - store a YAML/JSON snapshot for a date
  check   - score a stored snapshot

Example:
  go run ./cmd/ashare macro import -f macro.yaml
  go run ./cmd/ashare macro check --date 2026-01-05 --json`,
}

var (
	macroImportCmd = &cobra.Command{
		Use:   "import",
		Short: "导入宏观数据",
		RunE:  runMacroImport,
	}

	macroCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "宏观数据质量检查",
		RunE:  runMacroCheck,
	}
)

var (
	macroDate   string
	macroFile   string
	macroJSON   bool
	macroStrict bool
)

func init() {
	rootCmd.AddCommand(macroCmd)
	macroCmd.AddCommand(macroImportCmd)
	macroCmd.AddCommand(macroCheckCmd)

	macroCmd.PersistentFlags().StringVar(&macroDate, "date", "", "snapshot date YYYY-MM-DD (default today)")
	macroImportCmd.Flags().StringVarP(&macroFile, "file", "f", "", "snapshot file (YAML or JSON)")
	_ = macroImportCmd.MarkFlagRequired("file")
	macroCheckCmd.Flags().BoolVar(&macroJSON, "json", false, "print the result as JSON")
	macroCheckCmd.Flags().BoolVar(&macroStrict, "strict", false, "exit non-zero when the check fails")
}

func runMacroImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(macroFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", macroFile, err)
	}
	snap, err := contracts.ParseMacroSnapshot(data)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := resolveDate(macroDate, a.cfg.Location(), time.Now())
	if err != nil {
		return err
	}
	day := date.Format(contracts.DateLayout)

	path, err := a.store.SaveMacro(ctx, day, snap)
	if err != nil {
		return err
	}
	PrintSuccess(out, fmt.Sprintf("%d indicators, %d policy rates -> %s", len(snap.Indicators), len(snap.CentralBank), path))
	return nil
}

func runMacroCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := resolveDate(macroDate, a.cfg.Location(), time.Now())
	if err != nil {
		return err
	}

	return checkMacro(cmd, a.store, date.Format(contracts.DateLayout))
}

func checkMacro(cmd *cobra.Command, store *storage.Store, day string) error {
	view, err := handlers.CheckMacro(cmd.Context(), store, day)
	if err != nil {
		return err
	}
	if err := printMacro(cmd.OutOrStdout(), view, macroJSON); err != nil {
		return err
	}

	if macroStrict && !view.Quality.Passed {
		return fmt.Errorf("macro check failed: score %d < %d", view.Quality.Score, quality.PassThreshold)
	}
	return nil
}

func printMacro(w io.Writer, view *handlers.MacroView, asJSON bool) error {
	if asJSON {
		return PrintJSON(w, view.Quality)
	}
	fmt.Fprint(w, quality.RenderMacroText(view.Quality))
	return nil
}
