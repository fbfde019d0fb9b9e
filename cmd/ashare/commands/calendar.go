package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ashare-daily/backend/internal/api/handlers"
	"github.com/wonny/ashare-daily/backend/internal/calendar"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// calendarCmd represents the calendar command
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "交易日历查询",
	Long: `Shows trading-day status and live futures contracts for a date,
or a per-month summary of a year with --year.

Example:
  go run ./cmd/ashare calendar
  go run ./cmd/ashare calendar --date 2026-02-16
  go run ./cmd/ashare calendar --year 2026`,
	RunE: runCalendar,
}

var (
	calendarDate string
	calendarYear int
)

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().StringVar(&calendarDate, "date", "", "date YYYY-MM-DD (default today)")
	calendarCmd.Flags().IntVar(&calendarYear, "year", 0, "print a per-month summary of a year")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cal, err := calendar.Load(cfg.Calendar.HolidayFile)
	if err != nil {
		return fmt.Errorf("load calendar: %w", err)
	}

	out := cmd.OutOrStdout()
	if calendarYear != 0 {
		return printYear(out, cal, calendarYear)
	}

	date, err := resolveDate(calendarDate, cfg.Location(), time.Now())
	if err != nil {
		return err
	}
	return printDay(out, cal, date)
}

func printDay(w io.Writer, cal *calendar.Calendar, date time.Time) error {
	day, err := handlers.Describe(cal, date)
	if err != nil {
		return err
	}

	PrintHeader(w, "Trading Calendar", day.Date)
	status := "休市"
	if day.TradingDay {
		status = "交易日"
	}
	fmt.Fprintf(w, "  Status    : %s\n", status)
	fmt.Fprintf(w, "  Next      : %s\n", day.NextTradingDay)
	fmt.Fprintf(w, "  Table     : %s (%s)\n", day.Version, day.Fingerprint)
	if !day.Covered {
		PrintWarning(w, fmt.Sprintf("holiday table does not cover %d; only weekends are closed", date.Year()))
	}
	PrintSeparator(w)

	for _, c := range day.Contracts {
		fmt.Fprintf(w, "  %-4s %s  到期 %s  剩余 %d 交易日\n", c.Label, c.Month, c.Expiry, c.TradingDaysToExpiry)
	}
	return nil
}

func printYear(w io.Writer, cal *calendar.Calendar, year int) error {
	if year < 1990 || year > 2100 {
		return fmt.Errorf("year out of range: %d", year)
	}

	PrintHeader(w, "Trading Calendar", fmt.Sprintf("%d", year))
	if !cal.Covers(year) {
		PrintWarning(w, fmt.Sprintf("holiday table does not cover %d; only weekends are closed", year))
	}

	total := 0
	for m := time.January; m <= time.December; m++ {
		first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		n := cal.TradingDaysBetween(first, last)
		total += n

		var closed []string
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday && !cal.IsTradingDay(d) {
				closed = append(closed, d.Format("01-02"))
			}
		}

		expiry := calendar.ThirdFridayExpiry(year, m).Format(contracts.DateLayout)
		fmt.Fprintf(w, "  %02d月  %2d 交易日  交割 %s", int(m), n, expiry)
		if len(closed) > 0 {
			fmt.Fprintf(w, "  休市 %v", closed)
		}
		fmt.Fprintln(w)
	}

	PrintSeparator(w)
	fmt.Fprintf(w, "  合计 %d 交易日\n", total)
	return nil
}
