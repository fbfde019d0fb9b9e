package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ashare-daily/backend/internal/api"
	"github.com/wonny/ashare-daily/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "启动 API 服务",
	Long: `Starts the read-only REST API over the payload store.

Endpoints:
  GET  /health                  - Health check
  GET  /metrics                 - Prometheus metrics
  GET  /api/quality/{date}      - Quality report (?format=text)
  GET  /api/basis/{date}        - Basis records
  GET  /api/report/{date}       - Daily report (?format=markdown|brief|json)
  GET  /api/calendar/{date}     - Trading-day status and contracts

{date} is YYYY-MM-DD or "today".

Example:
  go run ./cmd/ashare api
  go run ./cmd/ashare api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log
	loc := a.cfg.Location()

	// snapshots stay nil (not a typed nil) when the database is off
	var snapshots handlers.SnapshotReader
	if a.snapshots != nil {
		snapshots = a.snapshots
	}

	router := api.NewRouter(api.Handlers{
		Health:   handlers.NewHealthHandler("ashare-daily-api", a.db, a.redis),
		Report:   handlers.NewReportHandler(a.pipeline, snapshots, loc, log),
		Calendar: handlers.NewCalendarHandler(a.calendar, loc, log),
	}, a.metrics, log)

	server := api.New(a.cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Server running on http://localhost:%s (Ctrl+C to stop)\n", a.cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
