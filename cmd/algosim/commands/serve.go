package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/algosim/internal/api"
	"github.com/wonny/algosim/internal/api/handlers"
	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/sweep"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the JSON API.

Endpoints:
  GET  /health                 - health check (database, redis)
  POST /api/backtest           - run one backtest
  GET  /api/prices/{symbol}    - stored or fetched price series
  GET  /api/sweep/stream       - websocket streaming sweep results

Example:
  go run ./cmd/algosim serve
  go run ./cmd/algosim serve --port 9000 --with-scheduler`,
	RunE: runServe,
}

var (
	servePort          string
	serveWithScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default: PORT)")
	serveCmd.Flags().BoolVar(&serveWithScheduler, "with-scheduler", false, "also run the price refresh scheduler")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	a, err := newApp(cmd.Context(), cfg, log, "")
	if err != nil {
		return err
	}
	defer a.Close()

	defaults := backtest.Params{
		ShortWindow:    cfg.Backtest.ShortWindow,
		LongWindow:     cfg.Backtest.LongWindow,
		InitialCapital: cfg.Backtest.InitialCapital,
		RiskFreeRate:   cfg.Backtest.RiskFreeRate,
	}

	router := api.NewRouter(api.Handlers{
		Health:   handlers.NewHealthHandler("algosim-api", a.db, a.redis),
		Backtest: handlers.NewBacktestHandler(a.loader, a.engine, defaults, log),
		Sweep:    handlers.NewSweepHandler(a.loader, sweep.NewRunner(a.engine, cfg.Backtest.SweepWorkers, log), defaults, log),
	}, log)
	server := api.New(cfg, log, router)

	if serveWithScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

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
