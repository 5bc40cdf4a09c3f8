package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/algosim/internal/report"
	"github.com/wonny/algosim/internal/strategyconfig"
	"github.com/wonny/algosim/internal/sweep"
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Grid search over SMA window pairs",
	Long: `Runs one backtest per (short, long) pair with short < long and ranks
the results by Sharpe ratio. Pairs whose long window exceeds the price
history are skipped.

Grid sources, first match wins:
  --short-windows/--long-windows   explicit lists
  --short-range/--long-range       min:max:step (max exclusive)
  sweep section of --config

Example:
  go run ./cmd/algosim sweep --symbol SPY --short-windows 10,20,50 --long-windows 100,150,200
  go run ./cmd/algosim sweep --symbol AAPL --short-range 5:55:5 --long-range 50:260:10 --workers 8`,
	RunE: runSweep,
}

var (
	sweepFlags        runFlags
	sweepShortWindows []int
	sweepLongWindows  []int
	sweepShortRange   string
	sweepLongRange    string
	sweepWorkers      int
	sweepTop          int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepFlags.register(sweepCmd)
	sweepCmd.Flags().IntSliceVar(&sweepShortWindows, "short-windows", nil, "short windows to try")
	sweepCmd.Flags().IntSliceVar(&sweepLongWindows, "long-windows", nil, "long windows to try")
	sweepCmd.Flags().StringVar(&sweepShortRange, "short-range", "", "short windows as min:max:step")
	sweepCmd.Flags().StringVar(&sweepLongRange, "long-range", "", "long windows as min:max:step")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "concurrent backtests (default: SWEEP_WORKERS)")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 10, "rows to print")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	envCfg, log, err := loadEnv()
	if err != nil {
		return err
	}

	runCfg, err := resolveRun(cmd, envCfg, &sweepFlags)
	if err != nil {
		return err
	}

	grid, err := resolveGrid(runCfg)
	if err != nil {
		return err
	}
	pairs := grid.Pairs()
	if len(pairs) == 0 {
		return fmt.Errorf("sweep grid has no pair with short < long")
	}

	workers := runCfg.Sweep.Workers
	if sweepWorkers > 0 {
		workers = sweepWorkers
	}

	a, err := newApp(ctx, envCfg, log, runCfg.Data.Provider)
	if err != nil {
		return err
	}
	defer a.Close()

	key := runCfg.SeriesKey()
	PrintHeader("Parameter Sweep", map[string]string{
		"Symbol":  key.Symbol,
		"Period":  fmt.Sprintf("%s ~ %s", runCfg.Data.Start, runCfg.Data.End),
		"Pairs":   fmt.Sprintf("%d", len(pairs)),
		"Workers": fmt.Sprintf("%d", workers),
	})

	series, err := a.loader.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	done := 0
	runner := sweep.NewRunner(a.engine, workers, log)
	outcome, err := runner.Run(ctx, series, runCfg.Params(), grid, func(res sweep.Result) {
		done++
		PrintProgress("Sweep", fmt.Sprintf("SMA %d/%d sharpe=%.2f", res.Pair.Short, res.Pair.Long, res.Summary.Sharpe), done, len(pairs))
	})
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	printSweepTable(outcome, sweepTop)

	if sweepFlags.noReport {
		return nil
	}

	runCfg.Sweep.ShortWindows = grid.ShortWindows
	runCfg.Sweep.LongWindows = grid.LongWindows
	snapshot, err := strategyconfig.NewRunSnapshot(runCfg)
	if err != nil {
		return fmt.Errorf("hash run config: %w", err)
	}
	dir, err := report.NewWriter(runCfg.Report.Dir, log).WriteSweep(key.Symbol, outcome, snapshot)
	if err != nil {
		return fmt.Errorf("write sweep report: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Sweep report written to %s", dir))
	return nil
}

func resolveGrid(runCfg *strategyconfig.Config) (sweep.Grid, error) {
	if len(sweepShortWindows) > 0 || len(sweepLongWindows) > 0 {
		return sweep.Grid{ShortWindows: sweepShortWindows, LongWindows: sweepLongWindows}, nil
	}

	if sweepShortRange != "" || sweepLongRange != "" {
		shortR, err := parseRange(sweepShortRange)
		if err != nil {
			return sweep.Grid{}, fmt.Errorf("--short-range: %w", err)
		}
		longR, err := parseRange(sweepLongRange)
		if err != nil {
			return sweep.Grid{}, fmt.Errorf("--long-range: %w", err)
		}
		return sweep.RangeGrid(shortR[0], shortR[1], shortR[2], longR[0], longR[1], longR[2]), nil
	}

	if len(runCfg.Sweep.ShortWindows) > 0 {
		return sweep.Grid{ShortWindows: runCfg.Sweep.ShortWindows, LongWindows: runCfg.Sweep.LongWindows}, nil
	}

	return sweep.Grid{}, fmt.Errorf("no sweep grid: set --short-windows/--long-windows, --short-range/--long-range or the config sweep section")
}

// parseRange parses "min:max:step"
func parseRange(s string) ([3]int, error) {
	var out [3]int

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return out, fmt.Errorf("expected min:max:step, got %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, fmt.Errorf("%q is not an integer", p)
		}
		out[i] = n
	}
	if out[2] <= 0 || out[1] <= out[0] {
		return out, fmt.Errorf("range %q must have min < max and step > 0", s)
	}
	return out, nil
}

func printSweepTable(outcome *sweep.Outcome, top int) {
	fmt.Println()
	widths := []int{6, 6, 10, 10, 8, 9, 10, 9}
	PrintTableHeader([]string{"Short", "Long", "Return", "CAGR", "Sharpe", "Sortino", "MaxDD", "WinRate"}, widths)

	for i, r := range outcome.Results {
		if top > 0 && i >= top {
			break
		}
		s := r.Summary
		PrintTableRow([]string{
			strconv.Itoa(r.Pair.Short),
			strconv.Itoa(r.Pair.Long),
			FormatPct(s.TotalReturnPct),
			FormatPct(s.CAGR),
			fmt.Sprintf("%.2f", s.Sharpe),
			s.Sortino.String(),
			fmt.Sprintf("%.2f%%", s.MaxDrawdownPct),
			fmt.Sprintf("%.1f%%", s.WinRate),
		}, widths)
	}

	if len(outcome.Skipped) > 0 {
		fmt.Println()
		PrintInfo(fmt.Sprintf("%d pairs skipped (long window longer than the history)", len(outcome.Skipped)))
	}
	fmt.Printf("\n✅ %d pairs evaluated in %s\n\n", len(outcome.Results), outcome.Duration)
}
