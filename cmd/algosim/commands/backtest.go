package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/report"
	"github.com/wonny/algosim/internal/strategyconfig"
	"github.com/wonny/algosim/pkg/logger"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "SMA crossover backtests",
	Long: `Run a single moving-average crossover backtest.

The strategy is long when the short SMA is above the long SMA, short
when below, and flat when they are equal. Positions are taken on the
bar after the signal.

Example:
  go run ./cmd/algosim backtest run --symbol AAPL --short 50 --long 200
  go run ./cmd/algosim backtest run --config runs/spy.yaml`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one backtest",
		Long: `Loads the price series (store first, then provider), runs the
backtest and prints the summary. Report files (bars.csv, summary.yaml)
are written under --out unless --no-report is set.

Example:
  go run ./cmd/algosim backtest run --symbol ^GSPC --start 2010-01-01 --end 2024-12-31
  go run ./cmd/algosim backtest run --symbol 005930 --provider naver --capital 10000000`,
		RunE: runBacktest,
	}

	backtestFlags runFlags
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	backtestFlags.register(backtestRunCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	envCfg, log, err := loadEnv()
	if err != nil {
		return err
	}

	runCfg, err := resolveRun(cmd, envCfg, &backtestFlags)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, envCfg, log, runCfg.Data.Provider)
	if err != nil {
		return err
	}
	defer a.Close()

	key := runCfg.SeriesKey()
	PrintHeader("Backtest", map[string]string{
		"Symbol":   key.Symbol,
		"Period":   fmt.Sprintf("%s ~ %s", runCfg.Data.Start, runCfg.Data.End),
		"Windows":  fmt.Sprintf("SMA %d / %d", runCfg.Strategy.ShortWindow, runCfg.Strategy.LongWindow),
		"Capital":  FormatMoney(runCfg.Backtest.InitialCapital),
		"Provider": a.provider.Name(),
	})

	series, err := a.loader.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	rep, err := a.engine.Execute(ctx, series, runCfg.Params())
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printBacktestReport(rep)

	if backtestFlags.noReport {
		return nil
	}
	return writeReport(runCfg, rep, log)
}

func writeReport(runCfg *strategyconfig.Config, rep *backtest.Report, log *logger.Logger) error {
	snapshot, err := strategyconfig.NewRunSnapshot(runCfg)
	if err != nil {
		return fmt.Errorf("hash run config: %w", err)
	}

	dir, err := report.NewWriter(runCfg.Report.Dir, log).Write(rep, snapshot)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Report written to %s", dir))
	return nil
}

func printBacktestReport(rep *backtest.Report) {
	s := rep.Summary

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  📊 Summary")
	PrintSeparator()
	PrintKeyValue("Trading days", fmt.Sprintf("%d", s.TradingDays), 16)
	PrintKeyValue("Initial capital", FormatMoney(s.InitialCapital), 16)
	PrintKeyValue("Final capital", FormatMoney(s.FinalCapital), 16)
	PrintKeyValue("P&L", FormatMoney(s.FinalCapital-s.InitialCapital), 16)
	PrintKeyValue("Total return", FormatPct(s.TotalReturnPct), 16)
	PrintKeyValue("Buy & hold", FormatPct(s.BuyHoldReturnPct), 16)
	PrintKeyValue("CAGR", FormatPct(s.CAGR), 16)

	fmt.Println()
	fmt.Println("  📉 Risk")
	PrintSeparator()
	PrintKeyValue("Volatility", fmt.Sprintf("%.2f%%", s.VolatilityPct), 16)
	PrintKeyValue("Sharpe", fmt.Sprintf("%.2f %s", s.Sharpe, sharpeGrade(s.Sharpe)), 16)
	PrintKeyValue("Sortino", s.Sortino.String(), 16)
	PrintKeyValue("Calmar", s.Calmar.String(), 16)
	PrintKeyValue("Max drawdown", fmt.Sprintf("%.2f%%", s.MaxDrawdownPct), 16)
	PrintKeyValue("VaR / CVaR 95", fmt.Sprintf("%.2f%% / %.2f%%", s.VaR95Pct, s.CVaR95Pct), 16)

	fmt.Println()
	fmt.Println("  💹 Trading")
	PrintSeparator()
	PrintKeyValue("Win rate", fmt.Sprintf("%.1f%%", s.WinRate), 16)
	PrintKeyValue("Avg win", FormatPct(s.AvgWinPct), 16)
	PrintKeyValue("Avg loss", FormatPct(s.AvgLossPct), 16)
	PrintKeyValue("Profit factor", s.ProfitFactor.String(), 16)
	PrintKeyValue("Exposure", fmt.Sprintf("%.1f%%", s.ExposurePct), 16)
	PrintKeyValue("Position changes", fmt.Sprintf("%d", s.PositionChanges), 16)
	PrintDoubleSeparator()
	fmt.Printf("  completed in %s\n\n", rep.Duration)
}
