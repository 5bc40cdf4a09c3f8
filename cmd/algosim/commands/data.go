package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/marketdata"
	"github.com/wonny/algosim/internal/strategyconfig"
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Price data management",
	Long: `Download, cache and inspect price series.

Subcommands:
  fetch   - download a series into the configured store
  check   - print the quality report of a series

Example:
  go run ./cmd/algosim data fetch --symbol AAPL --start 2015-01-01
  go run ./cmd/algosim data fetch --symbol 005930 --provider naver --csv samsung.csv
  go run ./cmd/algosim data check --symbol AAPL`,
}

var (
	dataFetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Download a price series",
		RunE:  runDataFetch,
	}

	dataCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Print a series quality report",
		RunE:  runDataCheck,
	}

	dataSymbol   string
	dataStart    string
	dataEnd      string
	dataInterval string
	dataProvider string
	dataRefresh  bool
	dataCSV      string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataFetchCmd)
	dataCmd.AddCommand(dataCheckCmd)

	for _, c := range []*cobra.Command{dataFetchCmd, dataCheckCmd} {
		c.Flags().StringVarP(&dataSymbol, "symbol", "s", "", "ticker symbol (required)")
		c.Flags().StringVar(&dataStart, "start", "", "start date YYYY-MM-DD (default: 10 years ago)")
		c.Flags().StringVar(&dataEnd, "end", "", "end date YYYY-MM-DD, exclusive (default: tomorrow)")
		c.Flags().StringVar(&dataInterval, "interval", "", "bar interval (default: INTERVAL)")
		c.Flags().StringVar(&dataProvider, "provider", "", "price provider (yahoo|naver)")
		c.MarkFlagRequired("symbol")
	}
	dataFetchCmd.Flags().BoolVar(&dataRefresh, "refresh", false, "ignore the store and download again")
	dataFetchCmd.Flags().StringVar(&dataCSV, "csv", "", "also export the series to this CSV file")
}

// dataKey builds the series key from data flags
func dataKey(interval string, now time.Time) (contracts.SeriesKey, error) {
	if dataInterval != "" {
		interval = dataInterval
	}

	today := now.UTC().Truncate(24 * time.Hour)
	start := today.AddDate(-10, 0, 0)
	end := today.AddDate(0, 0, 1)

	var err error
	if dataStart != "" {
		if start, err = time.Parse(strategyconfig.DateLayout, dataStart); err != nil {
			return contracts.SeriesKey{}, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if dataEnd != "" {
		if end, err = time.Parse(strategyconfig.DateLayout, dataEnd); err != nil {
			return contracts.SeriesKey{}, fmt.Errorf("invalid --end: %w", err)
		}
	}

	key := contracts.SeriesKey{
		Symbol:   strings.ToUpper(strings.TrimSpace(dataSymbol)),
		Interval: interval,
		Start:    start,
		End:      end,
	}
	return key, key.Validate()
}

func runDataFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}

	key, err := dataKey(cfg.Backtest.Interval, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log, dataProvider)
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("Data Fetch", map[string]string{
		"Series":   key.String(),
		"Provider": a.provider.Name(),
		"Store":    cfg.Store.Driver,
	})

	startTime := time.Now()
	var series contracts.PriceSeries
	if dataRefresh {
		series, err = a.loader.Refresh(ctx, key)
	} else {
		series, err = a.loader.Load(ctx, key)
	}
	if err != nil {
		return fmt.Errorf("fetch %s: %w", key.Symbol, err)
	}

	printQuality(marketdata.Validate(series))

	if dataCSV != "" {
		if err := exportCSV(dataCSV, series); err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("Exported %d bars to %s", len(series), dataCSV))
	}

	PrintSuccess(fmt.Sprintf("%d bars (%s ~ %s) in %.2fs",
		len(series),
		series[0].Date.Format("2006-01-02"),
		series[len(series)-1].Date.Format("2006-01-02"),
		time.Since(startTime).Seconds()))
	return nil
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}

	key, err := dataKey(cfg.Backtest.Interval, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log, dataProvider)
	if err != nil {
		return err
	}
	defer a.Close()

	series, found, err := a.store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	if !found {
		PrintWarning(fmt.Sprintf("%s is not in the store; run 'data fetch' first", key.String()))
		return nil
	}

	report := marketdata.Validate(series)
	printQuality(report)
	if !report.Passed() {
		return fmt.Errorf("quality check failed: %s", report.String())
	}
	return nil
}

func exportCSV(path string, series contracts.PriceSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := marketdata.WriteCSV(f, series); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printQuality(r marketdata.QualityReport) {
	fmt.Println()
	fmt.Println("  🔍 Quality")
	PrintSeparator()
	PrintKeyValue("Bars", fmt.Sprintf("%d (valid %d)", r.TotalBars, r.ValidBars), 16)
	PrintKeyValue("Invalid", fmt.Sprintf("%d", r.InvalidBars), 16)
	PrintKeyValue("Duplicates", fmt.Sprintf("%d", r.DuplicateDates), 16)
	PrintKeyValue("Out of order", fmt.Sprintf("%d", r.OutOfOrder), 16)
	PrintKeyValue("No adj close", fmt.Sprintf("%d", r.MissingAdjClose), 16)
	PrintKeyValue("Zero volume", fmt.Sprintf("%d", r.ZeroVolume), 16)
	PrintKeyValue("Gaps", fmt.Sprintf("%d (> %d days)", len(r.Gaps), marketdata.MaxCalendarGapDays), 16)
	PrintKeyValue("Coverage", fmt.Sprintf("%.1f%%", r.Coverage*100), 16)
	PrintSeparator()

	if r.Passed() {
		PrintSuccess("Quality check passed")
	} else {
		PrintError("Quality check failed")
	}
}
