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
	Use:   "algosim",
	Short: "SMA crossover backtesting toolkit",
	Long: `algosim - moving-average crossover backtester

Downloads daily price history, simulates an SMA crossover strategy
and reports performance statistics.

Usage:
  go run ./cmd/algosim [command]

Examples:
  go run ./cmd/algosim backtest run --symbol AAPL --start 2015-01-01 --end 2024-12-31
  go run ./cmd/algosim sweep --symbol SPY --short 10,20,50 --long 100,150,200
  go run ./cmd/algosim data fetch --symbol 005930 --provider naver
  go run ./cmd/algosim serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "run definition YAML (default: built from environment)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
