package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/algosim/internal/strategyconfig"
	"github.com/wonny/algosim/pkg/config"
)

// runFlags are the run-definition overrides shared by backtest and sweep
type runFlags struct {
	symbol    string
	start     string
	end       string
	interval  string
	provider  string
	short     int
	long      int
	capital   float64
	riskFree  float64
	reportDir string
	noReport  bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.symbol, "symbol", "s", "", "ticker symbol (e.g. AAPL, ^GSPC, 005930)")
	cmd.Flags().StringVar(&f.start, "start", "", "start date YYYY-MM-DD (default: 10 years ago)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date YYYY-MM-DD, exclusive (default: today)")
	cmd.Flags().StringVar(&f.interval, "interval", "", "bar interval (1d, 1wk, 1mo)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "price provider (yahoo|naver)")
	cmd.Flags().IntVar(&f.short, "short", 0, "short SMA window")
	cmd.Flags().IntVar(&f.long, "long", 0, "long SMA window")
	cmd.Flags().Float64Var(&f.capital, "capital", 0, "initial capital")
	cmd.Flags().Float64Var(&f.riskFree, "risk-free", 0, "annual risk-free rate as a fraction (0.02 = 2%)")
	cmd.Flags().StringVar(&f.reportDir, "out", "", "report directory")
	cmd.Flags().BoolVar(&f.noReport, "no-report", false, "skip writing report files")
}

// resolveRun builds the effective run definition: YAML file (or env defaults) then flags
func resolveRun(cmd *cobra.Command, envCfg *config.Config, f *runFlags) (*strategyconfig.Config, error) {
	var cfg *strategyconfig.Config
	if configFile != "" {
		loaded, _, err := strategyconfig.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load run config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = strategyconfig.Default(envCfg)
	}

	flags := cmd.Flags()
	if f.symbol != "" {
		cfg.Data.Symbol = strings.ToUpper(strings.TrimSpace(f.symbol))
	}
	if f.start != "" {
		cfg.Data.Start = f.start
	}
	if f.end != "" {
		cfg.Data.End = f.end
	}
	if f.interval != "" {
		cfg.Data.Interval = f.interval
	}
	if f.provider != "" {
		cfg.Data.Provider = strings.ToLower(f.provider)
	}
	if flags.Changed("short") {
		cfg.Strategy.ShortWindow = f.short
	}
	if flags.Changed("long") {
		cfg.Strategy.LongWindow = f.long
	}
	if flags.Changed("capital") {
		cfg.Backtest.InitialCapital = f.capital
	}
	if flags.Changed("risk-free") {
		cfg.Backtest.RiskFreeRate = f.riskFree
	}
	if f.reportDir != "" {
		cfg.Report.Dir = f.reportDir
	}

	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, err
	}

	for _, w := range strategyconfig.CheckWarnings(cfg) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	return cfg, nil
}
