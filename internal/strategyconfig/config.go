// Package strategyconfig loads reproducible backtest run definitions from YAML.
package strategyconfig

import (
	"time"

	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/pkg/config"
)

// DateLayout is the only accepted date format in run files
const DateLayout = "2006-01-02"

// Config is one backtest run definition
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Data     Data     `yaml:"data" json:"data"`
	Strategy Strategy `yaml:"strategy" json:"strategy"`
	Backtest Backtest `yaml:"backtest" json:"backtest"`
	Sweep    Sweep    `yaml:"sweep" json:"sweep"`
	Report   Report   `yaml:"report" json:"report"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Data selects the price series
type Data struct {
	Symbol   string `yaml:"symbol" json:"symbol"`
	Interval string `yaml:"interval" json:"interval"`
	Start    string `yaml:"start" json:"start"` // YYYY-MM-DD
	End      string `yaml:"end" json:"end"`     // YYYY-MM-DD
	Provider string `yaml:"provider" json:"provider"`
}

// Strategy SMA 크로스오버 윈도우
type Strategy struct {
	ShortWindow int `yaml:"short_window" json:"short_window"`
	LongWindow  int `yaml:"long_window" json:"long_window"`
}

// Backtest 자본/무위험수익률
type Backtest struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	RiskFreeRate   float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// Sweep 파라미터 그리드 (비어 있으면 스윕 안 함)
type Sweep struct {
	ShortWindows []int `yaml:"short_windows" json:"short_windows"`
	LongWindows  []int `yaml:"long_windows" json:"long_windows"`
	Workers      int   `yaml:"workers" json:"workers"`
}

// Report 출력 위치
type Report struct {
	Dir string `yaml:"dir" json:"dir"`
}

// Default builds a run definition from environment defaults
func Default(env *config.Config) *Config {
	end := time.Now().UTC()
	start := end.AddDate(-10, 0, 0)

	return &Config{
		Meta: Meta{StrategyID: "sma_crossover", Version: "1"},
		Data: Data{
			Interval: env.Backtest.Interval,
			Start:    start.Format(DateLayout),
			End:      end.Format(DateLayout),
			Provider: env.Provider.Name,
		},
		Strategy: Strategy{
			ShortWindow: env.Backtest.ShortWindow,
			LongWindow:  env.Backtest.LongWindow,
		},
		Backtest: Backtest{
			InitialCapital: env.Backtest.InitialCapital,
			RiskFreeRate:   env.Backtest.RiskFreeRate,
		},
		Sweep:  Sweep{Workers: env.Backtest.SweepWorkers},
		Report: Report{Dir: env.Backtest.ReportDir},
	}
}

// StartDate parses data.start; call Validate first
func (c *Config) StartDate() time.Time {
	t, _ := time.Parse(DateLayout, c.Data.Start)
	return t
}

// EndDate parses data.end; call Validate first
func (c *Config) EndDate() time.Time {
	t, _ := time.Parse(DateLayout, c.Data.End)
	return t
}

// SeriesKey is the store key of the configured price range
func (c *Config) SeriesKey() contracts.SeriesKey {
	return contracts.SeriesKey{
		Symbol:   c.Data.Symbol,
		Interval: c.Data.Interval,
		Start:    c.StartDate(),
		End:      c.EndDate(),
	}
}

// Params converts the run definition into engine parameters
func (c *Config) Params() backtest.Params {
	return backtest.Params{
		Symbol:         c.Data.Symbol,
		ShortWindow:    c.Strategy.ShortWindow,
		LongWindow:     c.Strategy.LongWindow,
		InitialCapital: c.Backtest.InitialCapital,
		RiskFreeRate:   c.Backtest.RiskFreeRate,
	}
}
