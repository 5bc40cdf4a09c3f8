package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/drawdown"
	"github.com/wonny/algosim/internal/metrics"
	"github.com/wonny/algosim/internal/strategy"
	"github.com/wonny/algosim/pkg/logger"
)

// Engine runs backtesting simulations
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	logger *logger.Logger
}

// Params holds one backtest configuration
type Params struct {
	Symbol         string  `json:"symbol" yaml:"symbol"`
	ShortWindow    int     `json:"short_window" yaml:"short_window"`
	LongWindow     int     `json:"long_window" yaml:"long_window"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// Validate checks windows and capital before any computation happens
func (p Params) Validate() error {
	if err := strategy.ValidateWindows(p.ShortWindow, p.LongWindow); err != nil {
		return err
	}
	return validateCapital(p.InitialCapital)
}

// Report bundles the result of one run with its metrics
type Report struct {
	Params   Params                    `json:"params"`
	Result   *contracts.BacktestResult `json:"result"`
	Summary  metrics.Summary           `json:"summary"`
	Duration time.Duration             `json:"duration"`
}

// NewEngine creates a new backtest engine
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Execute generates signals, runs the backtest and computes metrics
func (e *Engine) Execute(ctx context.Context, series contracts.PriceSeries, params Params) (*Report, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := e.logger.WithFields(map[string]interface{}{
		"symbol":          params.Symbol,
		"short_window":    params.ShortWindow,
		"long_window":     params.LongWindow,
		"initial_capital": params.InitialCapital,
		"bars":            len(series),
	})
	log.Debug("Starting backtest")

	startTime := time.Now()

	signals, err := strategy.Generate(series, params.ShortWindow, params.LongWindow)
	if err != nil {
		return nil, fmt.Errorf("generate signals: %w", err)
	}

	result, err := Run(series, signals, params.InitialCapital)
	if err != nil {
		return nil, fmt.Errorf("run backtest: %w", err)
	}

	report := &Report{
		Params:   params,
		Result:   result,
		Summary:  metrics.Summarize(result, params.RiskFreeRate),
		Duration: time.Since(startTime),
	}

	log.WithFields(map[string]interface{}{
		"duration":     report.Duration,
		"total_return": fmt.Sprintf("%.2f%%", result.TotalReturnPct),
		"sharpe_ratio": fmt.Sprintf("%.2f", float64(report.Summary.Sharpe)),
		"max_drawdown": fmt.Sprintf("%.2f%%", result.MaxDrawdownPct),
	}).Info("Backtest completed")

	return report, nil
}

// Run converts signals into positions, returns and an equity curve.
//
// The signal observed at the close of bar t is held during bar t+1, so the
// first bar never carries a position. Returns use the adjusted close. The
// first bar has no market or strategy return; it compounds as zero.
// Equity is not floored: leveraged short losses can push it below zero.
func Run(series contracts.PriceSeries, signals contracts.SignalSeries, initialCapital float64) (*contracts.BacktestResult, error) {
	if len(series) == 0 {
		return nil, contracts.ErrEmptySeries
	}
	if err := validateCapital(initialCapital); err != nil {
		return nil, err
	}
	if err := checkAlignment(series, signals); err != nil {
		return nil, err
	}

	prices := series.Clone()
	sigs := make(contracts.SignalSeries, len(signals))
	copy(sigs, signals)

	bars := make([]contracts.BarResult, len(prices))
	equity := make([]float64, len(prices))

	for i, bar := range prices {
		position := contracts.SignalNone
		marketReturn := math.NaN()
		strategyReturn := math.NaN()
		growth := 1.0

		if i > 0 {
			position = sigs[i-1].Signal
			marketReturn = bar.AdjClose/prices[i-1].AdjClose - 1
			strategyReturn = marketReturn * float64(position)
			growth = 1 + strategyReturn
		}

		if i == 0 {
			equity[i] = initialCapital
		} else {
			equity[i] = equity[i-1] * growth
		}

		bars[i] = contracts.BarResult{
			Date:           bar.Date,
			Open:           bar.Open,
			High:           bar.High,
			Low:            bar.Low,
			Close:          bar.Close,
			AdjClose:       bar.AdjClose,
			Volume:         bar.Volume,
			ShortMA:        contracts.Optional(sigs[i].ShortMA),
			LongMA:         contracts.Optional(sigs[i].LongMA),
			Signal:         sigs[i].Signal,
			Position:       position,
			MarketReturn:   contracts.Optional(marketReturn),
			StrategyReturn: contracts.Optional(strategyReturn),
			Equity:         equity[i],
		}
	}

	for i, d := range drawdown.Series(equity) {
		bars[i].Drawdown = d
	}

	finalCapital := equity[len(equity)-1]

	return &contracts.BacktestResult{
		InitialCapital: initialCapital,
		FinalCapital:   finalCapital,
		TotalReturnPct: (finalCapital/initialCapital - 1) * 100,
		MaxDrawdownPct: drawdown.Max(equity),
		Bars:           bars,
	}, nil
}

func validateCapital(capital float64) error {
	if !(capital > 0) || math.IsInf(capital, 0) {
		return fmt.Errorf("%w: initial capital must be positive, got %v",
			contracts.ErrInvalidParameter, capital)
	}
	return nil
}

func checkAlignment(series contracts.PriceSeries, signals contracts.SignalSeries) error {
	if len(signals) != len(series) {
		return fmt.Errorf("%w: %d signals for %d bars",
			contracts.ErrMisalignedSeries, len(signals), len(series))
	}
	for i := range series {
		if !signals[i].Date.Equal(series[i].Date) {
			return fmt.Errorf("%w: bar %d dated %s, signal dated %s",
				contracts.ErrMisalignedSeries, i,
				series[i].Date.Format("2006-01-02"), signals[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}
