// Package metrics computes risk and return statistics from return and equity series.
//
// Every function is total: undefined observations (NaN, ±Inf) are dropped
// before computing, degenerate inputs return 0, and unbounded ratios return
// the Unbounded sentinel instead of an error.
package metrics

import (
	"math"

	"github.com/samber/lo"

	"github.com/wonny/algosim/internal/drawdown"
)

const (
	// TradingDaysPerYear annualizes daily statistics
	TradingDaysPerYear = 252

	// DefaultRiskFreeRate is the annual risk-free rate used by Sharpe and Sortino
	DefaultRiskFreeRate = 0.02
)

// Clean drops undefined observations
func Clean(values []float64) []float64 {
	return lo.Filter(values, func(v float64, _ int) bool {
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})
}

// CAGR returns the compound annual growth rate of an equity curve in percent.
// Returns 0 with fewer than two observations or a zero starting value.
// A curve ending at or below zero returns -100.
func CAGR(equity []float64) float64 {
	clean := Clean(equity)
	n := len(clean)
	if n < 2 {
		return 0
	}

	years := float64(n) / TradingDaysPerYear
	first, last := clean[0], clean[n-1]
	if years == 0 || first == 0 {
		return 0
	}

	ratio := last / first
	if ratio <= 0 {
		return -100
	}
	return (math.Pow(ratio, 1/years) - 1) * 100
}

// Sharpe returns the annualized Sharpe ratio of daily returns.
// Returns 0 when there are fewer than two returns or no volatility.
func Sharpe(returns []float64, riskFreeRate float64) float64 {
	clean := Clean(returns)
	if len(clean) < 2 {
		return 0
	}

	annualStd := sampleStd(clean) * math.Sqrt(TradingDaysPerYear)
	if annualStd == 0 {
		return 0
	}
	return (lo.Mean(clean)*TradingDaysPerYear - riskFreeRate) / annualStd
}

// Sortino is Sharpe with the deviation of returns below target as the risk measure.
// Returns 0 for no returns and Unbounded when the downside deviation is zero or
// cannot be measured (fewer than two downside returns).
func Sortino(returns []float64, riskFreeRate, target float64) Ratio {
	clean := Clean(returns)
	if len(clean) == 0 {
		return 0
	}

	downside := lo.Filter(clean, func(r float64, _ int) bool { return r < target })
	if len(downside) < 2 {
		return Unbounded
	}

	downsideStd := sampleStd(downside) * math.Sqrt(TradingDaysPerYear)
	if downsideStd == 0 {
		return Unbounded
	}
	return Ratio((lo.Mean(clean)*TradingDaysPerYear - riskFreeRate) / downsideStd)
}

// Calmar returns CAGR divided by the absolute max drawdown.
// Returns Unbounded when the curve never drew down.
func Calmar(equity []float64) Ratio {
	clean := Clean(equity)
	maxDD := math.Abs(drawdown.Max(clean))
	if maxDD == 0 {
		return Unbounded
	}
	return Ratio(CAGR(clean) / maxDD)
}

// WinRate returns the share of positive returns among non-zero returns in percent
func WinRate(returns []float64) float64 {
	clean := Clean(returns)
	traded := lo.CountBy(clean, func(r float64) bool { return r != 0 })
	if traded == 0 {
		return 0
	}
	wins := lo.CountBy(clean, func(r float64) bool { return r > 0 })
	return float64(wins) / float64(traded) * 100
}

// AverageWin returns the mean positive return in percent, 0 if none
func AverageWin(returns []float64) float64 {
	wins := lo.Filter(Clean(returns), func(r float64, _ int) bool { return r > 0 })
	if len(wins) == 0 {
		return 0
	}
	return lo.Mean(wins) * 100
}

// AverageLoss returns the mean negative return in percent, 0 if none
func AverageLoss(returns []float64) float64 {
	losses := lo.Filter(Clean(returns), func(r float64, _ int) bool { return r < 0 })
	if len(losses) == 0 {
		return 0
	}
	return lo.Mean(losses) * 100
}

// ProfitFactor returns gross gains over gross losses.
// Unbounded when there are no losses.
func ProfitFactor(returns []float64) Ratio {
	clean := Clean(returns)
	gains := lo.Sum(lo.Filter(clean, func(r float64, _ int) bool { return r > 0 }))
	losses := math.Abs(lo.Sum(lo.Filter(clean, func(r float64, _ int) bool { return r < 0 })))
	if losses == 0 {
		return Unbounded
	}
	return Ratio(gains / losses)
}

// Volatility returns annualized standard deviation of returns in percent
func Volatility(returns []float64) float64 {
	clean := Clean(returns)
	if len(clean) < 2 {
		return 0
	}
	return sampleStd(clean) * math.Sqrt(TradingDaysPerYear) * 100
}

// sampleStd is the n-1 standard deviation; callers guarantee len >= 2
func sampleStd(values []float64) float64 {
	mean := lo.Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
