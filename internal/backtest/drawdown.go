package backtest

import "github.com/wonny/algosim/internal/drawdown"

// MaxDrawdown returns the deepest decline of the equity curve in percent (<= 0)
func MaxDrawdown(equity []float64) float64 {
	return drawdown.Max(equity)
}

// DrawdownSeries returns the per-bar decline from the running peak
func DrawdownSeries(equity []float64) []float64 {
	return drawdown.Series(equity)
}
