package contracts

import (
	"math"
	"time"
)

// BarResult is one row of the annotated backtest series.
// Optional fields are nil where the value is undefined (averages before their
// window fills, returns on the first bar).
type BarResult struct {
	Date           time.Time `json:"date"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Close          float64   `json:"close"`
	AdjClose       float64   `json:"adj_close"`
	Volume         int64     `json:"volume"`
	ShortMA        *float64  `json:"short_ma"`
	LongMA         *float64  `json:"long_ma"`
	Signal         Signal    `json:"signal"`
	Position       Signal    `json:"position"`
	MarketReturn   *float64  `json:"market_return"`
	StrategyReturn *float64  `json:"strategy_return"`
	Equity         float64   `json:"equity"`
	Drawdown       float64   `json:"drawdown"`
}

// BacktestResult is the immutable summary of one backtest run
// ⭐ SSOT: 백테스트 결과 값 타입은 여기서만
type BacktestResult struct {
	InitialCapital float64     `json:"initial_capital"`
	FinalCapital   float64     `json:"final_capital"`
	TotalReturnPct float64     `json:"total_return_pct"`
	MaxDrawdownPct float64     `json:"max_drawdown_pct"`
	Bars           []BarResult `json:"bars"`
}

// Equity returns a copy of the equity curve
func (r *BacktestResult) Equity() []float64 {
	out := make([]float64, len(r.Bars))
	for i, b := range r.Bars {
		out[i] = b.Equity
	}
	return out
}

// StrategyReturns returns strategy returns with NaN where undefined
func (r *BacktestResult) StrategyReturns() []float64 {
	out := make([]float64, len(r.Bars))
	for i, b := range r.Bars {
		out[i] = Deref(b.StrategyReturn)
	}
	return out
}

// Positions returns the canonical position column
func (r *BacktestResult) Positions() []Signal {
	out := make([]Signal, len(r.Bars))
	for i, b := range r.Bars {
		out[i] = b.Position
	}
	return out
}

// Optional maps NaN to nil so undefined values serialize as null
func Optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// Deref maps nil back to NaN
func Deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
