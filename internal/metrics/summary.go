package metrics

import (
	"github.com/wonny/algosim/internal/contracts"
)

// Summary is the full set of statistics reported for one backtest
// ⭐ SSOT: 성과 지표 묶음은 여기서만
type Summary struct {
	TradingDays    int     `json:"trading_days" yaml:"trading_days"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	FinalCapital   float64 `json:"final_capital" yaml:"final_capital"`

	// 수익률
	TotalReturnPct   float64 `json:"total_return_pct" yaml:"total_return_pct"`
	CAGR             float64 `json:"cagr" yaml:"cagr"`
	BuyHoldReturnPct float64 `json:"buy_hold_return_pct" yaml:"buy_hold_return_pct"`

	// 리스크 지표
	VolatilityPct  float64 `json:"volatility_pct" yaml:"volatility_pct"`
	Sharpe         float64 `json:"sharpe" yaml:"sharpe"`
	Sortino        Ratio   `json:"sortino" yaml:"sortino"`
	Calmar         Ratio   `json:"calmar" yaml:"calmar"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	VaR95Pct       float64 `json:"var_95_pct" yaml:"var_95_pct"`   // one-bar historical VaR
	CVaR95Pct      float64 `json:"cvar_95_pct" yaml:"cvar_95_pct"` // expected shortfall beyond VaR

	// 트레이딩 지표
	WinRate         float64 `json:"win_rate" yaml:"win_rate"`
	AvgWinPct       float64 `json:"avg_win_pct" yaml:"avg_win_pct"`
	AvgLossPct      float64 `json:"avg_loss_pct" yaml:"avg_loss_pct"`
	ProfitFactor    Ratio   `json:"profit_factor" yaml:"profit_factor"`
	ExposurePct     float64 `json:"exposure_pct" yaml:"exposure_pct"`
	PositionChanges int     `json:"position_changes" yaml:"position_changes"`
}

// Summarize derives every statistic from a backtest result
func Summarize(result *contracts.BacktestResult, riskFreeRate float64) Summary {
	equity := result.Equity()
	returns := result.StrategyReturns()
	positions := result.Positions()

	adjCloses := make([]float64, len(result.Bars))
	for i, b := range result.Bars {
		adjCloses[i] = b.AdjClose
	}

	tail := HistoricalVaR(returns, DefaultVaRConfidence)

	return Summary{
		TradingDays:      len(result.Bars),
		InitialCapital:   result.InitialCapital,
		FinalCapital:     result.FinalCapital,
		TotalReturnPct:   result.TotalReturnPct,
		CAGR:             CAGR(equity),
		BuyHoldReturnPct: BuyAndHoldReturn(adjCloses),
		VolatilityPct:    Volatility(returns),
		Sharpe:           Sharpe(returns, riskFreeRate),
		Sortino:          Sortino(returns, riskFreeRate, 0),
		Calmar:           Calmar(equity),
		MaxDrawdownPct:   result.MaxDrawdownPct,
		VaR95Pct:         tail.VaRPct,
		CVaR95Pct:        tail.CVaRPct,
		WinRate:          WinRate(returns),
		AvgWinPct:        AverageWin(returns),
		AvgLossPct:       AverageLoss(returns),
		ProfitFactor:     ProfitFactor(returns),
		ExposurePct:      Exposure(positions),
		PositionChanges:  PositionChanges(positions),
	}
}

// BuyAndHoldReturn is the total return of holding from the first to the last price, in percent
func BuyAndHoldReturn(prices []float64) float64 {
	clean := Clean(prices)
	if len(clean) < 2 || clean[0] == 0 {
		return 0
	}
	return (clean[len(clean)-1]/clean[0] - 1) * 100
}

// Exposure is the share of bars with a non-zero position, in percent
func Exposure(positions []contracts.Signal) float64 {
	if len(positions) == 0 {
		return 0
	}
	held := 0
	for _, p := range positions {
		if p != contracts.SignalNone {
			held++
		}
	}
	return float64(held) / float64(len(positions)) * 100
}

// PositionChanges counts bars where the held position differs from the previous bar
func PositionChanges(positions []contracts.Signal) int {
	changes := 0
	for i := 1; i < len(positions); i++ {
		if positions[i] != positions[i-1] {
			changes++
		}
	}
	return changes
}
