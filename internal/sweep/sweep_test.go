package sweep

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/metrics"
	"github.com/wonny/algosim/pkg/logger"
)

// wave builds a noisy oscillating series so different pairs score differently
func wave(n int) contracts.PriceSeries {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(contracts.PriceSeries, n)
	for i := range out {
		c := 100 + 10*math.Sin(float64(i)/7) + float64(i)*0.05 + 2*math.Sin(float64(i)*1.3)
		out[i] = contracts.Bar{
			Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1,
			Close: c, AdjClose: c, Volume: 1000,
		}
	}
	return out
}

func baseParams() backtest.Params {
	return backtest.Params{Symbol: "WAVE", InitialCapital: 10000, RiskFreeRate: 0.02}
}

func TestGridPairs(t *testing.T) {
	grid := Grid{
		ShortWindows: []int{20, 5, 5, 0, 50},
		LongWindows:  []int{50, 20, 10},
	}

	assert.Equal(t, []Pair{
		{5, 10}, {5, 20}, {5, 50},
		{20, 50},
	}, grid.Pairs())

	assert.Empty(t, Grid{ShortWindows: []int{10}, LongWindows: []int{5}}.Pairs())
}

func TestRangeGrid(t *testing.T) {
	grid := RangeGrid(5, 20, 5, 50, 70, 10)
	assert.Equal(t, []int{5, 10, 15}, grid.ShortWindows)
	assert.Equal(t, []int{50, 60}, grid.LongWindows)
	assert.Len(t, grid.Pairs(), 6)
}

func TestRunner_Run(t *testing.T) {
	runner := NewRunner(backtest.NewEngine(logger.Nop()), 3, logger.Nop())
	grid := Grid{ShortWindows: []int{3, 5, 10}, LongWindows: []int{20, 40, 500}}

	var calls int32
	outcome, err := runner.Run(context.Background(), wave(300), baseParams(), grid, func(Result) {
		atomic.AddInt32(&calls, 1)
	})
	require.NoError(t, err)

	assert.Len(t, outcome.Results, 6)
	assert.ElementsMatch(t, []Pair{{3, 500}, {5, 500}, {10, 500}}, outcome.Skipped)
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))

	for i := 1; i < len(outcome.Results); i++ {
		assert.GreaterOrEqual(t, outcome.Results[i-1].Summary.Sharpe, outcome.Results[i].Summary.Sharpe)
	}

	best, ok := outcome.Best()
	require.True(t, ok)
	assert.Equal(t, outcome.Results[0], best)
}

func TestRunner_MatchesSequentialExecution(t *testing.T) {
	engine := backtest.NewEngine(logger.Nop())
	series := wave(200)

	outcome, err := NewRunner(engine, 4, logger.Nop()).Run(context.Background(), series, baseParams(),
		Grid{ShortWindows: []int{5, 10}, LongWindows: []int{30}}, nil)
	require.NoError(t, err)

	for _, r := range outcome.Results {
		params := baseParams()
		params.ShortWindow, params.LongWindow = r.Pair.Short, r.Pair.Long
		report, err := engine.Execute(context.Background(), series, params)
		require.NoError(t, err)
		assert.Equal(t, report.Summary.TotalReturnPct, r.Summary.TotalReturnPct)
	}
}

func TestRunner_Errors(t *testing.T) {
	runner := NewRunner(backtest.NewEngine(logger.Nop()), 0, logger.Nop())
	ctx := context.Background()

	_, err := runner.Run(ctx, nil, baseParams(), Grid{ShortWindows: []int{5}, LongWindows: []int{10}}, nil)
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)

	_, err = runner.Run(ctx, wave(50), baseParams(), Grid{ShortWindows: []int{10}, LongWindows: []int{10}}, nil)
	assert.ErrorIs(t, err, contracts.ErrInvalidParameter)

	bad := baseParams()
	bad.InitialCapital = 0
	_, err = runner.Run(ctx, wave(50), bad, Grid{ShortWindows: []int{5}, LongWindows: []int{10}}, nil)
	assert.ErrorIs(t, err, contracts.ErrInvalidParameter)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = runner.Run(canceled, wave(50), baseParams(), Grid{ShortWindows: []int{5}, LongWindows: []int{10}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRank(t *testing.T) {
	results := []Result{
		{Pair: Pair{10, 50}, Summary: metrics.Summary{Sharpe: 0.5, TotalReturnPct: 10}},
		{Pair: Pair{5, 50}, Summary: metrics.Summary{Sharpe: 1.2, TotalReturnPct: 30}},
		{Pair: Pair{20, 50}, Summary: metrics.Summary{Sharpe: 0.5, TotalReturnPct: 12}},
		{Pair: Pair{3, 50}, Summary: metrics.Summary{Sharpe: 0.5, TotalReturnPct: 12}},
	}

	Rank(results)

	got := make([]Pair, len(results))
	for i, r := range results {
		got[i] = r.Pair
	}
	assert.Equal(t, []Pair{{5, 50}, {3, 50}, {20, 50}, {10, 50}}, got)
}
