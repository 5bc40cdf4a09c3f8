package backtest

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/strategy"
	"github.com/wonny/algosim/pkg/logger"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func seriesFromCloses(closes ...float64) contracts.PriceSeries {
	out := make(contracts.PriceSeries, len(closes))
	for i, c := range closes {
		out[i] = contracts.Bar{
			Date:     day0.AddDate(0, 0, i),
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			AdjClose: c,
			Volume:   1000,
		}
	}
	return out
}

func signalsFor(series contracts.PriceSeries, sigs ...contracts.Signal) contracts.SignalSeries {
	out := make(contracts.SignalSeries, len(series))
	for i := range series {
		out[i] = contracts.SignalBar{
			Date:    series[i].Date,
			ShortMA: math.NaN(),
			LongMA:  math.NaN(),
			Signal:  sigs[i],
		}
	}
	return out
}

func runStrategy(t *testing.T, series contracts.PriceSeries, short, long int, capital float64) *contracts.BacktestResult {
	t.Helper()

	signals, err := strategy.Generate(series, short, long)
	require.NoError(t, err)

	result, err := Run(series, signals, capital)
	require.NoError(t, err)
	return result
}

func TestRun_ConstantPrices(t *testing.T) {
	series := seriesFromCloses(10, 10, 10, 10, 10, 10, 10, 10)
	result := runStrategy(t, series, 2, 4, 1000)

	for i, bar := range result.Bars {
		assert.Equal(t, contracts.SignalNone, bar.Signal, "bar %d", i)
		assert.Equal(t, contracts.SignalNone, bar.Position, "bar %d", i)
		assert.Equal(t, 1000.0, bar.Equity, "bar %d", i)
		if i > 0 {
			require.NotNil(t, bar.StrategyReturn)
			assert.Equal(t, 0.0, *bar.StrategyReturn)
		}
	}
	assert.Equal(t, 0.0, result.TotalReturnPct)
	assert.Equal(t, 0.0, result.MaxDrawdownPct)
}

func TestRun_RisingPrices(t *testing.T) {
	series := seriesFromCloses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	result := runStrategy(t, series, 2, 3, 1000)

	// long window fills at index 2; the position follows one bar later
	for i, bar := range result.Bars {
		if i <= 2 {
			assert.Equal(t, contracts.SignalNone, bar.Position, "bar %d", i)
			continue
		}
		assert.Equal(t, contracts.SignalLong, bar.Position, "bar %d", i)
		assert.Equal(t, *bar.MarketReturn, *bar.StrategyReturn, "bar %d", i)
		assert.Greater(t, bar.Equity, result.Bars[i-1].Equity, "bar %d", i)
	}
	assert.Equal(t, 0.0, result.MaxDrawdownPct)
}

func TestRun_CrossoverLag(t *testing.T) {
	series := seriesFromCloses(10, 10, 10, 12, 14, 16)
	result := runStrategy(t, series, 2, 3, 1000)

	signals := make([]contracts.Signal, len(result.Bars))
	for i, b := range result.Bars {
		signals[i] = b.Signal
	}
	assert.Equal(t, []contracts.Signal{0, 0, 0, 1, 1, 1}, signals)
	assert.Equal(t, []contracts.Signal{0, 0, 0, 0, 1, 1}, result.Positions())

	wantEquity := []float64{1000, 1000, 1000, 1000, 1000 * 14.0 / 12, 1000 * 16.0 / 12}
	assert.InDeltaSlice(t, wantEquity, result.Equity(), 1e-9)
	assert.InDelta(t, 33.3333333, result.TotalReturnPct, 1e-6)

	// averages are undefined until their windows fill
	assert.Nil(t, result.Bars[0].ShortMA)
	assert.Nil(t, result.Bars[1].LongMA)
	require.NotNil(t, result.Bars[2].LongMA)
	assert.InDelta(t, 10.0, *result.Bars[2].LongMA, 1e-12)
}

func TestRun_FirstBarInvariants(t *testing.T) {
	series := seriesFromCloses(5, 6, 4, 7, 3, 8)
	signals := signalsFor(series,
		contracts.SignalLong, contracts.SignalShort, contracts.SignalLong,
		contracts.SignalShort, contracts.SignalLong, contracts.SignalShort)

	result, err := Run(series, signals, 2500)
	require.NoError(t, err)

	first := result.Bars[0]
	assert.Equal(t, 2500.0, first.Equity)
	assert.Equal(t, contracts.SignalNone, first.Position)
	assert.Nil(t, first.MarketReturn)
	assert.Nil(t, first.StrategyReturn)

	// total return round-trips through final capital
	assert.InDelta(t, result.FinalCapital,
		result.InitialCapital*(1+result.TotalReturnPct/100), 1e-9)
}

func TestRun_ShortPosition(t *testing.T) {
	series := seriesFromCloses(100, 90, 81)
	signals := signalsFor(series, contracts.SignalShort, contracts.SignalShort, contracts.SignalShort)

	result, err := Run(series, signals, 1000)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1000, 1100, 1210}, result.Equity(), 1e-9)
}

func TestRun_EquityNotClamped(t *testing.T) {
	// a short through a tripling loses 200% of equity
	series := seriesFromCloses(10, 30)
	signals := signalsFor(series, contracts.SignalShort, contracts.SignalNone)

	result, err := Run(series, signals, 1000)
	require.NoError(t, err)

	assert.InDelta(t, -1000.0, result.FinalCapital, 1e-9)
}

func TestRun_Drawdown(t *testing.T) {
	series := seriesFromCloses(100, 120, 90, 110, 130)
	signals := signalsFor(series,
		contracts.SignalLong, contracts.SignalLong, contracts.SignalLong,
		contracts.SignalLong, contracts.SignalLong)

	result, err := Run(series, signals, 100)
	require.NoError(t, err)

	assert.InDelta(t, -25.0, result.MaxDrawdownPct, 1e-9)
	for _, bar := range result.Bars {
		assert.LessOrEqual(t, bar.Drawdown, 0.0)
	}
	assert.Equal(t, 0.0, result.Bars[4].Drawdown)
}

func TestRun_Errors(t *testing.T) {
	series := seriesFromCloses(1, 2, 3)
	aligned := signalsFor(series, 0, 0, 0)

	t.Run("empty series", func(t *testing.T) {
		result, err := Run(nil, nil, 1000)
		assert.ErrorIs(t, err, contracts.ErrEmptySeries)
		assert.Nil(t, result)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := Run(series, aligned[:2], 1000)
		assert.ErrorIs(t, err, contracts.ErrMisalignedSeries)
	})

	t.Run("date mismatch", func(t *testing.T) {
		shifted := signalsFor(series, 0, 0, 0)
		shifted[1].Date = shifted[1].Date.AddDate(0, 0, 7)
		_, err := Run(series, shifted, 1000)
		assert.ErrorIs(t, err, contracts.ErrMisalignedSeries)
	})

	for _, capital := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Run(series, aligned, capital)
		assert.ErrorIs(t, err, contracts.ErrInvalidParameter, "capital %v", capital)
	}
}

func TestRun_DoesNotMutateInputs(t *testing.T) {
	series := seriesFromCloses(10, 10, 10, 12, 14, 16)
	signals, err := strategy.Generate(series, 2, 3)
	require.NoError(t, err)

	seriesBefore := series.Clone()
	signalsBefore := make([]contracts.Signal, len(signals))
	copy(signalsBefore, signals.Signals())

	_, err = Run(series, signals, 1000)
	require.NoError(t, err)

	assert.Equal(t, seriesBefore, series)
	assert.Equal(t, signalsBefore, signals.Signals())
}

func TestDrawdownHelpers(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100}))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100, 100, 101}))
	assert.InDelta(t, -50.0, MaxDrawdown([]float64{100, 50, 75}), 1e-9)
	assert.InDeltaSlice(t, []float64{0, -0.5, -0.25}, DrawdownSeries([]float64{100, 50, 75}), 1e-12)
}

func TestEngine_Execute(t *testing.T) {
	var buf bytes.Buffer
	engine := NewEngine(logger.NewWithWriter(&buf, "debug", "json"))

	series := seriesFromCloses(10, 10, 10, 12, 14, 16)
	report, err := engine.Execute(context.Background(), series, Params{
		Symbol:         "TEST",
		ShortWindow:    2,
		LongWindow:     3,
		InitialCapital: 1000,
		RiskFreeRate:   0.02,
	})
	require.NoError(t, err)

	assert.Equal(t, "TEST", report.Params.Symbol)
	assert.Len(t, report.Result.Bars, 6)
	assert.Equal(t, 6, report.Summary.TradingDays)
	assert.Equal(t, report.Result.MaxDrawdownPct, report.Summary.MaxDrawdownPct)
	assert.InDelta(t, 60.0, report.Summary.BuyHoldReturnPct, 1e-9)
	assert.Equal(t, 1, report.Summary.PositionChanges)
	assert.Contains(t, buf.String(), "Backtest completed")
}

func TestEngine_ExecuteErrors(t *testing.T) {
	engine := NewEngine(logger.Nop())
	ctx := context.Background()

	tests := []struct {
		name   string
		series contracts.PriceSeries
		params Params
		want   error
	}{
		{
			name:   "short not below long",
			series: seriesFromCloses(1, 2, 3, 4),
			params: Params{ShortWindow: 3, LongWindow: 3, InitialCapital: 1000},
			want:   contracts.ErrInvalidParameter,
		},
		{
			name:   "empty series",
			series: nil,
			params: Params{ShortWindow: 2, LongWindow: 3, InitialCapital: 1000},
			want:   contracts.ErrEmptySeries,
		},
		{
			name:   "too few bars",
			series: seriesFromCloses(1, 2),
			params: Params{ShortWindow: 2, LongWindow: 3, InitialCapital: 1000},
			want:   contracts.ErrInsufficientData,
		},
		{
			name:   "zero capital",
			series: seriesFromCloses(1, 2, 3),
			params: Params{ShortWindow: 2, LongWindow: 3},
			want:   contracts.ErrInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := engine.Execute(ctx, tt.series, tt.params)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Nil(t, report)
		})
	}
}

func TestEngine_ExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(logger.Nop()).Execute(ctx, seriesFromCloses(1, 2, 3), Params{
		ShortWindow: 2, LongWindow: 3, InitialCapital: 1000,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
