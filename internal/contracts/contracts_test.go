package contracts

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var d0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestBar_IsValid(t *testing.T) {
	good := Bar{Date: d0, Open: 10, High: 11, Low: 9, Close: 10.5, AdjClose: 10.2, Volume: 100}
	assert.True(t, good.IsValid())

	tests := []struct {
		name   string
		mutate func(*Bar)
	}{
		{"zero date", func(b *Bar) { b.Date = time.Time{} }},
		{"zero close", func(b *Bar) { b.Close = 0 }},
		{"negative low", func(b *Bar) { b.Low = -1 }},
		{"negative adj close", func(b *Bar) { b.AdjClose = -1 }},
		{"negative volume", func(b *Bar) { b.Volume = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := good
			tt.mutate(&b)
			assert.False(t, b.IsValid())
		})
	}
}

func TestPriceSeries_Columns(t *testing.T) {
	s := PriceSeries{
		{Date: d0, AdjClose: 1},
		{Date: d0.AddDate(0, 0, 1), AdjClose: 2},
	}

	assert.Equal(t, []float64{1, 2}, s.AdjCloses())
	assert.Equal(t, []time.Time{d0, d0.AddDate(0, 0, 1)}, s.Dates())
	require.NoError(t, s.CheckOrdered())

	clone := s.Clone()
	clone[0].AdjClose = 99
	assert.Equal(t, 1.0, s[0].AdjClose)
	assert.Nil(t, PriceSeries(nil).Clone())

	dup := PriceSeries{{Date: d0}, {Date: d0}}
	assert.ErrorContains(t, dup.CheckOrdered(), "bar 1 (2024-03-01) is not after bar 0")
}

func TestSeriesKey(t *testing.T) {
	key := SeriesKey{Symbol: "^gspc", Interval: "1d", Start: d0, End: d0.AddDate(1, 0, 0)}
	assert.Equal(t, "^GSPC_1d_2024-03-01_2025-03-01", key.String())
	require.NoError(t, key.Validate())

	tests := []struct {
		name string
		key  SeriesKey
	}{
		{"blank symbol", SeriesKey{Symbol: "  ", Interval: "1d", Start: d0, End: d0.AddDate(0, 0, 1)}},
		{"no interval", SeriesKey{Symbol: "X", Start: d0, End: d0.AddDate(0, 0, 1)}},
		{"empty range", SeriesKey{Symbol: "X", Interval: "1d", Start: d0, End: d0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.key.Validate(), ErrInvalidParameter))
		})
	}
}

func TestSignal(t *testing.T) {
	assert.Equal(t, "long", SignalLong.String())
	assert.Equal(t, "short", SignalShort.String())
	assert.Equal(t, "none", SignalNone.String())

	series := SignalSeries{
		{Date: d0, ShortMA: math.NaN(), LongMA: math.NaN()},
		{Date: d0.AddDate(0, 0, 1), ShortMA: 2, LongMA: 1, Signal: SignalLong},
	}
	assert.False(t, series[0].HasAverages())
	assert.True(t, series[1].HasAverages())
	assert.Equal(t, []Signal{SignalNone, SignalLong}, series.Signals())
}

func TestBacktestResult_Columns(t *testing.T) {
	r := &BacktestResult{Bars: []BarResult{
		{Equity: 100, Position: SignalNone},
		{Equity: 110, Position: SignalLong, StrategyReturn: Optional(0.1)},
	}}

	assert.Equal(t, []float64{100, 110}, r.Equity())
	assert.Equal(t, []Signal{SignalNone, SignalLong}, r.Positions())

	returns := r.StrategyReturns()
	assert.True(t, math.IsNaN(returns[0]))
	assert.InDelta(t, 0.1, returns[1], 1e-12)
}

func TestOptional(t *testing.T) {
	assert.Nil(t, Optional(math.NaN()))
	require.NotNil(t, Optional(1.5))
	assert.Equal(t, 1.5, *Optional(1.5))

	assert.True(t, math.IsNaN(Deref(nil)))
	assert.Equal(t, 2.0, Deref(Optional(2)))
}
