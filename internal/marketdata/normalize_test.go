package marketdata

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/algosim/internal/contracts"
)

func TestNormalize(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)

	dup := bar(1, 200)
	noAdj := bar(2, 50)
	noAdj.AdjClose = 0
	bad := bar(3, 10)
	bad.Open = -1
	nan := bar(4, 10)
	nan.High = math.NaN()
	late := bar(6, 70)
	late.Date = time.Date(2024, 1, 8, 15, 30, 0, 0, seoul)

	raw := contracts.PriceSeries{late, bar(1, 100), bar(0, 90), dup, noAdj, bad, nan}
	got := Normalize(raw)

	require.Len(t, got, 4)
	require.NoError(t, got.CheckOrdered())

	assert.Equal(t, day0, got[0].Date)
	assert.Equal(t, 200.0, got[1].Close, "duplicate keeps the last row")
	assert.Equal(t, 50.0, got[2].AdjClose, "missing adj close falls back to close")
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), got[3].Date)

	// input untouched
	assert.Equal(t, late, raw[0])
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
}

func TestValidate(t *testing.T) {
	noAdj := bar(1, 101)
	noAdj.AdjClose = 0
	bad := bar(2, 99)
	bad.Close = 0

	series := contracts.PriceSeries{bar(0, 100), noAdj, bad, bar(1, 101), bar(20, 105)}
	report := Validate(series)

	assert.Equal(t, 5, report.TotalBars)
	assert.Equal(t, 4, report.ValidBars)
	assert.Equal(t, 1, report.InvalidBars)
	assert.Equal(t, 1, report.DuplicateDates)
	assert.Equal(t, 1, report.OutOfOrder)
	assert.Equal(t, 1, report.MissingAdjClose)
	require.Len(t, report.Gaps, 1)
	assert.Equal(t, 19, report.Gaps[0].Days)
	assert.InDelta(t, 0.8, report.Coverage, 1e-9)
	assert.False(t, report.Passed())
	assert.Contains(t, report.String(), "bars=5")
}

func TestValidate_Clean(t *testing.T) {
	report := Validate(testSeries())
	assert.True(t, report.Passed())
	assert.Empty(t, report.Gaps)
	assert.Equal(t, 1.0, report.Coverage)

	assert.False(t, Validate(nil).Passed())
}
