// Package marketdata loads, cleans and persists daily price series.
package marketdata

import (
	"math"
	"slices"
	"time"

	"github.com/wonny/algosim/internal/contracts"
)

// Normalize returns a clean copy of series: dates truncated to UTC days,
// ascending order, duplicate dates collapsed (last one wins), AdjClose
// filled from Close when missing, and unusable rows dropped.
// ⭐ SSOT: 시계열 정규화는 여기서만
func Normalize(series contracts.PriceSeries) contracts.PriceSeries {
	if len(series) == 0 {
		return contracts.PriceSeries{}
	}

	bars := make(contracts.PriceSeries, 0, len(series))
	for _, b := range series {
		b.Date = truncateDay(b.Date)
		if !(b.AdjClose > 0) || math.IsInf(b.AdjClose, 0) {
			b.AdjClose = b.Close
		}
		if !isFinite(b) || !b.IsValid() {
			continue
		}
		bars = append(bars, b)
	}

	slices.SortStableFunc(bars, func(a, b contracts.Bar) int {
		return a.Date.Compare(b.Date)
	})

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isFinite(b contracts.Bar) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.AdjClose} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
