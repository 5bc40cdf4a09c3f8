package contracts

import (
	"fmt"
	"time"
)

// Bar is one daily OHLCV observation
// ⭐ SSOT: 가격 바 정의는 여기서만
type Bar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// IsValid reports whether the bar carries usable prices
func (b Bar) IsValid() bool {
	return !b.Date.IsZero() &&
		b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 &&
		b.AdjClose >= 0 && b.Volume >= 0
}

// PriceSeries is an ascending, duplicate-free sequence of bars
type PriceSeries []Bar

// Clone returns an independent copy of the series
func (s PriceSeries) Clone() PriceSeries {
	if s == nil {
		return nil
	}
	out := make(PriceSeries, len(s))
	copy(out, s)
	return out
}

// AdjCloses returns the adjusted close column
func (s PriceSeries) AdjCloses() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.AdjClose
	}
	return out
}

// Dates returns the date column
func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, b := range s {
		out[i] = b.Date
	}
	return out
}

// CheckOrdered verifies dates are strictly increasing
func (s PriceSeries) CheckOrdered() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("bar %d (%s) is not after bar %d (%s)",
				i, s[i].Date.Format("2006-01-02"), i-1, s[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}
