package contracts

import (
	"math"
	"time"
)

// Signal is the directional call for a bar before execution delay
type Signal int8

const (
	SignalShort Signal = -1
	SignalNone  Signal = 0
	SignalLong  Signal = 1
)

// String returns a human readable label
func (s Signal) String() string {
	switch s {
	case SignalLong:
		return "long"
	case SignalShort:
		return "short"
	default:
		return "none"
	}
}

// SignalBar attaches a signal and the averages that produced it to one date.
// ShortMA/LongMA are NaN until their window is full; Signal is 0 in that case.
type SignalBar struct {
	Date    time.Time
	ShortMA float64
	LongMA  float64
	Signal  Signal
}

// HasAverages reports whether both moving averages are defined
func (b SignalBar) HasAverages() bool {
	return !math.IsNaN(b.ShortMA) && !math.IsNaN(b.LongMA)
}

// SignalSeries is aligned 1:1 with the PriceSeries it was generated from
type SignalSeries []SignalBar

// Signals returns the signal column
func (s SignalSeries) Signals() []Signal {
	out := make([]Signal, len(s))
	for i, b := range s {
		out[i] = b.Signal
	}
	return out
}
