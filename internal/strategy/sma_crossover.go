package strategy

import (
	"fmt"
	"math"

	"github.com/wonny/algosim/internal/contracts"
)

// equalTolerance is the relative gap under which two averages count as equal.
// Averages of an unchanged price over different windows can differ in the last bit.
const equalTolerance = 1e-12

// SMACrossover goes long while the short average is above the long average
// and short while it is below.
// ⭐ SSOT: 이동평균 교차 시그널 생성은 여기서만
type SMACrossover struct {
	ShortWindow int
	LongWindow  int
}

// NewSMACrossover validates the windows and returns the strategy
func NewSMACrossover(short, long int) (*SMACrossover, error) {
	if err := ValidateWindows(short, long); err != nil {
		return nil, err
	}
	return &SMACrossover{ShortWindow: short, LongWindow: long}, nil
}

// Name returns the strategy identifier
func (s *SMACrossover) Name() string {
	return fmt.Sprintf("sma-cross-%d-%d", s.ShortWindow, s.LongWindow)
}

// Generate computes the signal series for the given prices
func (s *SMACrossover) Generate(series contracts.PriceSeries) (contracts.SignalSeries, error) {
	return Generate(series, s.ShortWindow, s.LongWindow)
}

// ValidateWindows checks 0 < short < long
func ValidateWindows(short, long int) error {
	if short <= 0 || long <= 0 {
		return fmt.Errorf("%w: windows must be positive (short=%d, long=%d)",
			contracts.ErrInvalidParameter, short, long)
	}
	if short >= long {
		return fmt.Errorf("%w: short window %d must be less than long window %d",
			contracts.ErrInvalidParameter, short, long)
	}
	return nil
}

// Generate maps a price series to one signal per bar using the adjusted close.
//
// Bars where either average is still undefined get Signal 0 rather than an
// undefined marker; the averages themselves stay NaN so callers can tell the
// two cases apart. A series shorter than the long window is rejected with
// ErrInsufficientData. The input series is never modified.
func Generate(series contracts.PriceSeries, short, long int) (contracts.SignalSeries, error) {
	if err := ValidateWindows(short, long); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, contracts.ErrEmptySeries
	}
	if len(series) < long {
		return nil, fmt.Errorf("%w: %d bars, long window needs %d",
			contracts.ErrInsufficientData, len(series), long)
	}

	closes := series.AdjCloses()
	shortMA := SMA(closes, short)
	longMA := SMA(closes, long)

	out := make(contracts.SignalSeries, len(series))
	for i, bar := range series {
		out[i] = contracts.SignalBar{
			Date:    bar.Date,
			ShortMA: shortMA[i],
			LongMA:  longMA[i],
			Signal:  compare(shortMA[i], longMA[i]),
		}
	}
	return out, nil
}

func compare(short, long float64) contracts.Signal {
	if math.IsNaN(short) || math.IsNaN(long) {
		return contracts.SignalNone
	}
	scale := math.Max(math.Abs(short), math.Abs(long))
	if math.Abs(short-long) <= equalTolerance*scale {
		return contracts.SignalNone
	}
	if short > long {
		return contracts.SignalLong
	}
	return contracts.SignalShort
}
