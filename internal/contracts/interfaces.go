package contracts

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PriceProvider fetches daily bars dated in [from, to) from an external source.
// An empty series with a nil error means the source had no data.
// ⭐ SSOT: 가격 데이터 소스 인터페이스
type PriceProvider interface {
	Name() string
	FetchPrices(ctx context.Context, symbol, interval string, from, to time.Time) (PriceSeries, error)
}

// PriceStore persists fetched series keyed by SeriesKey
// ⭐ SSOT: 가격 저장소 인터페이스
type PriceStore interface {
	Load(ctx context.Context, key SeriesKey) (PriceSeries, bool, error)
	Save(ctx context.Context, key SeriesKey, series PriceSeries) error
}

// SeriesKey identifies one cached price request
type SeriesKey struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// String renders the key as SYMBOL_interval_start_end
func (k SeriesKey) String() string {
	return fmt.Sprintf("%s_%s_%s_%s",
		strings.ToUpper(k.Symbol), k.Interval,
		k.Start.Format("2006-01-02"), k.End.Format("2006-01-02"))
}

// Validate checks the key is usable
func (k SeriesKey) Validate() error {
	if strings.TrimSpace(k.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidParameter)
	}
	if k.Interval == "" {
		return fmt.Errorf("%w: interval is required", ErrInvalidParameter)
	}
	if !k.End.After(k.Start) {
		return fmt.Errorf("%w: end %s must be after start %s", ErrInvalidParameter,
			k.End.Format("2006-01-02"), k.Start.Format("2006-01-02"))
	}
	return nil
}
