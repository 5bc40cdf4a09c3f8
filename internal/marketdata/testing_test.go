package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/algosim/internal/contracts"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func testKey() contracts.SeriesKey {
	return contracts.SeriesKey{
		Symbol:   "AAPL",
		Interval: "1d",
		Start:    day0,
		End:      day0.AddDate(0, 1, 0),
	}
}

func bar(offset int, close float64) contracts.Bar {
	return contracts.Bar{
		Date:     day0.AddDate(0, 0, offset),
		Open:     close,
		High:     close + 1,
		Low:      close - 1,
		Close:    close,
		AdjClose: close * 0.98,
		Volume:   1000 + int64(offset),
	}
}

func testSeries() contracts.PriceSeries {
	return contracts.PriceSeries{bar(0, 100), bar(1, 101.5), bar(2, 99.25), bar(5, 103)}
}

// memStore is an in-memory PriceStore
type memStore struct {
	mu      sync.Mutex
	data    map[string]contracts.PriceSeries
	loadErr error
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]contracts.PriceSeries)}
}

func (m *memStore) Load(_ context.Context, key contracts.SeriesKey) (contracts.PriceSeries, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	s, ok := m.data[key.String()]
	return s, ok, nil
}

func (m *memStore) Save(_ context.Context, key contracts.SeriesKey, series contracts.PriceSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key.String()] = series.Clone()
	return nil
}

// stubProvider returns a fixed series
type stubProvider struct {
	series contracts.PriceSeries
	err    error
	calls  int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FetchPrices(_ context.Context, _, _ string, _, _ time.Time) (contracts.PriceSeries, error) {
	p.calls++
	return p.series.Clone(), p.err
}
