package marketdata

import (
	"context"
	"fmt"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/pkg/logger"
)

// Loader resolves a series key from the store, falling back to the provider
// ⭐ SSOT: 가격 시계열 조회 경로는 여기서만
type Loader struct {
	provider contracts.PriceProvider
	store    contracts.PriceStore
	logger   *logger.Logger
}

// NewLoader creates a loader. store may be nil to disable persistence.
func NewLoader(provider contracts.PriceProvider, store contracts.PriceStore, log *logger.Logger) *Loader {
	return &Loader{provider: provider, store: store, logger: log}
}

// Load returns the series for key.
// Store hits are returned as-is; misses are fetched, normalized and saved.
// An empty result is ErrEmptySeries.
func (l *Loader) Load(ctx context.Context, key contracts.SeriesKey) (contracts.PriceSeries, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	log := l.logger.WithField("series", key.String())

	if l.store != nil {
		series, found, err := l.store.Load(ctx, key)
		if err != nil {
			log.WithError(err).Warn("Price store load failed, fetching from provider")
		} else if found && len(series) > 0 {
			log.WithField("bars", len(series)).Debug("Price series loaded from store")
			return series, nil
		}
	}

	return l.Refresh(ctx, key)
}

// Refresh always fetches from the provider and overwrites the stored copy
func (l *Loader) Refresh(ctx context.Context, key contracts.SeriesKey) (contracts.PriceSeries, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	log := l.logger.WithFields(map[string]interface{}{
		"series":   key.String(),
		"provider": l.provider.Name(),
	})

	raw, err := l.provider.FetchPrices(ctx, key.Symbol, key.Interval, key.Start, key.End)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", key, l.provider.Name(), err)
	}

	report := Validate(raw)
	if !report.Passed() && report.TotalBars > 0 {
		log.WithField("quality", report.String()).Warn("Fetched series needed normalization")
	}

	series := Normalize(raw)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s returned no usable bars for %s",
			contracts.ErrEmptySeries, l.provider.Name(), key)
	}

	if l.store != nil {
		if err := l.store.Save(ctx, key, series); err != nil {
			log.WithError(err).Warn("Price store save failed")
		}
	}

	log.WithField("bars", len(series)).Info("Price series fetched")
	return series, nil
}
