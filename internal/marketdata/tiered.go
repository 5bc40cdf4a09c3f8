package marketdata

import (
	"context"
	"fmt"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/pkg/logger"
)

var _ contracts.PriceStore = (*Tiered)(nil)

// Tiered chains stores from fastest to slowest.
// Load returns the first hit and backfills the faster tiers; Save writes every tier.
type Tiered struct {
	tiers  []contracts.PriceStore
	logger *logger.Logger
}

// NewTiered builds a chain; nil stores are skipped
func NewTiered(log *logger.Logger, tiers ...contracts.PriceStore) *Tiered {
	t := &Tiered{logger: log}
	for _, s := range tiers {
		if s != nil {
			t.tiers = append(t.tiers, s)
		}
	}
	return t
}

// Len returns the number of tiers
func (t *Tiered) Len() int {
	return len(t.tiers)
}

// Load walks the tiers in order
func (t *Tiered) Load(ctx context.Context, key contracts.SeriesKey) (contracts.PriceSeries, bool, error) {
	for i, store := range t.tiers {
		series, found, err := store.Load(ctx, key)
		if err != nil {
			// 캐시 계층 오류는 다음 계층으로 넘어감
			t.logger.WithError(err).WithField("tier", i).Warn("Price store load failed")
			continue
		}
		if !found {
			continue
		}

		for j := 0; j < i; j++ {
			if err := t.tiers[j].Save(ctx, key, series); err != nil {
				t.logger.WithError(err).WithField("tier", j).Warn("Price store backfill failed")
			}
		}
		return series, true, nil
	}
	return nil, false, nil
}

// Save writes to every tier and returns the first error
func (t *Tiered) Save(ctx context.Context, key contracts.SeriesKey, series contracts.PriceSeries) error {
	var firstErr error
	for i, store := range t.tiers {
		if err := store.Save(ctx, key, series); err != nil {
			t.logger.WithError(err).WithField("tier", i).Warn("Price store save failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("save tier %d: %w", i, err)
			}
		}
	}
	return firstErr
}
