package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/pkg/config"
	"github.com/wonny/algosim/pkg/logger"
)

// Refresher re-fetches a series from the provider and stores it
type Refresher interface {
	Refresh(ctx context.Context, key contracts.SeriesKey) (contracts.PriceSeries, error)
}

// RefreshPricesJob re-downloads the watch list into the price store
// ⭐ SSOT: 가격 캐시 갱신 스케줄은 이 Job에서만
type RefreshPricesJob struct {
	refresher Refresher
	symbols   []string
	interval  string
	lookback  int
	schedule  string
	workers   int
	now       func() time.Time
	logger    *logger.Logger
}

// NewRefreshPricesJob creates the job from scheduler and backtest settings
func NewRefreshPricesJob(refresher Refresher, cfg *config.Config, log *logger.Logger) *RefreshPricesJob {
	return &RefreshPricesJob{
		refresher: refresher,
		symbols:   cfg.Scheduler.WatchList,
		interval:  cfg.Backtest.Interval,
		lookback:  cfg.Scheduler.LookbackDays,
		schedule:  cfg.Scheduler.RefreshSchedule,
		workers:   2,
		now:       time.Now,
		logger:    log,
	}
}

// Name returns the job name
func (j *RefreshPricesJob) Name() string {
	return "refresh_prices"
}

// Schedule returns the cron schedule (default weekdays 18:30)
func (j *RefreshPricesJob) Schedule() string {
	return j.schedule
}

// Keys returns the series keys refreshed by one run.
// End is tomorrow so today's bar is included in the half-open range.
func (j *RefreshPricesJob) Keys() []contracts.SeriesKey {
	today := j.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -j.lookback)
	end := today.AddDate(0, 0, 1)

	keys := make([]contracts.SeriesKey, 0, len(j.symbols))
	for _, symbol := range j.symbols {
		keys = append(keys, contracts.SeriesKey{
			Symbol:   symbol,
			Interval: j.interval,
			Start:    start,
			End:      end,
		})
	}
	return keys
}

// Run refreshes every symbol; one failure does not stop the others
func (j *RefreshPricesJob) Run(ctx context.Context) error {
	keys := j.Keys()
	if len(keys) == 0 {
		j.logger.Debug("Watch list is empty, nothing to refresh")
		return nil
	}

	j.logger.WithField("symbols", len(keys)).Info("Starting scheduled price refresh")

	var (
		mu     sync.Mutex
		failed []error
		bars   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			series, err := j.refresher.Refresh(gctx, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				j.logger.WithError(err).WithField("series", key.String()).Warn("Price refresh failed")
				failed = append(failed, fmt.Errorf("%s: %w", key.Symbol, err))
				return nil
			}
			bars += len(series)
			return nil
		})
	}
	_ = g.Wait()

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(keys),
		"failed":  len(failed),
		"bars":    bars,
	}).Info("Scheduled price refresh completed")

	if len(failed) > 0 {
		return fmt.Errorf("refresh %d of %d symbols failed: %w", len(failed), len(keys), errors.Join(failed...))
	}
	return ctx.Err()
}
