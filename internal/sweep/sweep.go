// Package sweep evaluates a grid of SMA window pairs over one price series.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/metrics"
	"github.com/wonny/algosim/pkg/logger"
)

// Pair is one (short, long) window combination
type Pair struct {
	Short int `json:"short_window" yaml:"short_window"`
	Long  int `json:"long_window" yaml:"long_window"`
}

// Grid is the cartesian product of short and long windows
type Grid struct {
	ShortWindows []int `json:"short_windows" yaml:"short_windows"`
	LongWindows  []int `json:"long_windows" yaml:"long_windows"`
}

// RangeGrid builds a grid from [min, max) ranges with steps
func RangeGrid(shortMin, shortMax, shortStep, longMin, longMax, longStep int) Grid {
	return Grid{
		ShortWindows: lo.RangeWithSteps(shortMin, shortMax, shortStep),
		LongWindows:  lo.RangeWithSteps(longMin, longMax, longStep),
	}
}

// Pairs returns the unique valid pairs (0 < short < long), ordered by short then long
func (g Grid) Pairs() []Pair {
	shorts := lo.Uniq(g.ShortWindows)
	longs := lo.Uniq(g.LongWindows)

	pairs := lo.FlatMap(shorts, func(short int, _ int) []Pair {
		return lo.Map(longs, func(long int, _ int) Pair {
			return Pair{Short: short, Long: long}
		})
	})
	pairs = lo.Filter(pairs, func(p Pair, _ int) bool {
		return p.Short > 0 && p.Short < p.Long
	})

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Short != pairs[j].Short {
			return pairs[i].Short < pairs[j].Short
		}
		return pairs[i].Long < pairs[j].Long
	})
	return pairs
}

// Result is the outcome of one pair
type Result struct {
	Pair    Pair            `json:"pair" yaml:"pair"`
	Summary metrics.Summary `json:"summary" yaml:"summary"`
}

// Outcome is the ranked sweep
type Outcome struct {
	Results  []Result      `json:"results" yaml:"results"`
	Skipped  []Pair        `json:"skipped,omitempty" yaml:"skipped,omitempty"` // long window exceeds the series
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Best returns the top-ranked result
func (o *Outcome) Best() (Result, bool) {
	if len(o.Results) == 0 {
		return Result{}, false
	}
	return o.Results[0], true
}

// Runner executes sweeps with a bounded number of concurrent backtests
// ⭐ SSOT: 파라미터 스윕 병렬 실행은 여기서만
type Runner struct {
	engine  *backtest.Engine
	workers int
	logger  *logger.Logger
}

// NewRunner creates a runner; workers <= 0 means 1
func NewRunner(engine *backtest.Engine, workers int, log *logger.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{engine: engine, workers: workers, logger: log}
}

// Run backtests every grid pair on series. base supplies symbol, capital and
// risk-free rate; its windows are ignored. onResult, if set, is called once per
// finished pair (never concurrently). Results are sorted by Sharpe descending.
func (r *Runner) Run(ctx context.Context, series contracts.PriceSeries, base backtest.Params, grid Grid, onResult func(Result)) (*Outcome, error) {
	if len(series) == 0 {
		return nil, contracts.ErrEmptySeries
	}

	pairs := grid.Pairs()
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: sweep grid has no pair with short < long", contracts.ErrInvalidParameter)
	}

	start := time.Now()
	log := r.logger.WithFields(map[string]interface{}{
		"symbol":  base.Symbol,
		"pairs":   len(pairs),
		"workers": r.workers,
	})
	log.Info("Starting sweep")

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(pairs))
		skipped []Pair
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			params := base
			params.ShortWindow = pair.Short
			params.LongWindow = pair.Long

			report, err := r.engine.Execute(gctx, series, params)
			if errors.Is(err, contracts.ErrInsufficientData) {
				mu.Lock()
				skipped = append(skipped, pair)
				mu.Unlock()
				return nil
			}
			if err != nil {
				return fmt.Errorf("pair %d/%d: %w", pair.Short, pair.Long, err)
			}

			result := Result{Pair: pair, Summary: report.Summary}

			mu.Lock()
			defer mu.Unlock()
			results = append(results, result)
			if onResult != nil {
				onResult(result)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	Rank(results)
	outcome := &Outcome{Results: results, Skipped: skipped, Duration: time.Since(start)}

	fields := map[string]interface{}{
		"evaluated": len(results),
		"skipped":   len(skipped),
		"duration":  outcome.Duration,
	}
	if best, ok := outcome.Best(); ok {
		fields["best"] = fmt.Sprintf("%d/%d", best.Pair.Short, best.Pair.Long)
		fields["best_sharpe"] = fmt.Sprintf("%.2f", best.Summary.Sharpe)
	}
	log.WithFields(fields).Info("Sweep completed")

	return outcome, nil
}

// Rank sorts by Sharpe descending, then total return descending, then windows ascending
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Summary.Sharpe != b.Summary.Sharpe {
			return a.Summary.Sharpe > b.Summary.Sharpe
		}
		if a.Summary.TotalReturnPct != b.Summary.TotalReturnPct {
			return a.Summary.TotalReturnPct > b.Summary.TotalReturnPct
		}
		if a.Pair.Short != b.Pair.Short {
			return a.Pair.Short < b.Pair.Short
		}
		return a.Pair.Long < b.Pair.Long
	})
}
