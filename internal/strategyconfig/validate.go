package strategyconfig

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/metrics"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match contracts.ErrInvalidParameter
func (e ValidationError) Unwrap() error {
	return contracts.ErrInvalidParameter
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Data ===
	if cfg.Data.Symbol == "" {
		return ValidationError{"data.symbol", "required"}
	}
	if cfg.Data.Interval == "" {
		return ValidationError{"data.interval", "required"}
	}
	start, err := time.Parse(DateLayout, cfg.Data.Start)
	if err != nil {
		return ValidationError{"data.start", "must be YYYY-MM-DD"}
	}
	end, err := time.Parse(DateLayout, cfg.Data.End)
	if err != nil {
		return ValidationError{"data.end", "must be YYYY-MM-DD"}
	}
	if !end.After(start) {
		return ValidationError{"data", "end must be after start"}
	}
	if cfg.Data.Provider != "" && cfg.Data.Provider != "yahoo" && cfg.Data.Provider != "naver" {
		return ValidationError{"data.provider", "must be yahoo or naver"}
	}

	// === Strategy ===
	if err := validateWindows("strategy", cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow); err != nil {
		return err
	}

	// === Backtest ===
	if !(cfg.Backtest.InitialCapital > 0) || math.IsInf(cfg.Backtest.InitialCapital, 0) {
		return ValidationError{"backtest.initial_capital", "must be > 0"}
	}
	if math.IsNaN(cfg.Backtest.RiskFreeRate) || cfg.Backtest.RiskFreeRate < 0 || cfg.Backtest.RiskFreeRate >= 1 {
		return ValidationError{"backtest.risk_free_rate", "must be in [0, 1)"}
	}

	// === Sweep ===
	for _, w := range cfg.Sweep.ShortWindows {
		if w <= 0 {
			return ValidationError{"sweep.short_windows", "windows must be > 0"}
		}
	}
	for _, w := range cfg.Sweep.LongWindows {
		if w <= 0 {
			return ValidationError{"sweep.long_windows", "windows must be > 0"}
		}
	}
	if (len(cfg.Sweep.ShortWindows) == 0) != (len(cfg.Sweep.LongWindows) == 0) {
		return ValidationError{"sweep", "short_windows and long_windows must be set together"}
	}
	if cfg.Sweep.Workers < 0 {
		return ValidationError{"sweep.workers", "must be >= 0"}
	}

	return nil
}

func validateWindows(field string, short, long int) error {
	if short <= 0 {
		return ValidationError{field + ".short_window", "must be > 0"}
	}
	if long <= 0 {
		return ValidationError{field + ".long_window", "must be > 0"}
	}
	if short >= long {
		return ValidationError{field, "short_window must be < long_window"}
	}
	return nil
}

// CheckWarnings returns non-fatal issues worth logging
func CheckWarnings(cfg *Config) []Warning {
	var warnings []Warning

	// 대략적인 거래일 수 (연 252일)
	days := cfg.EndDate().Sub(cfg.StartDate()).Hours() / 24
	tradingDays := int(days / 365 * metrics.TradingDaysPerYear)
	if cfg.Data.Interval == "1d" && tradingDays < cfg.Strategy.LongWindow*2 {
		warnings = append(warnings, Warning{
			Code: "SHORT_HISTORY",
			Message: fmt.Sprintf("~%d trading days for a %d-bar long window; most of the run will carry no position",
				tradingDays, cfg.Strategy.LongWindow),
		})
	}

	if cfg.Backtest.RiskFreeRate > 0.1 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_RISK_FREE_RATE",
			Message: fmt.Sprintf("risk_free_rate %.2f looks like a percentage, expected a fraction", cfg.Backtest.RiskFreeRate),
		})
	}

	if len(cfg.Sweep.ShortWindows)*len(cfg.Sweep.LongWindows) > 400 {
		warnings = append(warnings, Warning{
			Code:    "LARGE_SWEEP",
			Message: fmt.Sprintf("sweep grid has %d pairs", len(cfg.Sweep.ShortWindows)*len(cfg.Sweep.LongWindows)),
		})
	}

	return warnings
}
