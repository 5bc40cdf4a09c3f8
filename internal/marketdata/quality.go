package marketdata

import (
	"fmt"
	"math"

	"github.com/wonny/algosim/internal/contracts"
)

// MaxCalendarGapDays is the longest calendar gap between bars that is not
// reported as missing data (long weekends plus a holiday)
const MaxCalendarGapDays = 5

// Gap is a stretch of calendar days without bars
type Gap struct {
	After string `json:"after"`
	Days  int    `json:"days"`
}

// QualityReport summarises problems found in a raw series
type QualityReport struct {
	TotalBars       int     `json:"total_bars"`
	ValidBars       int     `json:"valid_bars"`
	InvalidBars     int     `json:"invalid_bars"`
	DuplicateDates  int     `json:"duplicate_dates"`
	OutOfOrder      int     `json:"out_of_order"`
	MissingAdjClose int     `json:"missing_adj_close"`
	ZeroVolume      int     `json:"zero_volume"`
	Gaps            []Gap   `json:"gaps,omitempty"`
	Coverage        float64 `json:"coverage"` // valid / total
}

// Passed reports whether the series can be used without normalization
func (r QualityReport) Passed() bool {
	return r.TotalBars > 0 && r.InvalidBars == 0 && r.DuplicateDates == 0 && r.OutOfOrder == 0
}

// String is a one-line summary for logs
func (r QualityReport) String() string {
	return fmt.Sprintf("bars=%d valid=%d invalid=%d duplicates=%d out_of_order=%d gaps=%d coverage=%.1f%%",
		r.TotalBars, r.ValidBars, r.InvalidBars, r.DuplicateDates, r.OutOfOrder, len(r.Gaps), r.Coverage*100)
}

// Validate inspects a raw series without modifying it
// ⭐ SSOT: 가격 데이터 품질 검증
func Validate(series contracts.PriceSeries) QualityReport {
	report := QualityReport{TotalBars: len(series)}
	if len(series) == 0 {
		return report
	}

	seen := make(map[string]struct{}, len(series))
	for i, b := range series {
		day := b.Date.Format("2006-01-02")
		if _, dup := seen[day]; dup {
			report.DuplicateDates++
		}
		seen[day] = struct{}{}

		if i > 0 && b.Date.Before(series[i-1].Date) {
			report.OutOfOrder++
		}

		if !(b.AdjClose > 0) || math.IsInf(b.AdjClose, 0) {
			report.MissingAdjClose++
		}
		if b.Volume == 0 {
			report.ZeroVolume++
		}

		// AdjClose 누락은 Close로 보정 가능하므로 유효성 판단에서 제외
		probe := b
		if !(probe.AdjClose > 0) {
			probe.AdjClose = probe.Close
		}
		if isFinite(probe) && probe.IsValid() {
			report.ValidBars++
		} else {
			report.InvalidBars++
		}
	}

	normalized := Normalize(series)
	for i := 1; i < len(normalized); i++ {
		days := int(normalized[i].Date.Sub(normalized[i-1].Date).Hours() / 24)
		if days > MaxCalendarGapDays {
			report.Gaps = append(report.Gaps, Gap{
				After: normalized[i-1].Date.Format("2006-01-02"),
				Days:  days,
			})
		}
	}

	report.Coverage = float64(report.ValidBars) / float64(report.TotalBars)
	return report
}
