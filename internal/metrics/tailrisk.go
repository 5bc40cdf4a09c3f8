package metrics

import (
	"math"
	"sort"
)

// DefaultVaRConfidence is the confidence level reported in Summary
const DefaultVaRConfidence = 0.95

// TailRisk is a one-bar historical Value at Risk estimate.
// Losses are positive percentages: VaR 2.1 means a 2.1% loss is exceeded on
// (1 - confidence) of bars.
type TailRisk struct {
	Confidence float64 `json:"confidence" yaml:"confidence"`
	VaRPct     float64 `json:"var_pct" yaml:"var_pct"`
	CVaRPct    float64 `json:"cvar_pct" yaml:"cvar_pct"`
}

// HistoricalVaR computes VaR and CVaR (expected shortfall) from the empirical
// return distribution. Undefined returns are ignored; a tail without losses
// reports 0 for both.
func HistoricalVaR(returns []float64, confidence float64) TailRisk {
	out := TailRisk{Confidence: confidence}

	clean := Clean(returns)
	if len(clean) == 0 || !(confidence > 0 && confidence < 1) {
		return out
	}

	// 오름차순: 손실이 앞에
	sort.Float64s(clean)

	idx := int(math.Floor((1 - confidence) * float64(len(clean))))
	if idx >= len(clean) {
		idx = len(clean) - 1
	}

	if clean[idx] < 0 {
		out.VaRPct = -clean[idx] * 100
	}

	// CVaR: VaR 인덱스까지 tail 평균
	var sum float64
	for _, r := range clean[:idx+1] {
		sum += r
	}
	if avg := sum / float64(idx+1); avg < 0 {
		out.CVaRPct = -avg * 100
	}

	return out
}
