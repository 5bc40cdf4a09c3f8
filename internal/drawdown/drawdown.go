// Package drawdown measures peak-to-current declines of an equity curve.
package drawdown

// Series returns equity[t]/max(equity[0..t]) - 1 for every bar.
// Values are always <= 0.
func Series(equity []float64) []float64 {
	out := make([]float64, len(equity))
	if len(equity) == 0 {
		return out
	}

	peak := equity[0]
	for i, e := range equity {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			out[i] = e/peak - 1
		}
	}
	return out
}

// Max returns the deepest drawdown as a percentage (<= 0).
// Fewer than two points yield 0.
func Max(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}

	worst := 0.0
	for _, d := range Series(equity) {
		if d < worst {
			worst = d
		}
	}
	return worst * 100
}
