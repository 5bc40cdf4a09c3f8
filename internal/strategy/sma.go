package strategy

import "math"

// SMA returns the simple moving average over window, aligned to the input.
// Positions before the window is full are NaN; no partial-window values.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		// Re-sum periodically so the running total does not drift
		if i%window == 0 {
			sum = 0
			for _, w := range values[i-window+1 : i+1] {
				sum += w
			}
		}
		out[i] = sum / float64(window)
	}
	return out
}
