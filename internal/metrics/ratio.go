package metrics

import (
	"encoding/json"
	"math"
	"strconv"
)

// Ratio is a risk-adjusted ratio that may be unbounded.
// +Inf is the sentinel for "no downside observed" (Sortino, Calmar, profit factor).
type Ratio float64

// Unbounded is the infinite-ratio sentinel
var Unbounded = Ratio(math.Inf(1))

// IsUnbounded reports whether the ratio is the infinite sentinel
func (r Ratio) IsUnbounded() bool {
	return math.IsInf(float64(r), 0)
}

// String formats the ratio with two decimals, or "inf"
func (r Ratio) String() string {
	if r.IsUnbounded() {
		if r < 0 {
			return "-inf"
		}
		return "inf"
	}
	return strconv.FormatFloat(float64(r), 'f', 2, 64)
}

// MarshalJSON encodes the sentinel as the string "inf" since JSON has no infinity
func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsUnbounded() {
		return json.Marshal(r.String())
	}
	return json.Marshal(float64(r))
}

// UnmarshalJSON accepts numbers and the "inf" string
func (r *Ratio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "inf", "+inf":
			*r = Unbounded
		case "-inf":
			*r = Ratio(math.Inf(-1))
		default:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*r = Ratio(f)
		}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}
