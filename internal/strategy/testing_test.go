package strategy

import (
	"time"

	"github.com/wonny/algosim/internal/contracts"
)

// seriesFromCloses builds daily bars where every price field equals the close
func seriesFromCloses(closes ...float64) contracts.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make(contracts.PriceSeries, len(closes))
	for i, c := range closes {
		out[i] = contracts.Bar{
			Date:     start.AddDate(0, 0, i),
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			AdjClose: c,
			Volume:   1000,
		}
	}
	return out
}
