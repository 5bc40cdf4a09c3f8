package yahoo

import (
	"fmt"
	"time"

	"github.com/wonny/algosim/internal/contracts"
)

// chartResponse mirrors the parts of /v8/finance/chart used here.
// Quote arrays hold null for halted or missing sessions.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol       string `json:"symbol"`
		ExchangeTZ   string `json:"exchangeTimezoneName"`
		GMTOffset    int64  `json:"gmtoffset"`
		DataGranular string `json:"dataGranularity"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

func (r chartResponse) toSeries() (contracts.PriceSeries, error) {
	if r.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s", r.Chart.Error.Code, r.Chart.Error.Description)
	}
	if len(r.Chart.Result) == 0 {
		return contracts.PriceSeries{}, nil
	}

	res := r.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return contracts.PriceSeries{}, nil
	}
	q := res.Indicators.Quote[0]

	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	// 일봉 타임스탬프는 거래소 현지 장 시작 시각이므로 현지 날짜로 변환
	loc := time.FixedZone(res.Meta.ExchangeTZ, int(res.Meta.GMTOffset))

	series := make(contracts.PriceSeries, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		open, high, low, cl := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if open == nil || high == nil || low == nil || cl == nil {
			continue
		}

		bar := contracts.Bar{
			Date:     time.Unix(ts, 0).In(loc),
			Open:     *open,
			High:     *high,
			Low:      *low,
			Close:    *cl,
			AdjClose: *cl,
		}
		if a := at(adj, i); a != nil {
			bar.AdjClose = *a
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		series = append(series, bar)
	}
	return series, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
