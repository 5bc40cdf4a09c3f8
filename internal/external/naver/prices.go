package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/algosim/internal/contracts"
)

// FetchPrices fetches bars for a stock code in [from, to).
// Naver prices are already adjusted, so AdjClose equals Close.
// When the chart API fails, daily bars are scraped from the sise_day pages.
// ⭐ SSOT: Naver Finance 가격 API 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, stockCode, interval string, from, to time.Time) (contracts.PriceSeries, error) {
	tf, err := timeframe(interval)
	if err != nil {
		return nil, err
	}

	series, err := c.fetchChart(ctx, stockCode, tf, from, to)
	if err == nil {
		c.logger.WithFields(map[string]interface{}{
			"stock_code": stockCode,
			"count":      len(series),
		}).Debug("Fetched prices")
		return series, nil
	}

	if tf != "day" {
		return nil, err
	}

	c.logger.WithError(err).WithField("stock_code", stockCode).Warn("Chart API failed, falling back to daily pages")
	return c.FetchDailyPages(ctx, stockCode, from, to)
}

func (c *Client) fetchChart(ctx context.Context, stockCode, tf string, from, to time.Time) (contracts.PriceSeries, error) {
	params := url.Values{}
	params.Set("symbol", stockCode)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.AddDate(0, 0, -1).Format("20060102")) // endTime은 포함 범위
	params.Set("timeframe", tf)

	body, err := c.httpClient.GetBytes(ctx, c.chartURL+"/siseJson.naver?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	series, err := parsePriceResponse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}
	return withinRange(series, from, to), nil
}

// withinRange keeps bars dated in [from, to)
func withinRange(series contracts.PriceSeries, from, to time.Time) contracts.PriceSeries {
	out := series[:0]
	for _, bar := range series {
		if inRange(bar.Date, from, to) {
			out = append(out, bar)
		}
	}
	return out
}

func inRange(date, from, to time.Time) bool {
	return !date.Before(from) && date.Before(to)
}

// parsePriceResponse parses the chart API body, a JS array literal with single quotes
func parsePriceResponse(body string) (contracts.PriceSeries, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parsePriceJSON(rawData), nil
	}

	// 포맷이 깨진 응답은 정규식으로 복구
	return parsePriceRegex(body), nil
}

// parsePriceJSON converts rows of [date, open, high, low, close, volume, ...]; the first row is a header
func parsePriceJSON(rawData [][]interface{}) contracts.PriceSeries {
	series := contracts.PriceSeries{}
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.TrimSpace(dateStr))
		if err != nil {
			continue
		}

		series = append(series, newBar(tradeDate,
			toFloat64(row[1]), toFloat64(row[2]), toFloat64(row[3]), toFloat64(row[4]),
			int64(toFloat64(row[5]))))
	}
	return series
}

var chartRowRe = regexp.MustCompile(`\["(\d{8})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)

// parsePriceRegex extracts rows from a body that is not valid JSON
func parsePriceRegex(body string) contracts.PriceSeries {
	series := contracts.PriceSeries{}
	for _, match := range chartRowRe.FindAllStringSubmatch(body, -1) {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}

		var v [5]float64
		valid := true
		for i := range v {
			n, err := strconv.ParseFloat(match[i+2], 64)
			if err != nil {
				valid = false
				break
			}
			v[i] = n
		}
		if !valid {
			continue
		}
		series = append(series, newBar(tradeDate, v[0], v[1], v[2], v[3], int64(v[4])))
	}
	return series
}

func newBar(date time.Time, open, high, low, close float64, volume int64) contracts.Bar {
	return contracts.Bar{
		Date:     date,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		AdjClose: close,
		Volume:   volume,
	}
}

// toFloat64 converts JSON numbers and numeric strings
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		n, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 64)
		return n
	default:
		return 0
	}
}
