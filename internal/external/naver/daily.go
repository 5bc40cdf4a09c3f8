package naver

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/algosim/internal/contracts"
)

var dailyDateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// FetchDailyPages scrapes the paginated sise_day table, newest first,
// until a page reaches before from or there are no more pages.
func (c *Client) FetchDailyPages(ctx context.Context, stockCode string, from, to time.Time) (contracts.PriceSeries, error) {
	series := contracts.PriceSeries{}
	noDataPages := 0

	// Naver Finance 페이지네이션 처리 (최대 maxPages)
	for page := 1; page <= c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL := fmt.Sprintf("%s/item/sise_day.naver?code=%s&page=%d", c.baseURL, stockCode, page)
		body, err := c.httpClient.GetBytes(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		bars, oldest, hasMore, err := parseDailyHTML(body, from, to)
		if err != nil {
			return nil, fmt.Errorf("parse page %d: %w", page, err)
		}
		series = append(series, bars...)

		// 기준일보다 이전 데이터면 종료
		if !oldest.IsZero() && oldest.Before(from) {
			break
		}
		if !hasMore {
			break
		}

		// 연속으로 데이터 없으면 종료
		if oldest.IsZero() {
			noDataPages++
			if noDataPages >= 3 {
				break
			}
		} else {
			noDataPages = 0
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(series),
	}).Debug("Fetched daily pages")
	return series, nil
}

// parseDailyHTML reads one sise_day page.
// 컬럼: 날짜 | 종가 | 전일비 | 시가 | 고가 | 저가 | 거래량
func parseDailyHTML(html []byte, from, to time.Time) (contracts.PriceSeries, time.Time, bool, error) {
	var bars contracts.PriceSeries
	var oldest time.Time

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, oldest, false, err
	}

	doc.Find("table.type2 tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !dailyDateRe.MatchString(dateText) {
			return
		}
		tradeDate, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}
		oldest = tradeDate

		if !inRange(tradeDate, from, to) {
			return
		}

		closePrice := parseNum(cells.Eq(1).Text())
		bars = append(bars, newBar(tradeDate,
			parseNum(cells.Eq(3).Text()),
			parseNum(cells.Eq(4).Text()),
			parseNum(cells.Eq(5).Text()),
			closePrice,
			int64(parseNum(cells.Eq(6).Text()))))
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return bars, oldest, hasMore, nil
}

func parseNum(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseFloat(s, 64)
	return n
}
