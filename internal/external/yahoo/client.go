// Package yahoo fetches daily bars from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/pkg/config"
	"github.com/wonny/algosim/pkg/httputil"
	"github.com/wonny/algosim/pkg/logger"
)

var _ contracts.PriceProvider = (*Client)(nil)

// supported chart intervals
var intervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true,
	"1h": true, "1d": true, "5d": true, "1wk": true, "1mo": true, "3mo": true,
}

// Client calls the v8 chart endpoint
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a client throttled to cfg.RequestsPerSec within this process
func NewClient(httpClient *httputil.Client, cfg config.ProviderConfig, log *logger.Logger) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}

	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     log.WithField("provider", "yahoo"),
		baseURL:    strings.TrimRight(cfg.YahooBaseURL, "/"),
	}
}

// Name identifies the provider
func (c *Client) Name() string {
	return "yahoo"
}

// FetchPrices downloads bars in [from, to). Rows with missing quotes are skipped.
func (c *Client) FetchPrices(ctx context.Context, symbol, interval string, from, to time.Time) (contracts.PriceSeries, error) {
	if interval == "" {
		interval = "1d"
	}
	if !intervals[interval] {
		return nil, fmt.Errorf("%w: yahoo does not support interval %q", contracts.ErrInvalidParameter, interval)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", interval)
	params.Set("events", "div,splits")
	params.Set("includeAdjustedClose", "true")

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		c.baseURL, url.PathEscape(strings.ToUpper(symbol)), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", symbol, err)
	}

	series, err := resp.toSeries()
	if err != nil {
		return nil, fmt.Errorf("parse chart %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"interval": interval,
		"count":    len(series),
	}).Debug("Fetched prices")
	return series, nil
}
