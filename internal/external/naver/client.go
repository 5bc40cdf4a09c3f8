package naver

import (
	"fmt"
	"strings"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/pkg/config"
	"github.com/wonny/algosim/pkg/httputil"
	"github.com/wonny/algosim/pkg/logger"
)

var _ contracts.PriceProvider = (*Client)(nil)

// Client fetches Korean daily prices from Naver Finance
// ⭐ SSOT: Naver Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string // finance.naver.com (HTML pages)
	chartURL   string // fchart.stock.naver.com (JSON chart)
	maxPages   int
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", "naver"),
		baseURL:    strings.TrimRight(cfg.NaverBaseURL, "/"),
		chartURL:   strings.TrimRight(cfg.NaverChartURL, "/"),
		maxPages:   150,
	}
}

// Name identifies the provider
func (c *Client) Name() string {
	return "naver"
}

// timeframe maps a bar interval to the chart API timeframe
func timeframe(interval string) (string, error) {
	switch interval {
	case "", "1d":
		return "day", nil
	case "1wk":
		return "week", nil
	case "1mo":
		return "month", nil
	default:
		return "", fmt.Errorf("%w: naver does not support interval %q", contracts.ErrInvalidParameter, interval)
	}
}
