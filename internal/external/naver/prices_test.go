package naver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/pkg/config"
	"github.com/wonny/algosim/pkg/httputil"
	"github.com/wonny/algosim/pkg/logger"
)

func newTestClient(serverURL string) *Client {
	cfg := config.ProviderConfig{
		NaverBaseURL:  serverURL,
		NaverChartURL: serverURL,
		Timeout:       5 * time.Second,
	}
	return NewClient(httputil.New(cfg, logger.Nop()), cfg, logger.Nop())
}

const chartBody = `[['날짜', '시가', '고가', '저가', '종가', '거래량', '외국인소진율'],
["20240115", 72300, 73000, 72000, 72500, 1000000, 53.1],
["20240116", 72500, 73500, 72300, 73000, 1200000, 53.2]
]`

func TestParsePriceJSON(t *testing.T) {
	tests := []struct {
		name    string
		rawData [][]interface{}
		want    int
	}{
		{
			name: "valid data with header",
			rawData: [][]interface{}{
				{"날짜", "시가", "고가", "저가", "종가", "거래량"},
				{"20240115", 72300.0, 73000.0, 72000.0, 72500.0, 1000000.0},
				{"20240116", 72500.0, 73500.0, 72300.0, 73000.0, 1200000.0},
			},
			want: 2,
		},
		{
			name: "string numbers",
			rawData: [][]interface{}{
				{"날짜", "시가", "고가", "저가", "종가", "거래량"},
				{"20240115", "72300", "73000", "72000", "72500", "1000000"},
			},
			want: 1,
		},
		{
			name:    "empty data",
			rawData: [][]interface{}{},
			want:    0,
		},
		{
			name: "insufficient columns",
			rawData: [][]interface{}{
				{"날짜", "시가"},
				{"20240115", 72300.0, 73000.0},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePriceJSON(tt.rawData)
			require.Len(t, got, tt.want)

			for _, bar := range got {
				assert.False(t, bar.Date.IsZero())
				assert.Positive(t, bar.Close)
				assert.Equal(t, bar.Close, bar.AdjClose)
			}
		})
	}
}

func TestParsePriceResponse(t *testing.T) {
	series, err := parsePriceResponse(chartBody)
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), series[0].Date)
	assert.Equal(t, 72300.0, series[0].Open)
	assert.Equal(t, int64(1200000), series[1].Volume)
}

func TestParsePriceRegex(t *testing.T) {
	body := `[["20240115", 72300, 73000, 72000, 72500, 1000000], ["20240116", 72500, 73500, 72300, 73000, 1200000]`
	assert.Len(t, parsePriceRegex(body), 2)
	assert.Empty(t, parsePriceRegex(`{"invalid": "json"}`))

	malformed := `[["20240115", 72300, 73000, 72000, 72500, 1000000], ["20240116", 72500, 1.2.3, 72300, 73000, 1200000]`
	got := parsePriceRegex(malformed)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Empty(t, parsePriceRegex(""))
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{"float64", 123.45, 123.45},
		{"int64", int64(123), 123},
		{"int", 123, 123},
		{"string", "1,234", 1234},
		{"invalid string", "abc", 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toFloat64(tt.input))
		})
	}
}

func TestTimeframe(t *testing.T) {
	tf, err := timeframe("1d")
	require.NoError(t, err)
	assert.Equal(t, "day", tf)

	_, err = timeframe("1h")
	assert.ErrorIs(t, err, contracts.ErrInvalidParameter)
}

func TestFetchPrices_Chart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/siseJson.naver", r.URL.Path)
		assert.Equal(t, "005930", r.URL.Query().Get("symbol"))
		assert.Equal(t, "20240101", r.URL.Query().Get("startTime"))
		assert.Equal(t, "20240130", r.URL.Query().Get("endTime"))
		assert.Equal(t, "day", r.URL.Query().Get("timeframe"))
		fmt.Fprint(w, chartBody)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.Equal(t, "naver", client.Name())

	series, err := client.FetchPrices(context.Background(), "005930", "1d",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestFetchPrices_ChartExcludesEndDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20240115", r.URL.Query().Get("endTime"))
		fmt.Fprint(w, chartBody)
	}))
	defer server.Close()

	series, err := newTestClient(server.URL).FetchPrices(context.Background(), "005930", "1d",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), series[0].Date)
}
