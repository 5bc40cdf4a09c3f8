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
)

const dailyPage = `<html><body>
<table class="type2">
<tr><th>날짜</th><th>종가</th><th>전일비</th><th>시가</th><th>고가</th><th>저가</th><th>거래량</th></tr>
<tr><td><span>2024.01.16</span></td><td>73,000</td><td>500</td><td>72,500</td><td>73,500</td><td>72,300</td><td>1,200,000</td></tr>
<tr><td><span>2024.01.15</span></td><td>72,500</td><td>200</td><td>72,300</td><td>73,000</td><td>72,000</td><td>1,000,000</td></tr>
<tr><td colspan="7"></td></tr>
<tr><td><span>2023.12.28</span></td><td>78,500</td><td>0</td><td>77,700</td><td>78,500</td><td>77,500</td><td>17,142,847</td></tr>
</table>
</body></html>`

func TestParseDailyHTML(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	bars, oldest, hasMore, err := parseDailyHTML([]byte(dailyPage), from, to)
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.Equal(t, 73000.0, bars[0].Close)
	assert.Equal(t, 72500.0, bars[0].Open)
	assert.Equal(t, 73500.0, bars[0].High)
	assert.Equal(t, 72300.0, bars[0].Low)
	assert.Equal(t, int64(1200000), bars[0].Volume)
	assert.Equal(t, time.Date(2023, 12, 28, 0, 0, 0, 0, time.UTC), oldest)
	assert.False(t, hasMore)
}

func TestParseDailyHTML_EndIsExclusive(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	bars, _, _, err := parseDailyHTML([]byte(dailyPage), from, to)
	require.NoError(t, err)

	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), bars[0].Date)
}

func TestFetchPrices_FallsBackToDailyPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/siseJson.naver", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/item/sise_day.naver", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "005930", r.URL.Query().Get("code"))
		fmt.Fprint(w, dailyPage)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	series, err := newTestClient(server.URL).FetchPrices(context.Background(), "005930", "1d",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestFetchPrices_NoFallbackForWeekly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchPrices(context.Background(), "005930", "1wk",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}
