package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/marketdata"
	"github.com/wonny/algosim/internal/metrics"
	"github.com/wonny/algosim/pkg/logger"
)

// BacktestHandler serves single backtests and the price series behind them
// ⭐ SSOT: 백테스트 API 핸들러는 이 구조체에서만
type BacktestHandler struct {
	loader   SeriesLoader
	engine   *backtest.Engine
	defaults backtest.Params
	logger   *logger.Logger
}

// NewBacktestHandler creates a handler; defaults fill fields the request omits
func NewBacktestHandler(loader SeriesLoader, engine *backtest.Engine, defaults backtest.Params, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		loader:   loader,
		engine:   engine,
		defaults: defaults,
		logger:   log,
	}
}

// BacktestRequest is the body of POST /api/backtest
type BacktestRequest struct {
	Symbol         string   `json:"symbol"`
	Interval       string   `json:"interval"`
	Start          string   `json:"start"` // YYYY-MM-DD
	End            string   `json:"end"`   // YYYY-MM-DD
	ShortWindow    int      `json:"short_window"`
	LongWindow     int      `json:"long_window"`
	InitialCapital float64  `json:"initial_capital"`
	RiskFreeRate   *float64 `json:"risk_free_rate"`
	IncludeBars    *bool    `json:"include_bars"`
}

// BacktestResponse is the body returned by POST /api/backtest
type BacktestResponse struct {
	Params  backtest.Params          `json:"params"`
	Summary metrics.Summary          `json:"summary"`
	Bars    []contracts.BarResult    `json:"bars,omitempty"`
	Quality marketdata.QualityReport `json:"quality"`
}

// Run executes one backtest
// POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	key, err := seriesKey(req.Symbol, req.Interval, req.Start, req.End)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := h.defaults
	params.Symbol = key.Symbol
	if req.ShortWindow != 0 {
		params.ShortWindow = req.ShortWindow
	}
	if req.LongWindow != 0 {
		params.LongWindow = req.LongWindow
	}
	if req.InitialCapital != 0 {
		params.InitialCapital = req.InitialCapital
	}
	if req.RiskFreeRate != nil {
		params.RiskFreeRate = *req.RiskFreeRate
	}

	// 데이터 조회 전에 파라미터 검증
	if err := params.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.loader.Load(ctx, key)
	if err != nil {
		h.logger.WithError(err).WithField("series", key.String()).Warn("Failed to load series")
		respondError(w, statusFor(err), err.Error())
		return
	}

	report, err := h.engine.Execute(ctx, series, params)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	resp := BacktestResponse{
		Params:  report.Params,
		Summary: report.Summary,
		Quality: marketdata.Validate(series),
	}
	if req.IncludeBars == nil || *req.IncludeBars {
		resp.Bars = report.Result.Bars
	}

	respondJSON(w, http.StatusOK, resp)
}

// PricesResponse is the body returned by GET /api/prices/{symbol}
type PricesResponse struct {
	Key     contracts.SeriesKey      `json:"key"`
	Bars    contracts.PriceSeries    `json:"bars"`
	Quality marketdata.QualityReport `json:"quality"`
}

// GetPrices returns the stored or fetched series
// GET /api/prices/{symbol}?start=YYYY-MM-DD&end=YYYY-MM-DD&interval=1d
func (h *BacktestHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key, err := seriesKey(mux.Vars(r)["symbol"], q.Get("interval"), q.Get("start"), q.Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.loader.Load(r.Context(), key)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, PricesResponse{
		Key:     key,
		Bars:    series,
		Quality: marketdata.Validate(series),
	})
}
