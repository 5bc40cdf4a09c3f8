package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/sweep"
	"github.com/wonny/algosim/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message types sent on the sweep stream
const (
	MessageStarted = "started"
	MessageResult  = "result"
	MessageDone    = "done"
	MessageError   = "error"
)

// SweepMessage is one frame of the sweep stream
type SweepMessage struct {
	Type    string        `json:"type"`
	Pairs   int           `json:"pairs,omitempty"`
	Result  *sweep.Result `json:"result,omitempty"`
	Best    *sweep.Result `json:"best,omitempty"`
	Skipped []sweep.Pair  `json:"skipped,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// SweepHandler streams sweep results over a websocket as each pair finishes
type SweepHandler struct {
	loader   SeriesLoader
	runner   *sweep.Runner
	defaults backtest.Params
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewSweepHandler creates a sweep stream handler
func NewSweepHandler(loader SeriesLoader, runner *sweep.Runner, defaults backtest.Params, log *logger.Logger) *SweepHandler {
	return &SweepHandler{
		loader:   loader,
		runner:   runner,
		defaults: defaults,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: log,
	}
}

// Stream runs a sweep and pushes every result
// GET /api/sweep/stream?symbol=AAPL&start=2015-01-01&end=2024-12-31&short=10,20&long=50,100
func (h *SweepHandler) Stream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// 업그레이드 전에 요청 검증 (일반 HTTP 에러로 응답 가능)
	key, err := seriesKey(q.Get("symbol"), q.Get("interval"), q.Get("start"), q.Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	shorts, err := parseInts(q.Get("short"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	longs, err := parseInts(q.Get("long"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	grid := sweep.Grid{ShortWindows: shorts, LongWindows: longs}
	if len(grid.Pairs()) == 0 {
		respondError(w, http.StatusBadRequest, "grid has no pair with short < long")
		return
	}

	params := h.defaults
	params.Symbol = key.Symbol
	if v := q.Get("capital"); v != "" {
		capital, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid 'capital'")
			return
		}
		params.InitialCapital = capital
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// 클라이언트 종료 감지
	go h.readPump(conn, cancel)

	out := make(chan SweepMessage, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(ctx, conn, out)
	}()

	h.run(ctx, key, params, grid, func(msg SweepMessage) {
		select {
		case out <- msg:
		case <-ctx.Done():
		}
	})
	close(out)
	<-writerDone
}

func (h *SweepHandler) run(ctx context.Context, key contracts.SeriesKey, params backtest.Params, grid sweep.Grid, send func(SweepMessage)) {
	log := h.logger.WithField("series", key.String())

	series, err := h.loader.Load(ctx, key)
	if err != nil {
		log.WithError(err).Warn("Sweep series load failed")
		send(SweepMessage{Type: MessageError, Error: err.Error()})
		return
	}

	send(SweepMessage{Type: MessageStarted, Pairs: len(grid.Pairs())})

	outcome, err := h.runner.Run(ctx, series, params, grid, func(res sweep.Result) {
		send(SweepMessage{Type: MessageResult, Result: &res})
	})
	if err != nil {
		send(SweepMessage{Type: MessageError, Error: err.Error()})
		return
	}

	done := SweepMessage{Type: MessageDone, Skipped: outcome.Skipped}
	if best, ok := outcome.Best(); ok {
		done.Best = &best
	}
	send(done)
}

// writePump owns all writes to conn
func (h *SweepHandler) writePump(ctx context.Context, conn *websocket.Conn, out <-chan SweepMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "sweep finished"))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.WithError(err).Debug("Sweep stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			// out이 닫힐 때까지 비움
			for range out {
			}
			return
		}
	}
}

// readPump discards client frames and cancels the sweep when the client goes away
func (h *SweepHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
