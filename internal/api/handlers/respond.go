package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/algosim/internal/contracts"
)

// SeriesLoader resolves a price series; *marketdata.Loader implements it
type SeriesLoader interface {
	Load(ctx context.Context, key contracts.SeriesKey) (contracts.PriceSeries, error)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidParameter),
		errors.Is(err, contracts.ErrMisalignedSeries):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contracts.ErrEmptySeries):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// seriesKey builds a key from request fields; dates are YYYY-MM-DD
func seriesKey(symbol, interval, start, end string) (contracts.SeriesKey, error) {
	if interval == "" {
		interval = "1d"
	}

	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return contracts.SeriesKey{}, fmt.Errorf("%w: invalid 'start' date format (expected YYYY-MM-DD)", contracts.ErrInvalidParameter)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return contracts.SeriesKey{}, fmt.Errorf("%w: invalid 'end' date format (expected YYYY-MM-DD)", contracts.ErrInvalidParameter)
	}

	key := contracts.SeriesKey{
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Interval: interval,
		Start:    from,
		End:      to,
	}
	return key, key.Validate()
}

// parseInts parses a comma separated list such as "5,10,20"
func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", contracts.ErrInvalidParameter, part)
		}
		out = append(out, n)
	}
	return out, nil
}
