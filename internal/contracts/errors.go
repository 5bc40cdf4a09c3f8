package contracts

import "errors"

// Core error taxonomy. All are fail-fast; callers match with errors.Is.
var (
	// ErrInsufficientData means the price history is shorter than the lookback window
	ErrInsufficientData = errors.New("insufficient data")

	// ErrEmptySeries means no usable price data exists for the request
	ErrEmptySeries = errors.New("empty price series")

	// ErrMisalignedSeries means signal and price series do not match bar for bar
	ErrMisalignedSeries = errors.New("misaligned series")

	// ErrInvalidParameter covers bad windows or non-positive capital
	ErrInvalidParameter = errors.New("invalid parameter")
)
