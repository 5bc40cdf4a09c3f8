package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wonny/algosim/internal/contracts"
)

var csvHeader = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

var _ contracts.PriceStore = (*CSVStore)(nil)

// CSVStore keeps one CSV file per series key in a directory
type CSVStore struct {
	dir string
}

// NewCSVStore creates the directory if needed
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &CSVStore{dir: dir}, nil
}

// Path returns the file backing a key
func (s *CSVStore) Path(key contracts.SeriesKey) string {
	return filepath.Join(s.dir, key.String()+".csv")
}

// Load reads the file for key; a missing file is a miss, not an error
func (s *CSVStore) Load(ctx context.Context, key contracts.SeriesKey) (contracts.PriceSeries, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	f, err := os.Open(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", key, err)
	}
	defer f.Close()

	series, err := ReadCSV(f)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return series, true, nil
}

// Save writes the series atomically through a temp file
func (s *CSVStore) Save(ctx context.Context, key contracts.SeriesKey, series contracts.PriceSeries) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, series); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// WriteCSV encodes bars with the Date,Open,High,Low,Close,Adj Close,Volume header
func WriteCSV(w io.Writer, series contracts.PriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, b := range series {
		record := []string{
			b.Date.Format("2006-01-02"),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.AdjClose),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV decodes a file written by WriteCSV. An empty Adj Close falls back to Close.
func ReadCSV(r io.Reader) (contracts.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return contracts.PriceSeries{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != csvHeader[0] {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var series contracts.PriceSeries
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		series = append(series, bar)
	}
	return series, nil
}

func parseRecord(record []string) (contracts.Bar, error) {
	date, err := time.Parse("2006-01-02", record[0])
	if err != nil {
		return contracts.Bar{}, fmt.Errorf("date: %w", err)
	}

	var prices [5]float64
	for i := range prices {
		if record[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return contracts.Bar{}, fmt.Errorf("%s: %w", csvHeader[i+1], err)
		}
		prices[i] = v
	}
	if record[5] == "" {
		prices[4] = prices[3]
	}

	var volume float64
	if record[6] != "" {
		volume, err = strconv.ParseFloat(record[6], 64)
		if err != nil {
			return contracts.Bar{}, fmt.Errorf("volume: %w", err)
		}
	}

	return contracts.Bar{
		Date:     date,
		Open:     prices[0],
		High:     prices[1],
		Low:      prices[2],
		Close:    prices[3],
		AdjClose: prices[4],
		Volume:   int64(volume),
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
