// Package report writes backtest and sweep results to disk.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/metrics"
	"github.com/wonny/algosim/internal/strategyconfig"
	"github.com/wonny/algosim/internal/sweep"
	"github.com/wonny/algosim/pkg/logger"
)

// File names inside a run directory
const (
	BarsFile    = "bars.csv"
	SummaryFile = "summary.yaml"
	SweepFile   = "sweep.yaml"
)

var barsHeader = []string{
	"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume",
	"Short MA", "Long MA", "Signal", "Position",
	"Market Return", "Strategy Return", "Equity", "Drawdown",
}

// Summary is the content of summary.yaml
type Summary struct {
	Params   backtest.Params             `yaml:"params"`
	Metrics  metrics.Summary             `yaml:"metrics"`
	Run      *strategyconfig.RunSnapshot `yaml:"run,omitempty"`
	Duration string                      `yaml:"duration"`
}

// SweepSummary is the content of sweep.yaml
type SweepSummary struct {
	Symbol   string                      `yaml:"symbol"`
	Results  []sweep.Result              `yaml:"results"`
	Skipped  []sweep.Pair                `yaml:"skipped,omitempty"`
	Run      *strategyconfig.RunSnapshot `yaml:"run,omitempty"`
	Duration string                      `yaml:"duration"`
}

// Writer creates one directory per run under a root directory
// ⭐ SSOT: 리포트 파일 출력은 여기서만
type Writer struct {
	root   string
	logger *logger.Logger
	now    func() time.Time
}

// NewWriter creates a writer rooted at dir
func NewWriter(dir string, log *logger.Logger) *Writer {
	return &Writer{root: dir, logger: log, now: time.Now}
}

// Write stores bars.csv and summary.yaml and returns the run directory
func (w *Writer) Write(report *backtest.Report, run *strategyconfig.RunSnapshot) (string, error) {
	name := fmt.Sprintf("%s_sma%d-%d_%s",
		safeName(report.Params.Symbol), report.Params.ShortWindow, report.Params.LongWindow,
		w.now().UTC().Format("20060102T150405"))
	dir, err := w.mkdir(name)
	if err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(dir, BarsFile), func(f io.Writer) error {
		return WriteBarsCSV(f, report.Result)
	}); err != nil {
		return "", err
	}

	summary := Summary{
		Params:   report.Params,
		Metrics:  report.Summary,
		Run:      run,
		Duration: report.Duration.String(),
	}
	if err := writeFile(filepath.Join(dir, SummaryFile), func(f io.Writer) error {
		return writeYAML(f, summary)
	}); err != nil {
		return "", err
	}

	w.logger.WithField("dir", dir).Info("Report written")
	return dir, nil
}

// WriteSweep stores sweep.yaml and returns the run directory
func (w *Writer) WriteSweep(symbol string, outcome *sweep.Outcome, run *strategyconfig.RunSnapshot) (string, error) {
	name := fmt.Sprintf("%s_sweep_%s", safeName(symbol), w.now().UTC().Format("20060102T150405"))
	dir, err := w.mkdir(name)
	if err != nil {
		return "", err
	}

	summary := SweepSummary{
		Symbol:   symbol,
		Results:  outcome.Results,
		Skipped:  outcome.Skipped,
		Run:      run,
		Duration: outcome.Duration.String(),
	}
	if err := writeFile(filepath.Join(dir, SweepFile), func(f io.Writer) error {
		return writeYAML(f, summary)
	}); err != nil {
		return "", err
	}

	w.logger.WithField("dir", dir).Info("Sweep report written")
	return dir, nil
}

func (w *Writer) mkdir(name string) (string, error) {
	dir := filepath.Join(w.root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	return dir, nil
}

// WriteBarsCSV writes the annotated per-bar series. Undefined values are empty cells.
func WriteBarsCSV(out io.Writer, result *contracts.BacktestResult) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(barsHeader); err != nil {
		return err
	}

	for _, b := range result.Bars {
		record := []string{
			b.Date.Format("2006-01-02"),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.AdjClose),
			strconv.FormatInt(b.Volume, 10),
			formatOptional(b.ShortMA),
			formatOptional(b.LongMA),
			strconv.Itoa(int(b.Signal)),
			strconv.Itoa(int(b.Position)),
			formatOptional(b.MarketReturn),
			formatOptional(b.StrategyReturn),
			formatFloat(b.Equity),
			formatFloat(b.Drawdown),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeYAML(out io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// safeName keeps symbols like ^GSPC or BRK.B usable as directory names
func safeName(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, symbol)
}
