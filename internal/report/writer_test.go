package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wonny/algosim/internal/backtest"
	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/internal/metrics"
	"github.com/wonny/algosim/internal/strategyconfig"
	"github.com/wonny/algosim/internal/sweep"
	"github.com/wonny/algosim/pkg/logger"
)

func closes(values ...float64) contracts.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make(contracts.PriceSeries, len(values))
	for i, c := range values {
		out[i] = contracts.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, AdjClose: c, Volume: 10}
	}
	return out
}

func runReport(t *testing.T) *backtest.Report {
	t.Helper()
	report, err := backtest.NewEngine(logger.Nop()).Execute(context.Background(),
		closes(10, 10, 10, 12, 14, 16),
		backtest.Params{Symbol: "^GSPC", ShortWindow: 2, LongWindow: 3, InitialCapital: 1000, RiskFreeRate: 0.02})
	require.NoError(t, err)
	return report
}

func fixedWriter(dir string) *Writer {
	w := NewWriter(dir, logger.Nop())
	w.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return w
}

func TestWriteBarsCSV(t *testing.T) {
	report := runReport(t)

	var buf bytes.Buffer
	require.NoError(t, WriteBarsCSV(&buf, report.Result))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, barsHeader, records[0])

	first := records[1]
	assert.Equal(t, "2024-01-02", first[0])
	assert.Equal(t, "", first[7], "short MA undefined on first bar")
	assert.Equal(t, "", first[11], "no market return on first bar")
	assert.Equal(t, "0", first[10])
	assert.Equal(t, "1000", first[13])

	last := records[6]
	assert.Equal(t, "1", last[9])
	assert.Equal(t, "1", last[10])
}

func TestWriter_Write(t *testing.T) {
	root := t.TempDir()
	report := runReport(t)
	run := &strategyconfig.RunSnapshot{ConfigHash: "abc123", StrategyID: "test"}

	dir, err := fixedWriter(root).Write(report, run)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "_GSPC_sma2-3_20240501T120000"), dir)
	assert.FileExists(t, filepath.Join(dir, BarsFile))

	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)

	var got struct {
		Params  backtest.Params `yaml:"params"`
		Metrics struct {
			TotalReturnPct float64 `yaml:"total_return_pct"`
			Calmar         float64 `yaml:"calmar"`
		} `yaml:"metrics"`
		Run strategyconfig.RunSnapshot `yaml:"run"`
	}
	require.NoError(t, yaml.Unmarshal(data, &got))

	assert.Equal(t, 2, got.Params.ShortWindow)
	assert.InDelta(t, report.Result.TotalReturnPct, got.Metrics.TotalReturnPct, 1e-9)
	assert.Equal(t, "abc123", got.Run.ConfigHash)
	assert.Contains(t, string(data), "calmar: .inf", "unbounded ratios are written as YAML infinity")
}

func TestWriter_WriteSweep(t *testing.T) {
	outcome := &sweep.Outcome{
		Results: []sweep.Result{{Pair: sweep.Pair{Short: 5, Long: 20}, Summary: metrics.Summary{Sharpe: 1.1}}},
		Skipped: []sweep.Pair{{Short: 5, Long: 500}},
	}

	dir, err := fixedWriter(t.TempDir()).WriteSweep("AAPL", outcome, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, SweepFile))
	require.NoError(t, err)

	var got SweepSummary
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "AAPL", got.Symbol)
	require.Len(t, got.Results, 1)
	assert.Equal(t, 20, got.Results[0].Pair.Long)
	assert.Equal(t, []sweep.Pair{{Short: 5, Long: 500}}, got.Skipped)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "BRK.B", safeName("BRK.B"))
	assert.Equal(t, "_GSPC", safeName("^GSPC"))
	assert.Equal(t, "005930", safeName("005930"))
}
