package backtest

import (
	"strings"
	"testing"
	"time"

	"sentimentvelocity/src/simulator"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReport(t *testing.T) {
	trades := []simulator.Trade{
		trade("AAPL", 315, 21, 3),
		trade("MSFT", -150, -10, 6),
	}
	r := &Result{
		StartDate:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital:     10000,
		Metrics:            ComputeMetrics(10000, trades),
		BenchmarkTicker:    "SPY",
		BenchmarkReturnPct: 10,
		Trades:             trades,
	}
	r.Alpha = r.TotalReturnPct - r.BenchmarkReturnPct

	report := GenerateReport(r)
	lines := strings.Split(report, "\n")
	assert.Equal(t, strings.Repeat("=", 70), lines[0])
	assert.Equal(t, "BACKTEST RESULTS", lines[1])
	assert.Equal(t, strings.Repeat("=", 70), lines[len(lines)-1])

	assert.Contains(t, report, "Period: 2025-01-01 to 2025-01-31")
	assert.Contains(t, report, "Initial Capital: $10,000.00")
	assert.Contains(t, report, "  Winning Trades:      1 (50.0%)")
	assert.Contains(t, report, "  Total P/L:           $+165.00")
	assert.Contains(t, report, "  SPY Buy & Hold:      +10.00%")
	assert.Contains(t, report, "  Alpha (Excess):      -8.35%")
	assert.Contains(t, report, "  1. AAPL: +21.00% ($+315.00) - time_limit")
	assert.Contains(t, report, "  1. MSFT: -10.00% ($-150.00) - time_limit")
	assert.NotContains(t, report, "SYNTHETIC")
}

func TestGenerateReport_NoTradesAndSynthetic(t *testing.T) {
	r := &Result{
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital:  10000,
		BenchmarkTicker: "SPY",
		Synthetic:       true,
	}
	report := GenerateReport(r)
	assert.Contains(t, report, "Signals: SYNTHETIC")
	assert.Contains(t, report, "  Total Trades:        0")
	assert.NotContains(t, report, "TOP 5")
}

func TestTopTrades(t *testing.T) {
	var trades []simulator.Trade
	for i := 1; i <= 7; i++ {
		trades = append(trades, trade("W", float64(i), float64(i), 1))
	}
	trades = append(trades, trade("L", -1, -1, 1))

	winners := topTrades(trades, true)
	assert.Len(t, winners, 5)
	assert.InDelta(t, 7, winners[0].ReturnPct, 1e-9)
	assert.InDelta(t, 3, winners[4].ReturnPct, 1e-9)

	losers := topTrades(trades, false)
	assert.Len(t, losers, 1)
}
