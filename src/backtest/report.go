package backtest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sentimentvelocity/src/simulator"
	"sentimentvelocity/src/utils"
)

const (
	reportWidth = 70
	reportTop   = 5
)

// GenerateReport renders a fixed-layout text report of a result.
func GenerateReport(r *Result) string {
	rule := strings.Repeat("=", reportWidth)
	sub := strings.Repeat("-", reportWidth)

	var lines []string
	add := func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	section := func(title string) {
		lines = append(lines, title, sub)
	}

	lines = append(lines, rule, "BACKTEST RESULTS", rule)
	add("Period: %s to %s", r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly))
	add("Initial Capital: %s", utils.Money(r.InitialCapital, false))
	if r.Synthetic {
		add("Signals: SYNTHETIC (price-derived technical rules, not pipeline history)")
	}
	lines = append(lines, "")

	section("TRADE STATISTICS:")
	add("  Total Trades:        %d", r.TotalTrades)
	add("  Winning Trades:      %d (%.1f%%)", r.WinningTrades, r.WinRate)
	add("  Losing Trades:       %d", r.LosingTrades)
	add("  Avg Hold Time:       %.1f days", r.AvgDaysHeld)
	if r.SignalsSkipped > 0 {
		add("  Signals Skipped:     %d of %d", r.SignalsSkipped, r.SignalsTotal)
	}
	lines = append(lines, "")

	section("PERFORMANCE METRICS:")
	add("  Total Return:        %+.2f%%", r.TotalReturnPct)
	add("  Total P/L:           %s", utils.Money(r.TotalPnl, true))
	add("  Avg Return/Trade:    %+.2f%%", r.AvgReturnPct)
	add("  Avg Win:             %+.2f%%", r.AvgWinPct)
	add("  Avg Loss:            %+.2f%%", r.AvgLossPct)
	add("  Best Trade:          %+.2f%%", r.BestTradePct)
	add("  Worst Trade:         %+.2f%%", r.WorstTradePct)
	lines = append(lines, "")

	section("RISK METRICS:")
	add("  Max Drawdown:        %.2f%%", r.MaxDrawdownPct)
	add("  Sharpe Ratio:        %.2f", r.SharpeRatio)
	lines = append(lines, "")

	section("BENCHMARK COMPARISON:")
	add("  %-20s %+.2f%%", r.BenchmarkTicker+" Buy & Hold:", r.BenchmarkReturnPct)
	add("  Alpha (Excess):      %+.2f%%", r.Alpha)
	lines = append(lines, "")

	if r.TotalTrades > 0 {
		section("TOP 5 WINNING TRADES:")
		for i, t := range topTrades(r.Trades, true) {
			add("  %d. %s: %+.2f%% (%s) - %s", i+1, t.Ticker, t.ReturnPct, utils.Money(t.ProfitLoss.InexactFloat64(), true), t.ExitReason)
		}
		lines = append(lines, "")
		section("TOP 5 LOSING TRADES:")
		for i, t := range topTrades(r.Trades, false) {
			add("  %d. %s: %+.2f%% (%s) - %s", i+1, t.Ticker, t.ReturnPct, utils.Money(t.ProfitLoss.InexactFloat64(), true), t.ExitReason)
		}
	}
	lines = append(lines, rule)
	return strings.Join(lines, "\n")
}

// topTrades returns up to reportTop winners by return descending, or losers
// by return ascending.
func topTrades(trades []simulator.Trade, winners bool) []simulator.Trade {
	var picked []simulator.Trade
	for _, t := range trades {
		if (winners && t.ProfitLoss.IsPositive()) || (!winners && t.ProfitLoss.IsNegative()) {
			picked = append(picked, t)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if winners {
			return picked[i].ReturnPct > picked[j].ReturnPct
		}
		return picked[i].ReturnPct < picked[j].ReturnPct
	})
	if len(picked) > reportTop {
		picked = picked[:reportTop]
	}
	return picked
}
