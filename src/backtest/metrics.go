package backtest

import (
	"math"

	"sentimentvelocity/src/simulator"

	"github.com/shopspring/decimal"
)

const (
	tradingDays  = 252
	riskFreeRate = 0.02
	// below this the excess returns are treated as constant
	minStdDev = 1e-12
)

// Metrics aggregates a trade set.
type Metrics struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	TotalPnl       float64 `json:"total_pnl"`
	TotalReturnPct float64 `json:"total_return_pct"`
	AvgReturnPct   float64 `json:"avg_return_pct"`
	AvgWinPct      float64 `json:"avg_win_pct"`
	AvgLossPct     float64 `json:"avg_loss_pct"`
	BestTradePct   float64 `json:"best_trade_pct"`
	WorstTradePct  float64 `json:"worst_trade_pct"`
	AvgDaysHeld    float64 `json:"avg_days_held"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
}

// ComputeMetrics summarises trades in completion order. A trade with zero
// P&L is neither a winner nor a loser.
func ComputeMetrics(initialCapital float64, trades []simulator.Trade) Metrics {
	var m Metrics
	if len(trades) == 0 {
		return m
	}

	m.TotalTrades = len(trades)
	total := decimal.Zero
	returns := make([]float64, 0, len(trades))
	var sumRet, sumWin, sumLoss, sumDays float64
	m.BestTradePct = math.Inf(-1)
	m.WorstTradePct = math.Inf(1)

	for _, t := range trades {
		total = total.Add(t.ProfitLoss)
		sumRet += t.ReturnPct
		sumDays += float64(t.DaysHeld)
		returns = append(returns, t.ReturnPct/100)
		m.BestTradePct = math.Max(m.BestTradePct, t.ReturnPct)
		m.WorstTradePct = math.Min(m.WorstTradePct, t.ReturnPct)

		switch {
		case t.ProfitLoss.IsPositive():
			m.WinningTrades++
			sumWin += t.ReturnPct
		case t.ProfitLoss.IsNegative():
			m.LosingTrades++
			sumLoss += t.ReturnPct
		}
	}

	n := float64(m.TotalTrades)
	m.WinRate = float64(m.WinningTrades) / n * 100
	m.TotalPnl = total.InexactFloat64()
	if initialCapital > 0 {
		m.TotalReturnPct = m.TotalPnl / initialCapital * 100
	}
	m.AvgReturnPct = sumRet / n
	m.AvgDaysHeld = sumDays / n
	if m.WinningTrades > 0 {
		m.AvgWinPct = sumWin / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLossPct = sumLoss / float64(m.LosingTrades)
	}

	m.MaxDrawdownPct = MaxDrawdown(EquityCurve(initialCapital, trades))
	m.SharpeRatio = SharpeRatio(returns, riskFreeRate)
	return m
}

// EquityCurve is the initial capital followed by the running P&L total.
func EquityCurve(initialCapital float64, trades []simulator.Trade) []float64 {
	curve := make([]float64, 0, len(trades)+1)
	equity := decimal.NewFromFloat(initialCapital)
	curve = append(curve, equity.InexactFloat64())
	for _, t := range trades {
		equity = equity.Add(t.ProfitLoss)
		curve = append(curve, equity.InexactFloat64())
	}
	return curve
}

// MaxDrawdown is the largest peak-to-trough decline of the curve, in percent.
func MaxDrawdown(curve []float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	peak := curve[0]
	var maxDD float64
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			maxDD = math.Max(maxDD, (peak-v)/peak*100)
		}
	}
	return maxDD
}

// SharpeRatio annualises per-trade returns (as fractions) against a daily
// risk-free rate. Fewer than two returns or no variance yields 0.
func SharpeRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	daily := annualRiskFree / tradingDays
	excess := make([]float64, len(returns))
	var sum float64
	for i, r := range returns {
		excess[i] = r - daily
		sum += excess[i]
	}
	mean := sum / float64(len(excess))

	var sq float64
	for _, e := range excess {
		sq += (e - mean) * (e - mean)
	}
	std := math.Sqrt(sq / float64(len(excess)))
	if std < minStdDev {
		return 0
	}
	return mean / std * math.Sqrt(tradingDays)
}
