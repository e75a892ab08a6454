package model

import "time"

// BacktestRun stores the aggregate outcome of one backtest invocation.
type BacktestRun struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	StartDate       time.Time `gorm:"not null" json:"start_date"`
	EndDate         time.Time `gorm:"not null" json:"end_date"`
	InitialCapital  float64   `json:"initial_capital"`
	MinConviction   float64   `json:"min_conviction"`
	TotalTrades     int       `json:"total_trades"`
	WinningTrades   int       `json:"winning_trades"`
	LosingTrades    int       `json:"losing_trades"`
	WinRate         float64   `json:"win_rate"`
	TotalPnl        float64   `json:"total_pnl"`
	TotalReturnPct  float64   `json:"total_return_pct"`
	MaxDrawdownPct  float64   `json:"max_drawdown_pct"`
	SharpeRatio     float64   `json:"sharpe_ratio"`
	BenchmarkReturn float64   `json:"benchmark_return"`
	Alpha           float64   `json:"alpha"`
	Synthetic       bool      `gorm:"not null;default:false" json:"synthetic"`
	Report          string    `gorm:"type:text" json:"report"`
	CreatedAt       time.Time `json:"created_at"`
}

func (BacktestRun) TableName() string {
	return "backtest_runs"
}
