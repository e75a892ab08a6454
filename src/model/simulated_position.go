package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)

const (
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTakeProfit = "take_profit"
	ExitReasonTimeLimit  = "time_limit"
)

// SimulatedPosition is a paper trade. At most one row exists per
// (ticker, entry_date); closed rows always carry every exit column.
type SimulatedPosition struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	SignalID     *uint            `gorm:"index" json:"signal_id,omitempty"`
	Ticker       string           `gorm:"size:20;not null;uniqueIndex:ux_paper_trades_ticker_entry_date,priority:1" json:"ticker"`
	EntryDate    time.Time        `gorm:"not null;uniqueIndex:ux_paper_trades_ticker_entry_date,priority:2" json:"entry_date"`
	EntryPrice   decimal.Decimal  `gorm:"type:double precision;not null" json:"entry_price"`
	Shares       int64            `gorm:"not null" json:"shares"`
	PositionSize decimal.Decimal  `gorm:"type:double precision;not null" json:"position_size"`
	Conviction   float64          `gorm:"not null" json:"conviction"`
	Triggers     string           `gorm:"size:500" json:"triggers"`
	StopLoss     decimal.Decimal  `gorm:"type:double precision;not null" json:"stop_loss"`
	TargetPrice  decimal.Decimal  `gorm:"type:double precision;not null" json:"target_price"`
	Status       string           `gorm:"size:20;not null;default:open;index" json:"status"`
	ExitDate     *time.Time       `json:"exit_date,omitempty"`
	ExitPrice    *decimal.Decimal `gorm:"type:double precision" json:"exit_price,omitempty"`
	ExitReason   string           `gorm:"size:20" json:"exit_reason,omitempty"`
	ProfitLoss   *decimal.Decimal `gorm:"type:double precision" json:"profit_loss,omitempty"`
	ReturnPct    *float64         `json:"return_pct,omitempty"`
	DaysHeld     *int             `json:"days_held,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (SimulatedPosition) TableName() string {
	return "paper_trades"
}

func (p SimulatedPosition) IsOpen() bool {
	return p.Status == PositionStatusOpen
}

// PositionSnapshot is the mark-to-market of an open position on one day.
type PositionSnapshot struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PositionID    uint            `gorm:"not null;uniqueIndex:ux_paper_trade_snapshots_position_date,priority:1" json:"position_id"`
	SnapshotDate  time.Time       `gorm:"not null;uniqueIndex:ux_paper_trade_snapshots_position_date,priority:2" json:"snapshot_date"`
	CurrentPrice  decimal.Decimal `gorm:"type:double precision;not null" json:"current_price"`
	UnrealizedPnl decimal.Decimal `gorm:"type:double precision;not null" json:"unrealized_pnl"`
	UnrealizedPct float64         `json:"unrealized_pct"`
	DaysHeld      int             `json:"days_held"`
}

func (PositionSnapshot) TableName() string {
	return "paper_trade_snapshots"
}
