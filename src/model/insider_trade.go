package model

import "time"

const (
	InsiderTradePurchase = "P"
	InsiderTradeSale     = "S"
)

// InsiderTrade is a single Form 4 style filing line.
type InsiderTrade struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Ticker             string     `gorm:"size:20;not null;uniqueIndex:ux_insider_trades_natural,priority:1;index" json:"ticker"`
	InsiderName        string     `gorm:"size:255;uniqueIndex:ux_insider_trades_natural,priority:2" json:"insider_name"`
	InsiderTitle       string     `gorm:"size:255" json:"insider_title"`
	TradeType          string     `gorm:"size:5;not null;uniqueIndex:ux_insider_trades_natural,priority:4" json:"trade_type"`
	TradeDate          time.Time  `gorm:"not null;uniqueIndex:ux_insider_trades_natural,priority:3;index" json:"trade_date"`
	FilingDate         *time.Time `json:"filing_date,omitempty"`
	Shares             int64      `gorm:"uniqueIndex:ux_insider_trades_natural,priority:5" json:"shares"`
	Price              float64    `json:"price"`
	Value              float64    `json:"value"`
	OwnershipChangePct float64    `json:"ownership_change_pct"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (InsiderTrade) TableName() string {
	return "insider_trades"
}

func (t InsiderTrade) IsPurchase() bool {
	return t.TradeType == InsiderTradePurchase
}
