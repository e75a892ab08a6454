package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is a daily (or intraday) quote snapshot, optionally enriched
// with the news sentiment collected alongside it.
type PriceQuote struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Ticker        string          `gorm:"size:20;not null;uniqueIndex:ux_price_quotes_ticker_collected_at,priority:1" json:"ticker"`
	Price         decimal.Decimal `gorm:"type:double precision;not null" json:"price"`
	ChangePct     float64         `json:"change_pct"`
	Open          decimal.Decimal `gorm:"type:double precision" json:"open"`
	High          decimal.Decimal `gorm:"type:double precision" json:"high"`
	Low           decimal.Decimal `gorm:"type:double precision" json:"low"`
	PrevClose     decimal.Decimal `gorm:"type:double precision" json:"prev_close"`
	Volume        float64         `json:"volume"`
	NewsSentiment *float64        `json:"news_sentiment,omitempty"`
	BullishPct    float64         `json:"bullish_pct"`
	BearishPct    float64         `json:"bearish_pct"`
	BuzzScore     float64         `json:"buzz_score"`
	ArticlesWeek  int             `json:"articles_week"`
	CollectedAt   time.Time       `gorm:"not null;uniqueIndex:ux_price_quotes_ticker_collected_at,priority:2;index" json:"collected_at"`
}

func (PriceQuote) TableName() string {
	return "price_quotes"
}

// SentimentLabel derives a coarse label from the bullish/bearish split.
func (q PriceQuote) SentimentLabel() string {
	switch {
	case q.BullishPct == 0 && q.BearishPct == 0:
		return ""
	case q.BullishPct > q.BearishPct:
		return "bullish"
	case q.BearishPct > q.BullishPct:
		return "bearish"
	default:
		return "neutral"
	}
}
