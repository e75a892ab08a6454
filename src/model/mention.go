package model

import "time"

const (
	MentionSourceApeWisdom = "apewisdom"
	MentionSourceReddit    = "reddit"
)

// Mention is one social-mention sample for a ticker as returned by a collector.
type Mention struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Ticker         string    `gorm:"size:20;not null;index:idx_mentions_ticker_collected_at,priority:1" json:"ticker"`
	Mentions       int       `gorm:"not null;default:0" json:"mentions"`
	Upvotes        int       `gorm:"not null;default:0" json:"upvotes"`
	Rank           int       `json:"rank"`
	Mentions24hAgo int       `gorm:"column:mentions_24h_ago" json:"mentions_24h_ago"`
	Rank24hAgo     int       `gorm:"column:rank_24h_ago" json:"rank_24h_ago"`
	Source         string    `gorm:"size:50;not null;default:apewisdom;index" json:"source"`
	CollectedAt    time.Time `gorm:"not null;index:idx_mentions_ticker_collected_at,priority:2;index:idx_mentions_collected_at" json:"collected_at"`
}

func (Mention) TableName() string {
	return "mentions"
}

// MentionPoint is the (timestamp, count) pair the velocity math works on.
type MentionPoint struct {
	At    time.Time
	Count int
}
