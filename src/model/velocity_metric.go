package model

import "time"

// VelocityMetric is the persisted audit row of one velocity computation.
type VelocityMetric struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	RunID                 string    `gorm:"size:36;index" json:"run_id"`
	Ticker                string    `gorm:"size:20;not null;index:idx_velocity_ticker_calculated_at,priority:1" json:"ticker"`
	MentionVelocity24h    float64   `gorm:"column:mention_velocity_24h" json:"mention_velocity_24h"`
	MentionVelocity7d     float64   `gorm:"column:mention_velocity_7d" json:"mention_velocity_7d"`
	SentimentVelocity     float64   `json:"sentiment_velocity"`
	VolumePriceDivergence float64   `json:"volume_price_divergence"`
	CompositeScore        float64   `json:"composite_score"`
	CalculatedAt          time.Time `gorm:"not null;index:idx_velocity_ticker_calculated_at,priority:2" json:"calculated_at"`
}

func (VelocityMetric) TableName() string {
	return "velocity_metrics"
}
