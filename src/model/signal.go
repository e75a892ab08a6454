package model

import (
	"strings"
	"time"
)

const triggerSeparator = ","

// Signal is an immutable, conviction-scored trading signal. Only the outcome
// columns are written after creation.
type Signal struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	RunID           string     `gorm:"size:36;index" json:"run_id"`
	Ticker          string     `gorm:"size:20;not null;index" json:"ticker"`
	SignalType      string     `gorm:"size:50;not null" json:"signal_type"`
	ConvictionScore float64    `gorm:"not null;index" json:"conviction_score"`
	PriceAtSignal   float64    `json:"price_at_signal"`
	Triggers        string     `gorm:"size:500" json:"triggers"`
	Notes           string     `gorm:"type:text" json:"notes"`
	Synthetic       bool       `gorm:"not null;default:false" json:"synthetic"`
	OutcomePrice    *float64   `json:"outcome_price,omitempty"`
	OutcomeDate     *time.Time `json:"outcome_date,omitempty"`
	OutcomePct      *float64   `json:"outcome_pct,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;index" json:"created_at"`
}

func (Signal) TableName() string {
	return "signals"
}

func (s Signal) TriggerList() []string {
	if s.Triggers == "" {
		return nil
	}
	return strings.Split(s.Triggers, triggerSeparator)
}

func JoinTriggers(triggers []string) string {
	return strings.Join(triggers, triggerSeparator)
}
