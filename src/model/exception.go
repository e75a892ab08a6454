package model

import "time"

// Exception is a persisted failure of one pipeline stage. The run keeps
// going with partial data; this row is the audit trail.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Service string `gorm:"size:100;index" json:"service"` // e.g. "pipeline"
	Stage   string `gorm:"size:100;index" json:"stage"`   // e.g. "velocity"
	RunID   string `gorm:"size:36;index" json:"run_id"`

	Message string `gorm:"type:text" json:"message"`

	// debug | info | warn | error | fatal
	Level string `gorm:"size:20;index" json:"level"`

	CreatedAt time.Time `json:"created_at"`
}

func (Exception) TableName() string {
	return "exceptions"
}
