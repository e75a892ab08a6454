package migrations

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	TickerCaseID        = "00001_normalize_ticker_case"
	PaperPositionSizeID = "00002_backfill_paper_trade_position_size"
)

// DataMigration is one row of the ledger of applied data fixes.
type DataMigration struct {
	ID        string    `gorm:"primaryKey;size:200;column:id"`
	AppliedAt time.Time `gorm:"not null;column:applied_at"`
}

func (DataMigration) TableName() string { return "data_migrations" }

type step struct {
	id    string
	apply func(*gorm.DB) error
}

// steps run in order. IDs are recorded in the ledger and must never change.
var steps = []step{
	{id: TickerCaseID, apply: normalizeTickerCase},
	{id: PaperPositionSizeID, apply: backfillPositionSize},
}

// Run applies every pending data fix after the schema auto-migration.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	for _, s := range steps {
		if err := RunOnce(db, s.id, s.apply); err != nil {
			return err
		}
	}
	return nil
}

// RunOnce applies fn inside a transaction unless id is already in the
// ledger. The ledger row is written in the same transaction, so a failed
// fn leaves no trace and is retried on the next start.
func RunOnce(db *gorm.DB, id string, fn func(*gorm.DB) error) error {
	if db == nil {
		return nil
	}
	if id == "" {
		return errors.New("data migration id is empty")
	}
	if fn == nil {
		return fmt.Errorf("data migration %q has no apply func", id)
	}
	if err := db.AutoMigrate(&DataMigration{}); err != nil {
		return fmt.Errorf("prepare data migration ledger: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		applied, err := isApplied(tx, id)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		if err := fn(tx); err != nil {
			return fmt.Errorf("apply data migration %q: %w", id, err)
		}
		if err := tx.Create(&DataMigration{ID: id, AppliedAt: time.Now().UTC()}).Error; err != nil {
			return fmt.Errorf("record data migration %q: %w", id, err)
		}
		return nil
	})
}

func isApplied(tx *gorm.DB, id string) (bool, error) {
	var count int64
	if err := tx.Model(&DataMigration{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("look up data migration %q: %w", id, err)
	}
	return count > 0, nil
}
