package repository

import (
	"context"
	"errors"
	"fmt"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/model"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateOutcome tells the caller why a create did or did not insert a row.
type CreateOutcome string

const (
	CreateOutcomeCreated    CreateOutcome = "created"
	CreateOutcomeDuplicate  CreateOutcome = "duplicate"
	CreateOutcomeAtCapacity CreateOutcome = "at_capacity"
)

// advisory lock key serialising paper trade creation on postgres
const positionCreateLockKey = 724001

// ExitFields is everything a close writes. All of it lands in one statement.
type ExitFields struct {
	ExitDate   time.Time
	ExitPrice  decimal.Decimal
	ExitReason string
	ProfitLoss decimal.Decimal
	ReturnPct  float64
	DaysHeld   int
}

type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository() *PositionRepository {
	return &PositionRepository{
		db: database.MainDB,
	}
}

// NewPositionReadRepository uses the read-only connection for the HTTP API.
func NewPositionReadRepository() *PositionRepository {
	return &PositionRepository{
		db: database.ReadOnlyDB,
	}
}

func NewPositionRepositoryWithDB(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// CreateIfAbsent inserts pos unless a position for (ticker, entry_date) already
// exists or maxOpen positions are already open. The existence check, the open
// count and the insert run in one transaction.
func (r *PositionRepository) CreateIfAbsent(ctx context.Context, pos *model.SimulatedPosition, maxOpen int) (CreateOutcome, error) {
	pos.EntryDate = pos.EntryDate.UTC()
	if pos.Status == "" {
		pos.Status = model.PositionStatusOpen
	}

	log := logger.WithFields(map[string]interface{}{
		"repo":       "PositionRepository",
		"op":         "CreateIfAbsent",
		"ticker":     pos.Ticker,
		"entry_date": pos.EntryDate.Format(time.DateOnly),
	})

	var outcome CreateOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", positionCreateLockKey).Error; err != nil {
				return fmt.Errorf("lock paper trades: %w", err)
			}
		}

		var existing int64
		if err := tx.Model(&model.SimulatedPosition{}).
			Where("ticker = ? AND entry_date = ?", pos.Ticker, pos.EntryDate).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			outcome = CreateOutcomeDuplicate
			return nil
		}

		var open int64
		if err := tx.Model(&model.SimulatedPosition{}).
			Where("status = ?", model.PositionStatusOpen).
			Count(&open).Error; err != nil {
			return err
		}
		if maxOpen > 0 && open >= int64(maxOpen) {
			outcome = CreateOutcomeAtCapacity
			return nil
		}

		if err := tx.Create(pos).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				outcome = CreateOutcomeDuplicate
				return nil
			}
			return err
		}
		outcome = CreateOutcomeCreated
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to create paper trade")
		return "", err
	}

	log.WithField("outcome", outcome).Debug("Paper trade create finished")
	return outcome, nil
}

// GetByID returns (nil, nil) when the position does not exist.
func (r *PositionRepository) GetByID(ctx context.Context, id uint) (*model.SimulatedPosition, error) {
	var p model.SimulatedPosition
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PositionRepository) GetOpen(ctx context.Context) ([]model.SimulatedPosition, error) {
	var rows []model.SimulatedPosition
	err := r.db.WithContext(ctx).
		Where("status = ?", model.PositionStatusOpen).
		Order("entry_date ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *PositionRepository) GetClosed(ctx context.Context) ([]model.SimulatedPosition, error) {
	var rows []model.SimulatedPosition
	err := r.db.WithContext(ctx).
		Where("status = ?", model.PositionStatusClosed).
		Order("exit_date ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// GetRecentCloses returns positions closed on or after since, newest exit first.
func (r *PositionRepository) GetRecentCloses(ctx context.Context, since time.Time, limit int) ([]model.SimulatedPosition, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []model.SimulatedPosition
	err := r.db.WithContext(ctx).
		Where("status = ? AND exit_date >= ?", model.PositionStatusClosed, since.UTC()).
		Order("exit_date DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Close moves an open position to closed. It reports false when the position
// was not open anymore; a closed position is never rewritten.
func (r *PositionRepository) Close(ctx context.Context, id uint, exit ExitFields) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.SimulatedPosition{}).
		Where("id = ? AND status = ?", id, model.PositionStatusOpen).
		Updates(map[string]interface{}{
			"status":      model.PositionStatusClosed,
			"exit_date":   exit.ExitDate.UTC(),
			"exit_price":  exit.ExitPrice,
			"exit_reason": exit.ExitReason,
			"profit_loss": exit.ProfitLoss,
			"return_pct":  exit.ReturnPct,
			"days_held":   exit.DaysHeld,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "Close",
			"id":   id,
		}).WithError(res.Error).Error("Failed to close paper trade")
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpsertSnapshot writes the day's mark-to-market, replacing an earlier one for the same day.
func (r *PositionRepository) UpsertSnapshot(ctx context.Context, snap *model.PositionSnapshot) error {
	snap.SnapshotDate = snap.SnapshotDate.UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "position_id"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_price", "unrealized_pnl", "unrealized_pct", "days_held"}),
	}).Create(snap).Error
}

// LatestSnapshots returns the newest snapshot of each given position.
func (r *PositionRepository) LatestSnapshots(ctx context.Context, positionIDs []uint) (map[uint]model.PositionSnapshot, error) {
	out := make(map[uint]model.PositionSnapshot, len(positionIDs))
	if len(positionIDs) == 0 {
		return out, nil
	}

	var rows []model.PositionSnapshot
	err := r.db.WithContext(ctx).
		Where("position_id IN ?", positionIDs).
		Order("snapshot_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.PositionID] = s
	}
	return out, nil
}
