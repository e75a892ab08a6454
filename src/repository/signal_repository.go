package repository

import (
	"context"
	"errors"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/model"
	"sentimentvelocity/src/utils"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultRecentSignals = 50

// SignalRepository persists the signal audit trail.
type SignalRepository struct {
	db *gorm.DB
}

func NewSignalRepository() *SignalRepository {
	return &SignalRepository{
		db: database.MainDB,
	}
}

// NewSignalReadRepository uses the read-only connection for the HTTP API.
func NewSignalReadRepository() *SignalRepository {
	return &SignalRepository{
		db: database.ReadOnlyDB,
	}
}

func NewSignalRepositoryWithDB(db *gorm.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// InsertSignals appends signals; ids are written back into the slice.
func (r *SignalRepository) InsertSignals(ctx context.Context, signals []model.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	for i := range signals {
		signals[i].CreatedAt = signals[i].CreatedAt.UTC()
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "SignalRepository",
		"op":    "InsertSignals",
		"count": len(signals),
	}).Debug("Inserting signals")

	return r.db.WithContext(ctx).CreateInBatches(signals, insertBatchSize).Error
}

// GetSignalsInRange returns signals created on the days from..to (inclusive)
// with conviction >= minConviction, oldest first.
func (r *SignalRepository) GetSignalsInRange(ctx context.Context, from, to time.Time, minConviction float64) ([]model.Signal, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	var rows []model.Signal
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ? AND conviction_score >= ?",
			utils.DayStart(from), utils.DayStart(to).AddDate(0, 0, 1), minConviction).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetRecent returns the newest signals, highest conviction first within the same timestamp.
func (r *SignalRepository) GetRecent(ctx context.Context, limit int) ([]model.Signal, error) {
	if limit <= 0 {
		limit = defaultRecentSignals
	}

	var rows []model.Signal
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("conviction_score DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateOutcome records where the price went after the signal.
func (r *SignalRepository) UpdateOutcome(ctx context.Context, id uint, price float64, at time.Time) error {
	var s model.Signal
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	updates := map[string]interface{}{
		"outcome_price": price,
		"outcome_date":  at.UTC(),
	}
	if s.PriceAtSignal > 0 {
		updates["outcome_pct"] = (price - s.PriceAtSignal) / s.PriceAtSignal * 100
	}

	return r.db.WithContext(ctx).Model(&model.Signal{}).Where("id = ?", id).Updates(updates).Error
}
