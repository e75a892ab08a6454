package repository

import (
	"context"
	"errors"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/model"

	"gorm.io/gorm"
)

type VelocityRepository struct {
	db *gorm.DB
}

func NewVelocityRepository() *VelocityRepository {
	return &VelocityRepository{
		db: database.MainDB,
	}
}

func NewVelocityRepositoryWithDB(db *gorm.DB) *VelocityRepository {
	return &VelocityRepository{db: db}
}

// InsertVelocity appends one audit row per metric. Older rows are superseded, never merged.
func (r *VelocityRepository) InsertVelocity(ctx context.Context, metrics []model.VelocityMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	for i := range metrics {
		metrics[i].CalculatedAt = metrics[i].CalculatedAt.UTC()
	}
	return r.db.WithContext(ctx).CreateInBatches(metrics, insertBatchSize).Error
}

// GetLatest returns the newest metric for ticker, or (nil, nil) when none exists.
func (r *VelocityRepository) GetLatest(ctx context.Context, ticker string) (*model.VelocityMetric, error) {
	var m model.VelocityMetric
	err := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("calculated_at DESC").
		Order("id DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
