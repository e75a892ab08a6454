package repository

import (
	"context"
	"errors"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/model"

	"gorm.io/gorm"
)

type BacktestRunRepository struct {
	db *gorm.DB
}

func NewBacktestRunRepository() *BacktestRunRepository {
	return &BacktestRunRepository{
		db: database.MainDB,
	}
}

func NewBacktestRunRepositoryWithDB(db *gorm.DB) *BacktestRunRepository {
	return &BacktestRunRepository{db: db}
}

func (r *BacktestRunRepository) Save(ctx context.Context, run *model.BacktestRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Get returns (nil, nil) when no run has the id.
func (r *BacktestRunRepository) Get(ctx context.Context, id string) (*model.BacktestRun, error) {
	var run model.BacktestRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
