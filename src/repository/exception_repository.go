package repository

import (
	"context"
	"sentimentvelocity/src/database"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sentimentvelocity/src/model"
)

// ExceptionRepository handles persistence of pipeline stage failures.
type ExceptionRepository struct {
	db *gorm.DB
}

// NewExceptionRepository creates a new repository instance.
func NewExceptionRepository() *ExceptionRepository {
	return &ExceptionRepository{
		db: database.MainDB,
	}
}

func NewExceptionRepositoryWithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// Create persists a new exception in the database.
func (r *ExceptionRepository) Create(
	ctx context.Context,
	exc *model.Exception,
) error {

	logger.WithFields(map[string]interface{}{
		"service": exc.Service,
		"stage":   exc.Stage,
		"run_id":  exc.RunID,
		"level":   exc.Level,
	}).Error("Persisting stage exception")

	return r.db.WithContext(ctx).Create(exc).Error
}

// Record is the short form used by the pipeline.
func (r *ExceptionRepository) Record(ctx context.Context, stage, runID string, err error) error {
	if err == nil {
		return nil
	}
	return r.Create(ctx, &model.Exception{
		Service:   "pipeline",
		Stage:     stage,
		RunID:     runID,
		Message:   err.Error(),
		Level:     "error",
		CreatedAt: time.Now().UTC(),
	})
}
