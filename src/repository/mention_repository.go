package repository

import (
	"context"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/model"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const insertBatchSize = 200

type MentionRepository struct {
	db *gorm.DB
}

func NewMentionRepository() *MentionRepository {
	return &MentionRepository{
		db: database.MainDB,
	}
}

func NewMentionRepositoryWithDB(db *gorm.DB) *MentionRepository {
	return &MentionRepository{db: db}
}

// InsertMentions appends collected mention samples.
func (r *MentionRepository) InsertMentions(ctx context.Context, mentions []model.Mention) error {
	if len(mentions) == 0 {
		return nil
	}
	for i := range mentions {
		mentions[i].CollectedAt = mentions[i].CollectedAt.UTC()
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "MentionRepository",
		"op":    "InsertMentions",
		"count": len(mentions),
	}).Debug("Inserting mentions")

	return r.db.WithContext(ctx).CreateInBatches(mentions, insertBatchSize).Error
}

// GetMentionHistory returns (collected_at, mentions) pairs since the given
// time in ascending order. Reddit samples are kept out of the series because
// they measure a different population than the aggregate feed.
func (r *MentionRepository) GetMentionHistory(ctx context.Context, ticker string, since time.Time) ([]model.MentionPoint, error) {
	var rows []model.Mention
	err := r.db.WithContext(ctx).
		Select("collected_at", "mentions").
		Where("ticker = ? AND collected_at >= ? AND source <> ?", ticker, since.UTC(), model.MentionSourceReddit).
		Order("collected_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	points := make([]model.MentionPoint, 0, len(rows))
	for _, m := range rows {
		points = append(points, model.MentionPoint{At: m.CollectedAt, Count: m.Mentions})
	}
	return points, nil
}

// GetTrackedTickers returns the distinct tickers seen since the given time, sorted.
func (r *MentionRepository) GetTrackedTickers(ctx context.Context, since time.Time) ([]string, error) {
	var tickers []string
	err := r.db.WithContext(ctx).
		Model(&model.Mention{}).
		Distinct("ticker").
		Where("collected_at >= ?", since.UTC()).
		Order("ticker ASC").
		Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, err
	}
	return tickers, nil
}

// GetLatestMentionsBySource returns the newest sample per ticker for one source.
func (r *MentionRepository) GetLatestMentionsBySource(ctx context.Context, source string, since time.Time) (map[string]model.Mention, error) {
	var rows []model.Mention
	err := r.db.WithContext(ctx).
		Where("source = ? AND collected_at >= ?", source, since.UTC()).
		Order("collected_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[string]model.Mention, len(rows))
	for _, m := range rows {
		latest[m.Ticker] = m
	}
	return latest, nil
}
