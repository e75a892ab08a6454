package repository

import (
	"context"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/model"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InsiderRepository struct {
	db *gorm.DB
}

func NewInsiderRepository() *InsiderRepository {
	return &InsiderRepository{
		db: database.MainDB,
	}
}

func NewInsiderRepositoryWithDB(db *gorm.DB) *InsiderRepository {
	return &InsiderRepository{db: db}
}

// UpsertTrades stores filings; re-collected filings update price and value.
func (r *InsiderRepository) UpsertTrades(ctx context.Context, trades []model.InsiderTrade) error {
	if len(trades) == 0 {
		return nil
	}
	for i := range trades {
		trades[i].TradeDate = trades[i].TradeDate.UTC()
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "InsiderRepository",
		"op":    "UpsertTrades",
		"count": len(trades),
	}).Debug("Upserting insider trades")

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "ticker"}, {Name: "insider_name"}, {Name: "trade_date"}, {Name: "trade_type"}, {Name: "shares"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"insider_title", "filing_date", "price", "value", "ownership_change_pct"}),
	}).CreateInBatches(trades, insertBatchSize).Error
}

// GetRecentInsiderTrades groups trades dated on or after since by ticker, newest first.
func (r *InsiderRepository) GetRecentInsiderTrades(ctx context.Context, since time.Time) (map[string][]model.InsiderTrade, error) {
	var rows []model.InsiderTrade
	err := r.db.WithContext(ctx).
		Where("trade_date >= ?", since.UTC()).
		Order("trade_date DESC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]model.InsiderTrade)
	for _, t := range rows {
		grouped[t.Ticker] = append(grouped[t.Ticker], t)
	}
	return grouped, nil
}
