package repository

import (
	"context"
	"errors"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/model"
	"sentimentvelocity/src/utils"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoricalPriceWindowDays is how far past the target day a price lookup may reach.
const HistoricalPriceWindowDays = 7

var ErrInvalidRange = errors.New("invalid range: end before start")

type PriceRepository struct {
	db *gorm.DB
}

func NewPriceRepository() *PriceRepository {
	return &PriceRepository{
		db: database.MainDB,
	}
}

func NewPriceRepositoryWithDB(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// UpsertQuotes inserts quotes, replacing an existing (ticker, collected_at) row.
func (r *PriceRepository) UpsertQuotes(ctx context.Context, quotes []model.PriceQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	for i := range quotes {
		quotes[i].CollectedAt = quotes[i].CollectedAt.UTC()
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}, {Name: "collected_at"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price", "change_pct", "open", "high", "low", "prev_close", "volume",
			"news_sentiment", "bullish_pct", "bearish_pct", "buzz_score", "articles_week",
		}),
	}).CreateInBatches(quotes, insertBatchSize).Error
}

// GetPriceHistory returns quotes collected since the given time, oldest first.
func (r *PriceRepository) GetPriceHistory(ctx context.Context, ticker string, since time.Time) ([]model.PriceQuote, error) {
	var rows []model.PriceQuote
	err := r.db.WithContext(ctx).
		Where("ticker = ? AND collected_at >= ?", ticker, since.UTC()).
		Order("collected_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetSentimentHistory returns the non-null news sentiment scores since the given time, oldest first.
func (r *PriceRepository) GetSentimentHistory(ctx context.Context, ticker string, since time.Time) ([]float64, error) {
	var scores []float64
	err := r.db.WithContext(ctx).
		Model(&model.PriceQuote{}).
		Where("ticker = ? AND collected_at >= ? AND news_sentiment IS NOT NULL", ticker, since.UTC()).
		Order("collected_at ASC").
		Pluck("news_sentiment", &scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// GetLatestPrices returns the most recent quote of every ticker.
func (r *PriceRepository) GetLatestPrices(ctx context.Context) (map[string]model.PriceQuote, error) {
	latest := r.db.
		Model(&model.PriceQuote{}).
		Select("ticker, MAX(collected_at) AS max_time").
		Group("ticker")

	var rows []model.PriceQuote
	err := r.db.WithContext(ctx).
		Table("price_quotes AS p").
		Select("p.*").
		Joins("JOIN (?) AS m ON m.ticker = p.ticker AND m.max_time = p.collected_at", latest).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.PriceQuote, len(rows))
	for _, q := range rows {
		out[q.Ticker] = q
	}
	return out, nil
}

// GetPricesInRange returns quotes in [from, to), oldest first.
func (r *PriceRepository) GetPricesInRange(ctx context.Context, ticker string, from, to time.Time) ([]model.PriceQuote, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	var rows []model.PriceQuote
	err := r.db.WithContext(ctx).
		Where("ticker = ? AND collected_at >= ? AND collected_at < ?", ticker, from.UTC(), to.UTC()).
		Order("collected_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTickersWithPrices lists the tickers that have quotes in [from, to), sorted.
func (r *PriceRepository) GetTickersWithPrices(ctx context.Context, from, to time.Time) ([]string, error) {
	var tickers []string
	err := r.db.WithContext(ctx).
		Model(&model.PriceQuote{}).
		Distinct("ticker").
		Where("collected_at >= ? AND collected_at < ?", from.UTC(), to.UTC()).
		Order("ticker ASC").
		Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, err
	}
	return tickers, nil
}

// GetHistoricalPrice looks up the price nearest to date+offsetDays among quotes
// from that day up to HistoricalPriceWindowDays later. found is false when the
// window holds no positive price.
func (r *PriceRepository) GetHistoricalPrice(
	ctx context.Context,
	ticker string,
	date time.Time,
	offsetDays int,
) (price decimal.Decimal, found bool, err error) {
	target := date.UTC().AddDate(0, 0, offsetDays)
	from := utils.DayStart(target)
	to := from.AddDate(0, 0, HistoricalPriceWindowDays+1)

	rows, err := r.GetPricesInRange(ctx, ticker, from, to)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PriceRepository",
			"op":     "GetHistoricalPrice",
			"ticker": ticker,
		}).WithError(err).Error("Failed to load prices")
		return decimal.Zero, false, err
	}

	var best *model.PriceQuote
	var bestDist time.Duration
	for i := range rows {
		if !rows[i].Price.IsPositive() {
			continue
		}
		dist := rows[i].CollectedAt.Sub(target)
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			best = &rows[i]
			bestDist = dist
		}
	}
	if best == nil {
		return decimal.Zero, false, nil
	}
	return best.Price, true, nil
}
