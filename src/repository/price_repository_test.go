package repository

import (
	"context"
	"testing"
	"time"

	"sentimentvelocity/src/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func seedDailyPrices(t *testing.T, repo *PriceRepository, ticker string, start time.Time, prices ...float64) {
	t.Helper()
	quotes := make([]model.PriceQuote, 0, len(prices))
	for i, p := range prices {
		quotes = append(quotes, model.PriceQuote{
			Ticker:      ticker,
			Price:       decimal.NewFromFloat(p),
			CollectedAt: start.AddDate(0, 0, i),
		})
	}
	require.NoError(t, repo.UpsertQuotes(context.Background(), quotes))
}

func TestPriceRepository_UpsertReplacesSameTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepositoryWithDB(newTestDB(t))
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertQuotes(ctx, []model.PriceQuote{{Ticker: "AAPL", Price: decimal.NewFromInt(100), CollectedAt: at}}))
	require.NoError(t, repo.UpsertQuotes(ctx, []model.PriceQuote{{Ticker: "AAPL", Price: decimal.NewFromInt(101), CollectedAt: at}}))

	rows, err := repo.GetPriceHistory(ctx, "AAPL", at.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Price.Equal(decimal.NewFromInt(101)), "got=%s", rows[0].Price)
}

func TestPriceRepository_HistoricalPrice(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepositoryWithDB(newTestDB(t))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedDailyPrices(t, repo, "AAPL", start, 100, 105, 110)
	// gap, then a price ten days later
	seedDailyPrices(t, repo, "AAPL", start.AddDate(0, 0, 12), 130)

	tests := []struct {
		name      string
		offset    int
		wantFound bool
		want      float64
	}{
		{"exact day", 0, true, 100},
		{"offset", 2, true, 110},
		{"next available inside window", 5, true, 130},
		{"nothing inside window", 14, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, found, err := repo.GetHistoricalPrice(ctx, "AAPL", start, tt.offset)
			require.NoError(t, err)
			require.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				require.True(t, price.Equal(decimal.NewFromFloat(tt.want)), "got=%s want=%v", price, tt.want)
			}
		})
	}
}

func TestPriceRepository_LatestAndSentiment(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepositoryWithDB(newTestDB(t))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertQuotes(ctx, []model.PriceQuote{
		{Ticker: "AAPL", Price: decimal.NewFromInt(100), NewsSentiment: floatPtr(0.5), CollectedAt: start},
		{Ticker: "AAPL", Price: decimal.NewFromInt(105), CollectedAt: start.AddDate(0, 0, 1)},
		{Ticker: "AAPL", Price: decimal.NewFromInt(110), NewsSentiment: floatPtr(0.7), CollectedAt: start.AddDate(0, 0, 2)},
		{Ticker: "MSFT", Price: decimal.NewFromInt(300), CollectedAt: start.AddDate(0, 0, 1)},
	}))

	latest, err := repo.GetLatestPrices(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.True(t, latest["AAPL"].Price.Equal(decimal.NewFromInt(110)))
	require.True(t, latest["MSFT"].Price.Equal(decimal.NewFromInt(300)))

	scores, err := repo.GetSentimentHistory(ctx, "AAPL", start)
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 0.7}, scores)

	tickers, err := repo.GetTickersWithPrices(ctx, start, start.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL", "MSFT"}, tickers)

	_, err = repo.GetPricesInRange(ctx, "AAPL", start, start.AddDate(0, 0, -1))
	require.ErrorIs(t, err, ErrInvalidRange)
}
