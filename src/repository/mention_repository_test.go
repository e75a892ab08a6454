package repository

import (
	"context"
	"testing"
	"time"

	"sentimentvelocity/src/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestMentionRepository_HistoryAndTrackedTickers(t *testing.T) {
	ctx := context.Background()
	repo := NewMentionRepositoryWithDB(newTestDB(t))

	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertMentions(ctx, []model.Mention{
		{Ticker: "TSLA", Mentions: 40, CollectedAt: now.Add(-2 * time.Hour)},
		{Ticker: "AAPL", Mentions: 150, CollectedAt: now.Add(-24 * time.Hour)},
		{Ticker: "AAPL", Mentions: 100, CollectedAt: now.Add(-48 * time.Hour)},
		{Ticker: "AAPL", Mentions: 200, CollectedAt: now},
		{Ticker: "AAPL", Mentions: 999, CollectedAt: now, Source: model.MentionSourceReddit},
		{Ticker: "GME", Mentions: 5, CollectedAt: now.AddDate(0, 0, -30)},
	}))

	history, err := repo.GetMentionHistory(ctx, "AAPL", now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, []int{100, 150, 200}, []int{history[0].Count, history[1].Count, history[2].Count})
	require.True(t, history[2].At.Equal(now))

	tickers, err := repo.GetTrackedTickers(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL", "TSLA"}, tickers)

	reddit, err := repo.GetLatestMentionsBySource(ctx, model.MentionSourceReddit, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, reddit, 1)
	require.Equal(t, 999, reddit["AAPL"].Mentions)
}

func TestMentionRepository_InsertEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMentionRepositoryWithDB(db)

	require.NoError(t, repo.InsertMentions(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMentionRepository_TrackedTickersQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMentionRepositoryWithDB(db)

	since := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT DISTINCT .*ticker.* FROM "mentions" WHERE collected_at >= \$1 ORDER BY ticker ASC`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"ticker"}).AddRow("AAPL").AddRow("NVDA"))

	tickers, err := repo.GetTrackedTickers(context.Background(), since)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL", "NVDA"}, tickers)
	require.NoError(t, mock.ExpectationsWereMet())
}
