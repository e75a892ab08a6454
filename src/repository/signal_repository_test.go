package repository

import (
	"context"
	"testing"
	"time"

	"sentimentvelocity/src/model"

	"github.com/stretchr/testify/require"
)

func TestSignalRepository_RangeFilterAndOutcome(t *testing.T) {
	ctx := context.Background()
	repo := NewSignalRepositoryWithDB(newTestDB(t))
	base := time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)

	signals := []model.Signal{
		{Ticker: "AAPL", SignalType: "velocity_spike", ConvictionScore: 80, PriceAtSignal: 150, CreatedAt: base},
		{Ticker: "TSLA", SignalType: "insider_cluster", ConvictionScore: 65, PriceAtSignal: 200, CreatedAt: base.AddDate(0, 0, 1)},
		{Ticker: "MSFT", SignalType: "combined", ConvictionScore: 90, PriceAtSignal: 300, CreatedAt: base.AddDate(0, 0, 2)},
		{Ticker: "AMD", SignalType: "rsi_oversold", ConvictionScore: 45, PriceAtSignal: 100, CreatedAt: base.AddDate(0, 0, 3)},
	}
	require.NoError(t, repo.InsertSignals(ctx, signals))
	require.NotZero(t, signals[0].ID)

	got, err := repo.GetSignalsInRange(ctx, base, base.AddDate(0, 0, 9), 60)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "AAPL", got[0].Ticker)
	require.Equal(t, "MSFT", got[2].Ticker)

	// the end day is inclusive
	got, err = repo.GetSignalsInRange(ctx, base, base.AddDate(0, 0, 2).Add(-9*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	empty, err := repo.GetSignalsInRange(ctx, base.AddDate(-1, 0, 0), base.AddDate(-1, 0, 9), 60)
	require.NoError(t, err)
	require.Empty(t, empty)

	require.NoError(t, repo.UpdateOutcome(ctx, signals[0].ID, 165, base.AddDate(0, 0, 30)))
	recent, err := repo.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 4)

	var aapl model.Signal
	require.NoError(t, repo.db.First(&aapl, signals[0].ID).Error)
	require.NotNil(t, aapl.OutcomePct)
	require.InDelta(t, 10.0, *aapl.OutcomePct, 1e-9)
}
