package repository

import (
	"context"
	"testing"
	"time"

	"sentimentvelocity/src/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newPosition(ticker string, entry time.Time) *model.SimulatedPosition {
	return &model.SimulatedPosition{
		Ticker:       ticker,
		EntryDate:    entry,
		EntryPrice:   decimal.NewFromInt(100),
		Shares:       10,
		PositionSize: decimal.NewFromInt(1000),
		Conviction:   70,
		StopLoss:     decimal.NewFromInt(90),
		TargetPrice:  decimal.NewFromInt(120),
	}
}

func TestPositionRepository_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := NewPositionRepositoryWithDB(newTestDB(t))
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	outcome, err := repo.CreateIfAbsent(ctx, newPosition("AAPL", day), 2)
	require.NoError(t, err)
	require.Equal(t, CreateOutcomeCreated, outcome)

	outcome, err = repo.CreateIfAbsent(ctx, newPosition("AAPL", day), 2)
	require.NoError(t, err)
	require.Equal(t, CreateOutcomeDuplicate, outcome)

	outcome, err = repo.CreateIfAbsent(ctx, newPosition("MSFT", day), 2)
	require.NoError(t, err)
	require.Equal(t, CreateOutcomeCreated, outcome)

	outcome, err = repo.CreateIfAbsent(ctx, newPosition("NVDA", day), 2)
	require.NoError(t, err)
	require.Equal(t, CreateOutcomeAtCapacity, outcome)

	open, err := repo.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
}

func TestPositionRepository_CloseIsTerminal(t *testing.T) {
	ctx := context.Background()
	repo := NewPositionRepositoryWithDB(newTestDB(t))
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	pos := newPosition("AAPL", day)
	_, err := repo.CreateIfAbsent(ctx, pos, 10)
	require.NoError(t, err)

	exit := ExitFields{
		ExitDate:   day.AddDate(0, 0, 5),
		ExitPrice:  decimal.NewFromInt(121),
		ExitReason: model.ExitReasonTakeProfit,
		ProfitLoss: decimal.NewFromInt(210),
		ReturnPct:  21,
		DaysHeld:   5,
	}
	closed, err := repo.Close(ctx, pos.ID, exit)
	require.NoError(t, err)
	require.True(t, closed)

	exit.ExitReason = model.ExitReasonStopLoss
	closed, err = repo.Close(ctx, pos.ID, exit)
	require.NoError(t, err)
	require.False(t, closed)

	got, err := repo.GetByID(ctx, pos.ID)
	require.NoError(t, err)
	require.Equal(t, model.PositionStatusClosed, got.Status)
	require.Equal(t, model.ExitReasonTakeProfit, got.ExitReason)
	require.NotNil(t, got.ExitPrice)
	require.True(t, got.ExitPrice.Equal(decimal.NewFromInt(121)))
	require.NotNil(t, got.DaysHeld)
	require.Equal(t, 5, *got.DaysHeld)

	recent, err := repo.GetRecentCloses(ctx, day, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestPositionRepository_SnapshotUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewPositionRepositoryWithDB(newTestDB(t))
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	pos := newPosition("AAPL", day)
	_, err := repo.CreateIfAbsent(ctx, pos, 10)
	require.NoError(t, err)

	snapDay := day.AddDate(0, 0, 1)
	require.NoError(t, repo.UpsertSnapshot(ctx, &model.PositionSnapshot{
		PositionID: pos.ID, SnapshotDate: snapDay, CurrentPrice: decimal.NewFromInt(102), UnrealizedPnl: decimal.NewFromInt(20), UnrealizedPct: 2,
	}))
	require.NoError(t, repo.UpsertSnapshot(ctx, &model.PositionSnapshot{
		PositionID: pos.ID, SnapshotDate: snapDay, CurrentPrice: decimal.NewFromInt(104), UnrealizedPnl: decimal.NewFromInt(40), UnrealizedPct: 4,
	}))

	snaps, err := repo.LatestSnapshots(ctx, []uint{pos.ID})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.True(t, snaps[pos.ID].UnrealizedPnl.Equal(decimal.NewFromInt(40)))

	var count int64
	require.NoError(t, repo.db.Model(&model.PositionSnapshot{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
