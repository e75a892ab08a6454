package indicators

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentimentvelocity/src/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMentions struct {
	history map[string][]model.MentionPoint
	err     error
}

func (f *fakeMentions) GetMentionHistory(_ context.Context, ticker string, since time.Time) ([]model.MentionPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.MentionPoint
	for _, p := range f.history[ticker] {
		if !p.At.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeMentions) GetTrackedTickers(_ context.Context, _ time.Time) ([]string, error) {
	return SortedTickers(f.history), nil
}

type fakePrices struct {
	quotes    map[string][]model.PriceQuote
	sentiment map[string][]float64
}

func (f *fakePrices) GetPriceHistory(_ context.Context, ticker string, _ time.Time) ([]model.PriceQuote, error) {
	return f.quotes[ticker], nil
}

func (f *fakePrices) GetSentimentHistory(_ context.Context, ticker string, _ time.Time) ([]float64, error) {
	return f.sentiment[ticker], nil
}

func quietLogger() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func aaplFixture(now time.Time) (*fakeMentions, *fakePrices) {
	mentions := &fakeMentions{history: map[string][]model.MentionPoint{
		"AAPL": {
			{At: now.Add(-48 * time.Hour), Count: 100},
			{At: now.Add(-24 * time.Hour), Count: 150},
			{At: now, Count: 200},
		},
		"QUIET": {
			{At: now.Add(-2 * time.Hour), Count: 3},
		},
	}}
	prices := &fakePrices{
		quotes: map[string][]model.PriceQuote{
			"AAPL": {
				{Ticker: "AAPL", Price: decimal.NewFromInt(100), CollectedAt: now.Add(-48 * time.Hour)},
				{Ticker: "AAPL", Price: decimal.NewFromInt(105), CollectedAt: now.Add(-24 * time.Hour)},
				{Ticker: "AAPL", Price: decimal.NewFromInt(110), CollectedAt: now},
			},
		},
		sentiment: map[string][]float64{"AAPL": {0.5, 0.6, 0.7}},
	}
	return mentions, prices
}

func TestVelocityCalculator_Calculate(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	mentions, prices := aaplFixture(now)
	calc := NewVelocityCalculator(mentions, prices, quietLogger()).WithClock(func() time.Time { return now })

	m, err := calc.Calculate(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.InDelta(t, 100.0/3, m.MentionVelocity24h, 1e-9)
	assert.InDelta(t, 50.0, m.MentionVelocity7d, 1e-9)
	assert.InDelta(t, 0.1, m.SentimentVelocity, 1e-9)
	assert.Less(t, m.VolumePriceDivergence, 0.0, "price moves are steadier than mentions")
	assert.InDelta(t, 60.78, m.CompositeScore, 0.01)
}

func TestVelocityCalculator_NoPriorDay(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	mentions := &fakeMentions{history: map[string][]model.MentionPoint{
		"TSLA": {
			{At: now.Add(-2 * time.Hour), Count: 10},
			{At: now, Count: 40},
		},
	}}
	calc := NewVelocityCalculator(mentions, &fakePrices{}, quietLogger()).WithClock(func() time.Time { return now })

	m, err := calc.Calculate(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Zero(t, m.MentionVelocity24h)
	assert.Zero(t, m.SentimentVelocity)
	assert.Zero(t, m.VolumePriceDivergence)
	assert.InDelta(t, 30.0, m.MentionVelocity7d, 1e-9)
}

func TestVelocityCalculator_CalculateAll(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	mentions, prices := aaplFixture(now)
	calc := NewVelocityCalculator(mentions, prices, quietLogger()).WithClock(func() time.Time { return now })

	all, err := calc.CalculateAll(context.Background(), DefaultMinMentions)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Contains(t, all, "AAPL")

	rows := ToModels("run-1", all, now)
	require.Len(t, rows, 1)
	assert.Equal(t, "run-1", rows[0].RunID)
	assert.Equal(t, all["AAPL"].CompositeScore, rows[0].CompositeScore)
}

func TestVelocityCalculator_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	calc := NewVelocityCalculator(&fakeMentions{err: boom}, &fakePrices{}, quietLogger())

	_, err := calc.Calculate(context.Background(), "AAPL")
	require.ErrorIs(t, err, boom)
}
