package indicators

import (
	"math"
	"testing"
	"time"

	"sentimentvelocity/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentionVelocityPct(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		previous int
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"new activity", 7, 0, 100},
		{"doubled", 200, 100, 100},
		{"halved", 50, 100, -50},
		{"unchanged", 10, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MentionVelocityPct(tt.current, tt.previous), 1e-9)
		})
	}
}

func TestMentionVelocityTrend(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	history := []model.MentionPoint{
		{At: now.AddDate(0, 0, -20), Count: 5000},
		{At: now.Add(-48 * time.Hour), Count: 100},
		{At: now.Add(-24 * time.Hour), Count: 150},
		{At: now, Count: 200},
	}

	assert.InDelta(t, 50.0, MentionVelocityTrend(history, 7, now), 1e-9)
	assert.Equal(t, 0.0, MentionVelocityTrend(history[:1], 7, now))
	assert.Equal(t, 0.0, MentionVelocityTrend(history[:2], 7, now), "only one point inside the window")
}

func TestSentimentVelocity(t *testing.T) {
	assert.Equal(t, 0.0, SentimentVelocity(nil, 6))
	assert.Equal(t, 0.0, SentimentVelocity([]float64{0.4}, 6))
	assert.InDelta(t, 0.1, SentimentVelocity([]float64{0.5, 0.6, 0.7}, 3), 1e-9)

	// shorter than the window falls back to the mean derivative
	assert.InDelta(t, 0.1, SentimentVelocity([]float64{0.5, 0.6, 0.7}, 6), 1e-9)

	// only the last window of the derivative counts
	scores := []float64{0, 0, 0, 0, 1, 2, 3}
	// gradient: 0 0 0 .5 1 1 1
	assert.InDelta(t, 1.0, SentimentVelocity(scores, 3), 1e-9)
	assert.InDelta(t, 0.875, SentimentVelocity(scores, 4), 1e-9)
}

func TestVolumePriceDivergence(t *testing.T) {
	assert.Equal(t, 0.0, VolumePriceDivergence(nil, nil))
	assert.Equal(t, 0.0, VolumePriceDivergence([]float64{1, 2}, []float64{1}))
	assert.InDelta(t, 0.0, VolumePriceDivergence([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)

	got := VolumePriceDivergence([]float64{50, 100}, []float64{0, 0})
	assert.Greater(t, got, 0.0, "mentions outpacing a flat price")
}

func TestCompositeScore_Bounds(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, w.Validate())

	assert.InDelta(t, 50.0, CompositeScore(0, 0, 0, 0, w), 1e-9)

	extremes := []float64{math.Inf(1), math.Inf(-1), 1e308, -1e308, 1e6, -1e6, 0}
	for _, a := range extremes {
		for _, b := range extremes {
			score := CompositeScore(a, b, -a, b, w)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	}

	assert.InDelta(t, 100.0, CompositeScore(1e9, 1e9, 1e9, 1e9, w), 1e-6)
	assert.InDelta(t, 0.0, CompositeScore(-1e9, -1e9, -1e9, -1e9, w), 1e-6)
}

func TestWeightsValidate(t *testing.T) {
	bad := Weights{Mention24h: 0.5, Mention7d: 0.5, Sentiment: 0.5}
	assert.ErrorIs(t, bad.Validate(), ErrWeightsSum)
}

func TestPriceChanges_SkipsNonPositivePrevious(t *testing.T) {
	got := PriceChanges([]float64{0, 100, 110, 0, 50})
	require.Len(t, got, 2)
	assert.InDelta(t, 10.0, got[0], 1e-9)
	assert.InDelta(t, -100.0, got[1], 1e-9)

	assert.Nil(t, PriceChanges([]float64{100}))
}

func TestMentionChanges(t *testing.T) {
	got := MentionChanges([]model.MentionPoint{{Count: 100}, {Count: 150}, {Count: 0}, {Count: 3}})
	assert.Equal(t, []float64{50, -100, 100}, got)
}
