package indicators

import (
	"context"
	"errors"
	"fmt"
	"sentimentvelocity/src/model"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	velocityWindowDays      = 7
	sentimentSmoothing      = 6
	DefaultMinMentions      = 5
	activityLookback        = 24 * time.Hour
	DefaultTechnicalHistory = 90
)

// MentionReader is the mention side of the store.
type MentionReader interface {
	GetMentionHistory(ctx context.Context, ticker string, since time.Time) ([]model.MentionPoint, error)
	GetTrackedTickers(ctx context.Context, since time.Time) ([]string, error)
}

// PriceReader is the price and sentiment side of the store.
type PriceReader interface {
	GetPriceHistory(ctx context.Context, ticker string, since time.Time) ([]model.PriceQuote, error)
	GetSentimentHistory(ctx context.Context, ticker string, since time.Time) ([]float64, error)
}

type VelocityCalculator struct {
	mentions MentionReader
	prices   PriceReader
	weights  Weights
	log      *logrus.Entry
	now      func() time.Time
}

func NewVelocityCalculator(mentions MentionReader, prices PriceReader, log *logrus.Entry) *VelocityCalculator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &VelocityCalculator{
		mentions: mentions,
		prices:   prices,
		weights:  DefaultWeights(),
		log:      log.WithField("component", "velocity"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source, used by tests and backdated runs.
func (c *VelocityCalculator) WithClock(now func() time.Time) *VelocityCalculator {
	c.now = now
	return c
}

func (c *VelocityCalculator) WithWeights(w Weights) *VelocityCalculator {
	c.weights = w
	return c
}

// Calculate computes every velocity metric of one ticker from the last seven days.
func (c *VelocityCalculator) Calculate(ctx context.Context, ticker string) (VelocityMetrics, error) {
	now := c.now()
	since := now.AddDate(0, 0, -velocityWindowDays)
	out := VelocityMetrics{Ticker: ticker}

	history, err := c.mentions.GetMentionHistory(ctx, ticker, since)
	if err != nil {
		return out, fmt.Errorf("mention history %s: %w", ticker, err)
	}

	if len(history) >= 2 {
		current := history[len(history)-1].Count
		dayAgo := now.Add(-24 * time.Hour)
		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].At.After(dayAgo) {
				out.MentionVelocity24h = MentionVelocityPct(current, history[i].Count)
				break
			}
		}
	}
	out.MentionVelocity7d = MentionVelocityTrend(history, velocityWindowDays, now)

	sentiment, err := c.prices.GetSentimentHistory(ctx, ticker, since)
	if err != nil {
		return out, fmt.Errorf("sentiment history %s: %w", ticker, err)
	}
	window := sentimentSmoothing
	if len(sentiment) < window {
		window = len(sentiment)
	}
	out.SentimentVelocity = SentimentVelocity(sentiment, window)

	quotes, err := c.prices.GetPriceHistory(ctx, ticker, since)
	if err != nil {
		return out, fmt.Errorf("price history %s: %w", ticker, err)
	}
	prices := make([]float64, 0, len(quotes))
	for _, q := range quotes {
		prices = append(prices, q.Price.InexactFloat64())
	}

	mentionChanges := MentionChanges(history)
	priceChanges := PriceChanges(prices)
	n := min(len(mentionChanges), len(priceChanges))
	if n > 0 {
		out.VolumePriceDivergence = VolumePriceDivergence(mentionChanges[:n], priceChanges[:n])
	}

	out.CompositeScore = CompositeScore(
		out.MentionVelocity24h,
		out.MentionVelocity7d,
		out.SentimentVelocity,
		out.VolumePriceDivergence,
		c.weights,
	)
	return out, nil
}

// CalculateAll computes metrics for every ticker seen in the last seven days
// whose latest count of the last day is at least minMentions. Tickers that
// fail are left out and their errors joined into the returned error.
func (c *VelocityCalculator) CalculateAll(ctx context.Context, minMentions int) (map[string]VelocityMetrics, error) {
	now := c.now()
	tickers, err := c.mentions.GetTrackedTickers(ctx, now.AddDate(0, 0, -velocityWindowDays))
	if err != nil {
		return nil, fmt.Errorf("tracked tickers: %w", err)
	}

	c.log.WithField("tickers", len(tickers)).Info("Calculating velocity")

	results := make(map[string]VelocityMetrics, len(tickers))
	var errs []error
	for _, ticker := range tickers {
		recent, err := c.mentions.GetMentionHistory(ctx, ticker, now.Add(-activityLookback))
		if err != nil {
			errs = append(errs, fmt.Errorf("mention history %s: %w", ticker, err))
			continue
		}
		if len(recent) == 0 || recent[len(recent)-1].Count < minMentions {
			continue
		}

		m, err := c.Calculate(ctx, ticker)
		if err != nil {
			c.log.WithField("ticker", ticker).WithError(err).Warn("Velocity failed")
			errs = append(errs, err)
			continue
		}
		results[ticker] = m
	}

	c.log.WithField("calculated", len(results)).Info("Velocity calculated for active tickers")
	return results, errors.Join(errs...)
}

// ToModels converts calculator output into audit rows, sorted by ticker.
func ToModels(runID string, metrics map[string]VelocityMetrics, at time.Time) []model.VelocityMetric {
	rows := make([]model.VelocityMetric, 0, len(metrics))
	for _, ticker := range SortedTickers(metrics) {
		m := metrics[ticker]
		rows = append(rows, model.VelocityMetric{
			RunID:                 runID,
			Ticker:                ticker,
			MentionVelocity24h:    m.MentionVelocity24h,
			MentionVelocity7d:     m.MentionVelocity7d,
			SentimentVelocity:     m.SentimentVelocity,
			VolumePriceDivergence: m.VolumePriceDivergence,
			CompositeScore:        m.CompositeScore,
			CalculatedAt:          at.UTC(),
		})
	}
	return rows
}
