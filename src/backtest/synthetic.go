package backtest

import (
	"context"
	"math"
	"sort"
	"time"

	"sentimentvelocity/src/indicators"
	"sentimentvelocity/src/signals"
	"sentimentvelocity/src/utils"
)

const (
	TypeSynthetic = "synthetic_technical"

	TriggerGoldenCross    = "golden_cross"
	TriggerRSIOversold    = "rsi_oversold"
	TriggerAboveSMAs      = "above_smas"
	TriggerStrongMomentum = "strong_momentum"

	syntheticBase       = 40.0
	syntheticMinBars    = 50
	syntheticMomentum   = 5.0
	syntheticRSIFloor   = 30.0
	syntheticWarmupDays = 120
)

type syntheticRule struct {
	id     string
	points float64
	fires  func(w window) bool
}

// window holds the indicator values for one day and the day before it.
type window struct {
	price     float64
	sma20     float64
	sma50     float64
	prevSMA20 float64
	prevSMA50 float64
	rsi       float64
	roc10     float64
}

var syntheticRules = []syntheticRule{
	{TriggerGoldenCross, 25, func(w window) bool {
		return w.prevSMA20 <= w.prevSMA50 && w.sma20 > w.sma50
	}},
	{TriggerRSIOversold, 20, func(w window) bool { return w.rsi < syntheticRSIFloor }},
	{TriggerAboveSMAs, 15, func(w window) bool { return w.price > w.sma20 && w.sma20 > w.sma50 }},
	{TriggerStrongMomentum, 15, func(w window) bool { return w.roc10 > syntheticMomentum }},
}

// Synthesize derives signals from stored prices with a fixed technical rule
// set. It is a bootstrap path for ranges without pipeline history; every
// signal carries Synthetic. A ticker does not signal again until HoldDays
// after its previous synthetic signal.
func (b *Backtester) Synthesize(ctx context.Context, start, end time.Time) ([]signals.Signal, error) {
	from := utils.DayStart(start).AddDate(0, 0, -syntheticWarmupDays)
	to := utils.DayStart(end).AddDate(0, 0, 1)

	tickers, err := b.prices.GetTickersWithPrices(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var out []signals.Signal
	for _, ticker := range tickers {
		if ticker == b.cfg.BenchmarkTicker {
			continue
		}
		quotes, err := b.prices.GetPricesInRange(ctx, ticker, from, to)
		if err != nil {
			return nil, err
		}
		out = append(out, b.synthesizeTicker(ticker, indicators.BarsFromQuotes(quotes), start)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Ticker < out[j].Ticker
	})
	b.log.WithField("signals", len(out)).Info("Synthesized backtest signals")
	return out, nil
}

func (b *Backtester) synthesizeTicker(ticker string, bars []indicators.Bar, start time.Time) []signals.Signal {
	prices := make([]float64, 0, len(bars))
	days := make([]time.Time, 0, len(bars))
	for _, bar := range bars {
		if bar.Price > 0 {
			prices = append(prices, bar.Price)
			days = append(days, bar.At)
		}
	}

	var out []signals.Signal
	var cooldownUntil time.Time
	first := utils.DayStart(start)
	for i := syntheticMinBars; i < len(prices); i++ {
		if days[i].Before(first) || days[i].Before(cooldownUntil) {
			continue
		}
		hist := prices[:i+1]
		w := window{
			price:     prices[i],
			sma20:     indicators.SMA(hist, 20),
			sma50:     indicators.SMA(hist, 50),
			prevSMA20: indicators.SMA(prices[:i], 20),
			prevSMA50: indicators.SMA(prices[:i], 50),
			rsi:       indicators.RSI(hist, indicators.RSIPeriod),
		}
		_, w.roc10 = indicators.Momentum(hist, 10)

		conviction := syntheticBase
		var fired []string
		for _, rule := range syntheticRules {
			if rule.fires(w) {
				conviction += rule.points
				fired = append(fired, rule.id)
			}
		}
		conviction = math.Min(conviction, 100)
		if len(fired) == 0 || conviction < b.cfg.MinConviction {
			continue
		}

		out = append(out, signals.Signal{
			Ticker:     ticker,
			Type:       TypeSynthetic,
			Conviction: conviction,
			Price:      prices[i],
			Triggers:   fired,
			Synthetic:  true,
			CreatedAt:  days[i],
		})
		cooldownUntil = days[i].AddDate(0, 0, b.cfg.HoldDays)
	}
	return out
}
