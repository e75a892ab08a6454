package indicators

import (
	"sentimentvelocity/src/model"
	"time"
)

type Trend string

const (
	TrendStrongUptrend   Trend = "strong_uptrend"
	TrendUptrend         Trend = "uptrend"
	TrendNeutral         Trend = "neutral"
	TrendDowntrend       Trend = "downtrend"
	TrendStrongDowntrend Trend = "strong_downtrend"
)

const (
	RSIPeriod         = 14
	neutralRSI        = 50.0
	bollingerPeriod   = 20
	bollingerStdDev   = 2.0
	momentumPeriod    = 10
	rangePeriod       = 20
	volumePeriod      = 20
	crossMargin       = 0.02
	strongTrendPct    = 5.0
	breakoutVolume    = 1.5
	macdSignalDamping = 0.9

	// MinAnalysisBars is the fewest positive prices Analyze works with.
	MinAnalysisBars = 5
)

// Bar is one price observation. High, Low and Volume may be zero when the
// source only reports a last price.
type Bar struct {
	At     time.Time
	Price  float64
	High   float64
	Low    float64
	Volume float64
}

func (b Bar) high() float64 {
	if b.High > 0 {
		return b.High
	}
	return b.Price
}

func (b Bar) low() float64 {
	if b.Low > 0 {
		return b.Low
	}
	return b.Price
}

// BarsFromQuotes converts stored quotes, oldest first, into bars.
func BarsFromQuotes(quotes []model.PriceQuote) []Bar {
	bars := make([]Bar, 0, len(quotes))
	for _, q := range quotes {
		bars = append(bars, Bar{
			At:     q.CollectedAt,
			Price:  q.Price.InexactFloat64(),
			High:   q.High.InexactFloat64(),
			Low:    q.Low.InexactFloat64(),
			Volume: q.Volume,
		})
	}
	return bars
}

type Bands struct {
	Upper    float64
	Middle   float64
	Lower    float64
	Position float64
}

// IndicatorSet is the technical picture of one ticker at its latest bar.
// Zero values mean the history was too short for that indicator.
type IndicatorSet struct {
	Ticker       string
	CurrentPrice float64

	RSI14 float64
	SMA20 float64
	SMA50 float64
	EMA12 float64
	EMA26 float64

	MACD          float64
	MACDSignal    float64
	MACDHistogram float64

	Bollinger Bands

	Momentum10 float64
	ROC10      float64

	Support     float64
	Resistance  float64
	VolumeRatio float64

	Breakout    bool
	GoldenCross bool
	DeathCross  bool
	Trend       Trend

	TechnicalScore float64
}

// RSI averages the last period gains and losses. Short input yields a neutral 50.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return neutralRSI
	}

	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func SMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}
	return mean(prices[len(prices)-period:])
}

// EMA seeds on the first price and smooths across the whole series.
func EMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}
	k := 2 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}

// MACD returns EMA12-EMA26 with a damped copy of itself as the signal line.
// The signal is not an EMA of the MACD series.
func MACD(prices []float64) (macd, signal, histogram float64) {
	ema12 := EMA(prices, 12)
	ema26 := EMA(prices, 26)
	if ema12 == 0 || ema26 == 0 {
		return 0, 0, 0
	}
	macd = ema12 - ema26
	signal = macd * macdSignalDamping
	return macd, signal, macd - signal
}

// Bollinger builds bands over the trailing period. ok is false on short input.
func Bollinger(prices []float64, period int, mult float64) (b Bands, ok bool) {
	if period <= 0 || len(prices) < period {
		return Bands{Position: 0.5}, false
	}
	window := prices[len(prices)-period:]
	mid := mean(window)
	sd := stdDev(window)

	b = Bands{
		Upper:  mid + mult*sd,
		Middle: mid,
		Lower:  mid - mult*sd,
	}
	if b.Upper == b.Lower {
		b.Position = 0.5
	} else {
		b.Position = (prices[len(prices)-1] - b.Lower) / (b.Upper - b.Lower)
	}
	return b, true
}

// Momentum returns the price difference and percent change over period bars.
func Momentum(prices []float64, period int) (diff, roc float64) {
	if period <= 0 || len(prices) < period+1 {
		return 0, 0
	}
	cur := prices[len(prices)-1]
	old := prices[len(prices)-1-period]
	diff = cur - old
	if old != 0 {
		roc = diff / old * 100
	}
	return diff, roc
}

// SupportResistance is the low/high range of the bars before the last one,
// at most period of them.
func SupportResistance(bars []Bar, period int) (support, resistance float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	window := bars
	if len(bars) > 1 {
		start := len(bars) - 1 - period
		if start < 0 {
			start = 0
		}
		window = bars[start : len(bars)-1]
	}

	support, resistance = window[0].low(), window[0].high()
	for _, b := range window[1:] {
		if l := b.low(); l < support {
			support = l
		}
		if h := b.high(); h > resistance {
			resistance = h
		}
	}
	return support, resistance
}

// VolumeRatio compares the last volume with the average of the preceding ones.
func VolumeRatio(bars []Bar, period int) float64 {
	if len(bars) < 2 {
		return 0
	}
	start := len(bars) - 1 - period
	if start < 0 {
		start = 0
	}
	var sum float64
	prior := bars[start : len(bars)-1]
	for _, b := range prior {
		sum += b.Volume
	}
	avg := sum / float64(len(prior))
	if avg <= 0 {
		return 0
	}
	return bars[len(bars)-1].Volume / avg
}

func classifyTrend(price, sma20, sma50, roc10 float64) Trend {
	if sma20 == 0 || sma50 == 0 {
		return TrendNeutral
	}
	switch {
	case price > sma20 && sma20 > sma50:
		if roc10 > strongTrendPct {
			return TrendStrongUptrend
		}
		return TrendUptrend
	case price < sma20 && sma20 < sma50:
		if roc10 < -strongTrendPct {
			return TrendStrongDowntrend
		}
		return TrendDowntrend
	default:
		return TrendNeutral
	}
}

// Analyze computes the IndicatorSet at the last bar. It returns nil when
// fewer than MinAnalysisBars positive prices are available.
func Analyze(ticker string, bars []Bar) *IndicatorSet {
	valid := make([]Bar, 0, len(bars))
	prices := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Price > 0 {
			valid = append(valid, b)
			prices = append(prices, b.Price)
		}
	}
	if len(prices) < MinAnalysisBars {
		return nil
	}

	price := prices[len(prices)-1]
	set := &IndicatorSet{
		Ticker:       ticker,
		CurrentPrice: price,
		RSI14:        RSI(prices, RSIPeriod),
		SMA20:        SMA(prices, 20),
		SMA50:        SMA(prices, 50),
		EMA12:        EMA(prices, 12),
		EMA26:        EMA(prices, 26),
	}
	set.MACD, set.MACDSignal, set.MACDHistogram = MACD(prices)
	bands, hasBands := Bollinger(prices, bollingerPeriod, bollingerStdDev)
	set.Bollinger = bands
	set.Momentum10, set.ROC10 = Momentum(prices, momentumPeriod)
	set.Support, set.Resistance = SupportResistance(valid, rangePeriod)
	set.VolumeRatio = VolumeRatio(valid, volumePeriod)

	set.Breakout = hasBands &&
		set.VolumeRatio > breakoutVolume &&
		price > set.Resistance &&
		price > bands.Upper

	if set.SMA20 > 0 && set.SMA50 > 0 {
		set.GoldenCross = set.SMA20 > set.SMA50*(1+crossMargin)
		set.DeathCross = set.SMA20 < set.SMA50*(1-crossMargin)
	}
	set.Trend = classifyTrend(price, set.SMA20, set.SMA50, set.ROC10)
	set.TechnicalScore = TechnicalScore(set)
	return set
}

var trendPoints = map[Trend]float64{
	TrendStrongUptrend:   20,
	TrendUptrend:         10,
	TrendDowntrend:       -10,
	TrendStrongDowntrend: -20,
}

// TechnicalScore starts at 50 and adds fixed contributions per indicator.
func TechnicalScore(s *IndicatorSet) float64 {
	if s == nil {
		return 0
	}
	score := 50.0

	switch {
	case s.RSI14 < 30:
		score += 15
	case s.RSI14 > 70:
		score -= 15
	case s.RSI14 >= 40 && s.RSI14 <= 60:
		score += 5
	}

	switch {
	case s.MACDHistogram > 0:
		score += 10
	case s.MACDHistogram < 0:
		score -= 10
	}

	switch {
	case s.Bollinger.Position < 0.2:
		score += 10
	case s.Bollinger.Position > 0.8:
		score -= 10
	}

	score += trendPoints[s.Trend]

	if s.GoldenCross {
		score += 15
	}
	if s.DeathCross {
		score -= 15
	}

	switch {
	case s.VolumeRatio >= 2.0:
		score += 10
	case s.VolumeRatio >= 1.5:
		score += 5
	}

	if s.Breakout {
		score += 15
	}
	return clamp(score, 0, 100)
}
