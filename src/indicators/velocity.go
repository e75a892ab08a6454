package indicators

import (
	"errors"
	"math"
	"time"

	"sentimentvelocity/src/model"
)

const (
	// scale constants of the composite normalisation
	scaleVelocity24h = 100.0
	scaleVelocity7d  = 10.0
	scaleSentiment   = 20.0
	scaleDivergence  = 25.0

	normalizeClip     = 500.0
	divergenceEpsilon = 0.001
)

var ErrWeightsSum = errors.New("composite weights must sum to 1.0")

// VelocityMetrics is the per-ticker output of one velocity computation.
type VelocityMetrics struct {
	Ticker                string
	MentionVelocity24h    float64
	MentionVelocity7d     float64
	SentimentVelocity     float64
	VolumePriceDivergence float64
	CompositeScore        float64
}

// Weights of the four normalised inputs of CompositeScore.
type Weights struct {
	Mention24h float64 `yaml:"mention_24h"`
	Mention7d  float64 `yaml:"mention_7d"`
	Sentiment  float64 `yaml:"sentiment"`
	Divergence float64 `yaml:"divergence"`
}

func DefaultWeights() Weights {
	return Weights{
		Mention24h: 0.35,
		Mention7d:  0.25,
		Sentiment:  0.25,
		Divergence: 0.15,
	}
}

func (w Weights) Validate() error {
	sum := w.Mention24h + w.Mention7d + w.Sentiment + w.Divergence
	if math.Abs(sum-1.0) > 1e-9 {
		return ErrWeightsSum
	}
	return nil
}

// MentionVelocityPct is the percent change from previous to current. A move
// off zero counts as +100 so new activity still registers.
func MentionVelocityPct(current, previous int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return float64(current-previous) / float64(previous) * 100
}

// MentionVelocityTrend fits a line through the counts inside the trailing
// window against their index and returns the slope.
func MentionVelocityTrend(history []model.MentionPoint, windowDays int, now time.Time) float64 {
	if len(history) < 2 {
		return 0
	}

	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	ys := make([]float64, 0, len(history))
	for _, p := range history {
		if !p.At.Before(cutoff) {
			ys = append(ys, float64(p.Count))
		}
	}
	if len(ys) < 2 {
		return 0
	}
	return slope(ys)
}

// slope of the least-squares line through (i, ys[i]).
func slope(ys []float64) float64 {
	n := float64(len(ys))
	meanX := (n - 1) / 2
	meanY := mean(ys)

	var num, den float64
	for i, y := range ys {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// SentimentVelocity smooths the derivative of the score series with a
// trailing moving average and returns its last value.
func SentimentVelocity(scores []float64, window int) float64 {
	if len(scores) < 2 {
		return 0
	}
	if window < 1 {
		window = 1
	}

	grad := gradient(scores)
	if len(grad) < window {
		return mean(grad)
	}
	return mean(grad[len(grad)-window:])
}

// gradient uses central differences inside and one-sided differences at the edges.
func gradient(xs []float64) []float64 {
	n := len(xs)
	out := make([]float64, n)
	out[0] = xs[1] - xs[0]
	out[n-1] = xs[n-1] - xs[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (xs[i+1] - xs[i-1]) / 2
	}
	return out
}

// VolumePriceDivergence standardises both series by their own deviation and
// returns the mean of mention minus price. Positive means social volume is
// outpacing price.
func VolumePriceDivergence(mentionChanges, priceChanges []float64) float64 {
	if len(mentionChanges) != len(priceChanges) || len(mentionChanges) == 0 {
		return 0
	}

	mStd := stdDev(mentionChanges) + divergenceEpsilon
	pStd := stdDev(priceChanges) + divergenceEpsilon

	var sum float64
	for i := range mentionChanges {
		sum += mentionChanges[i]/mStd - priceChanges[i]/pStd
	}
	return sum / float64(len(mentionChanges))
}

func normalize(x, scale float64) float64 {
	v := clamp(x/scale, -normalizeClip, normalizeClip)
	return 100 / (1 + math.Exp(-v))
}

// CompositeScore blends the four velocity inputs into a 0..100 score.
func CompositeScore(velocity24h, velocity7d, sentimentVelocity, divergence float64, w Weights) float64 {
	score := w.Mention24h*normalize(velocity24h, scaleVelocity24h) +
		w.Mention7d*normalize(velocity7d, scaleVelocity7d) +
		w.Sentiment*normalize(sentimentVelocity*100, scaleSentiment) +
		w.Divergence*normalize(divergence*50, scaleDivergence)

	if math.IsNaN(score) {
		return 0
	}
	return clamp(score, 0, 100)
}

// MentionChanges returns the pairwise percent changes of the counts.
func MentionChanges(history []model.MentionPoint) []float64 {
	if len(history) < 2 {
		return nil
	}
	out := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		out = append(out, MentionVelocityPct(history[i].Count, history[i-1].Count))
	}
	return out
}

// PriceChanges returns percent changes between consecutive prices, skipping
// pairs whose previous price is not positive.
func PriceChanges(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev > 0 {
			out = append(out, (prices[i]-prev)/prev*100)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the population standard deviation.
func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
