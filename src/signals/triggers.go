package signals

import (
	"fmt"
	"strings"
	"time"

	"sentimentvelocity/src/indicators"
	"sentimentvelocity/src/model"
	"sentimentvelocity/src/utils"
)

const (
	TriggerVelocitySpike     = "velocity_spike"
	TriggerInsiderCluster    = "insider_cluster"
	TriggerSentimentFlip     = "sentiment_flip"
	TriggerTechnicalBreakout = "technical_breakout"
	TriggerRSIOversold       = "rsi_oversold"
	TriggerGoldenCross       = "golden_cross"
	TriggerNewsBullish       = "news_sentiment_bullish"
	TriggerRedditViral       = "reddit_viral"

	TypeCombined = "combined"

	rsiOversold = 30.0
)

// NewsSentiment is the latest news read of a ticker.
type NewsSentiment struct {
	Score float64
	Label string
}

// SocialBuzz is the mention count of the community feed.
type SocialBuzz struct {
	MentionCount int
}

// TickerInput is what every trigger sees for one ticker.
type TickerInput struct {
	Ticker   string
	Velocity indicators.VelocityMetrics
	Insiders []model.InsiderTrade
	Tech     *indicators.IndicatorSet
	News     *NewsSentiment
	Social   *SocialBuzz
	Now      time.Time
}

// Trigger is one named predicate with its conviction points and rationale phrase.
type Trigger struct {
	ID     string
	Points float64
	Fires  func(th Thresholds, in TickerInput) bool
	Note   func(in TickerInput) string
}

// Triggers is the ordered rule table. Order drives both the trigger tags
// and the rationale text.
var Triggers = []Trigger{
	{
		ID:     TriggerVelocitySpike,
		Points: 30,
		Fires: func(th Thresholds, in TickerInput) bool {
			return in.Velocity.MentionVelocity24h >= th.VelocitySpike.MentionVelocity24hMin &&
				in.Velocity.CompositeScore >= th.VelocitySpike.CompositeScoreMin
		},
		Note: func(in TickerInput) string {
			return fmt.Sprintf("Mentions up %.0f%% in 24h", in.Velocity.MentionVelocity24h)
		},
	},
	{
		ID:     TriggerInsiderCluster,
		Points: 40,
		Fires:  insiderCluster,
		Note: func(in TickerInput) string {
			count := 0
			total := 0.0
			for _, tr := range in.Insiders {
				if tr.IsPurchase() {
					count++
					total += tr.Value
				}
			}
			return fmt.Sprintf("%d insiders bought $%s recently", count, utils.Thousands(total))
		},
	},
	{
		ID:     TriggerSentimentFlip,
		Points: 20,
		Fires: func(th Thresholds, in TickerInput) bool {
			v := in.Velocity.SentimentVelocity
			if v < 0 {
				v = -v
			}
			return v >= th.SentimentFlip.SentimentDeltaMin
		},
		Note: func(in TickerInput) string {
			if in.Velocity.SentimentVelocity > 0 {
				return "Sentiment flipping bullish"
			}
			return "Sentiment flipping bearish"
		},
	},
	{
		ID:     TriggerTechnicalBreakout,
		Points: 25,
		Fires: func(_ Thresholds, in TickerInput) bool {
			return in.Tech != nil && in.Tech.Breakout
		},
		Note: func(TickerInput) string { return "Technical breakout detected" },
	},
	{
		ID:     TriggerRSIOversold,
		Points: 15,
		Fires: func(_ Thresholds, in TickerInput) bool {
			return in.Tech != nil && in.Tech.RSI14 < rsiOversold
		},
		Note: func(in TickerInput) string {
			return fmt.Sprintf("RSI oversold (%.1f)", in.Tech.RSI14)
		},
	},
	{
		ID:     TriggerGoldenCross,
		Points: 20,
		Fires: func(_ Thresholds, in TickerInput) bool {
			return in.Tech != nil && in.Tech.GoldenCross
		},
		Note: func(TickerInput) string { return "Golden cross (SMA)" },
	},
	{
		ID:     TriggerNewsBullish,
		Points: 15,
		Fires: func(th Thresholds, in TickerInput) bool {
			if in.News == nil {
				return false
			}
			label := strings.ToLower(in.News.Label)
			return in.News.Score > th.News.ScoreMin ||
				strings.Contains(label, "bullish") ||
				strings.Contains(label, "positive")
		},
		Note: func(in TickerInput) string {
			return fmt.Sprintf("News bullish (%.2f)", in.News.Score)
		},
	},
	{
		ID:     TriggerRedditViral,
		Points: 10,
		Fires: func(th Thresholds, in TickerInput) bool {
			return in.Social != nil && in.Social.MentionCount >= th.Social.ViralMentions
		},
		Note: func(in TickerInput) string {
			return fmt.Sprintf("Reddit viral (%d mentions)", in.Social.MentionCount)
		},
	},
}

// insiderCluster needs enough distinct insiders buying inside the lookback
// window and a large enough combined purchase value.
func insiderCluster(th Thresholds, in TickerInput) bool {
	cfg := th.InsiderCluster
	if len(in.Insiders) == 0 {
		return false
	}
	cutoff := in.Now.AddDate(0, 0, -cfg.LookbackDays)

	names := make(map[string]struct{})
	total := 0.0
	for _, tr := range in.Insiders {
		if tr.TradeType != cfg.TradeType || tr.TradeDate.Before(cutoff) {
			continue
		}
		names[tr.InsiderName] = struct{}{}
		total += tr.Value
	}
	return len(names) >= cfg.MinInsiders && total >= cfg.MinValueTotal
}
