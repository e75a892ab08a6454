package signals

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type VelocitySpikeThresholds struct {
	MentionVelocity24hMin float64 `yaml:"mention_vel_24h_min" validate:"gte=0"`
	CompositeScoreMin     float64 `yaml:"composite_score_min" validate:"gte=0,lte=100"`
}

type InsiderClusterThresholds struct {
	MinInsiders   int     `yaml:"min_insiders" validate:"gte=1"`
	LookbackDays  int     `yaml:"lookback_days" validate:"gte=1"`
	MinValueTotal float64 `yaml:"min_value_total" validate:"gte=0"`
	TradeType     string  `yaml:"trade_type" validate:"required"`
}

type SentimentFlipThresholds struct {
	SentimentDeltaMin float64 `yaml:"sentiment_delta_min" validate:"gt=0"`
}

type NewsThresholds struct {
	ScoreMin float64 `yaml:"score_min"`
}

type SocialThresholds struct {
	ViralMentions int `yaml:"viral_mentions" validate:"gte=1"`
}

// Thresholds parameterise the trigger predicates. Point values are fixed.
type Thresholds struct {
	VelocitySpike  VelocitySpikeThresholds  `yaml:"velocity_spike"`
	InsiderCluster InsiderClusterThresholds `yaml:"insider_cluster"`
	SentimentFlip  SentimentFlipThresholds  `yaml:"sentiment_flip"`
	News           NewsThresholds           `yaml:"news"`
	Social         SocialThresholds         `yaml:"social"`
	ReportFloor    float64                  `yaml:"report_floor" validate:"gte=0,lte=100"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		VelocitySpike: VelocitySpikeThresholds{
			MentionVelocity24hMin: 100,
			CompositeScoreMin:     60,
		},
		InsiderCluster: InsiderClusterThresholds{
			MinInsiders:   2,
			LookbackDays:  14,
			MinValueTotal: 100000,
			TradeType:     "P",
		},
		SentimentFlip: SentimentFlipThresholds{SentimentDeltaMin: 0.3},
		News:          NewsThresholds{ScoreMin: 0.15},
		Social:        SocialThresholds{ViralMentions: 10},
		ReportFloor:   40,
	}
}

var validate = validator.New()

func (t Thresholds) Validate() error {
	return validate.Struct(t)
}

// LoadThresholds layers a YAML file over the defaults. An empty path returns the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	if path == "" {
		return t, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("parse thresholds: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("validate thresholds: %w", err)
	}
	return t, nil
}
