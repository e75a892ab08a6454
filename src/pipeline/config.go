package pipeline

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LoopPeriod        time.Duration `envconfig:"PIPELINE_LOOP_PERIOD" default:"0s"` // 0 runs once
	MinMentions       int           `envconfig:"PIPELINE_MIN_MENTIONS" default:"5"`
	TechnicalDays     int           `envconfig:"PIPELINE_TECHNICAL_DAYS" default:"90"`
	TrackedDays       int           `envconfig:"PIPELINE_TRACKED_DAYS" default:"7"`
	TopSignals        int           `envconfig:"PIPELINE_TOP_SIGNALS" default:"10"`
	SignalsConfigFile string        `envconfig:"SIGNALS_CONFIG_FILE"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

func DefaultConfig() Config {
	return Config{
		MinMentions:   5,
		TechnicalDays: 90,
		TrackedDays:   7,
		TopSignals:    10,
	}
}
