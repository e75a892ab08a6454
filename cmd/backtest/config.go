package backtest

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Days is the lookback used when no --start is given.
	Days int  `envconfig:"BACKTEST_DAYS" default:"90"`
	Save bool `envconfig:"BACKTEST_SAVE" default:"true"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
