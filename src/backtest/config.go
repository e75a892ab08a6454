package backtest

import (
	"fmt"

	"sentimentvelocity/src/simulator"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type Config struct {
	InitialCapital     float64 `envconfig:"BACKTEST_INITIAL_CAPITAL" default:"10000" validate:"gt=0"`
	PositionSize       float64 `envconfig:"BACKTEST_POSITION_SIZE" default:"1000" validate:"gt=0"`
	MaxPositions       int     `envconfig:"BACKTEST_MAX_POSITIONS" default:"10" validate:"gte=1"`
	StopLossPct        float64 `envconfig:"BACKTEST_STOP_LOSS_PCT" default:"-10" validate:"lt=0"`
	TakeProfitPct      float64 `envconfig:"BACKTEST_TAKE_PROFIT_PCT" default:"20" validate:"gt=0"`
	HoldDays           int     `envconfig:"BACKTEST_HOLD_DAYS" default:"30" validate:"gte=1"`
	MinConviction      float64 `envconfig:"BACKTEST_MIN_CONVICTION" default:"60" validate:"gte=0,lte=100"`
	ConvictionWeighted bool    `envconfig:"BACKTEST_CONVICTION_WEIGHTED" default:"true"`
	BenchmarkTicker    string  `envconfig:"BACKTEST_BENCHMARK" default:"SPY" validate:"required"`
	FallbackEnabled    bool    `envconfig:"BACKTEST_FALLBACK_ENABLED" default:"true"`
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
		InitialCapital:     10000,
		PositionSize:       1000,
		MaxPositions:       10,
		StopLossPct:        -10,
		TakeProfitPct:      20,
		HoldDays:           30,
		MinConviction:      60,
		ConvictionWeighted: true,
		BenchmarkTicker:    "SPY",
		FallbackEnabled:    true,
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid backtest config: %w", err)
	}
	return nil
}

func (c Config) Simulator() simulator.Config {
	return simulator.Config{
		BasePositionSize: decimal.NewFromFloat(c.PositionSize),
		StopLossPct:      c.StopLossPct,
		TakeProfitPct:    c.TakeProfitPct,
		HoldDays:         c.HoldDays,
	}
}

// sizingConviction is the conviction fed to the position sizer. Flat sizing
// uses 50, the 1x point of the multiplier.
func (c Config) sizingConviction(conviction float64) float64 {
	if c.ConvictionWeighted {
		return conviction
	}
	return 50
}
