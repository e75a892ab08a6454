package paper

import (
	"fmt"

	"sentimentvelocity/src/simulator"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type Config struct {
	Enabled          bool    `envconfig:"PAPER_ENABLED" default:"true"`
	MinConviction    float64 `envconfig:"PAPER_MIN_CONVICTION" default:"60" validate:"gte=0,lte=100"`
	PositionSize     float64 `envconfig:"PAPER_POSITION_SIZE" default:"1000" validate:"gt=0"`
	MaxOpenPositions int     `envconfig:"PAPER_MAX_OPEN_POSITIONS" default:"10" validate:"gte=1"`
	HoldDays         int     `envconfig:"PAPER_HOLD_DAYS" default:"30" validate:"gte=1"`
	StopLossPct      float64 `envconfig:"PAPER_STOP_LOSS_PCT" default:"-10" validate:"lt=0"`
	TakeProfitPct    float64 `envconfig:"PAPER_TAKE_PROFIT_PCT" default:"20" validate:"gt=0"`
	BackfillDays     int     `envconfig:"PAPER_BACKFILL_DAYS" default:"7" validate:"gte=0"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	if err := config.Validate(); err != nil {
		panic(err)
	}
	return config
}

func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		MinConviction:    60,
		PositionSize:     1000,
		MaxOpenPositions: 10,
		HoldDays:         30,
		StopLossPct:      -10,
		TakeProfitPct:    20,
		BackfillDays:     7,
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid paper config: %w", err)
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
