package simulator

import (
	"time"

	"github.com/shopspring/decimal"
)

// ----- config -----

type Config struct {
	BasePositionSize decimal.Decimal
	StopLossPct      float64 // conventionally negative
	TakeProfitPct    float64
	HoldDays         int
}

// DefaultConfig is the -10% / +20% / 30 day setup used by both orchestrators.
func DefaultConfig() Config {
	return Config{
		BasePositionSize: decimal.NewFromInt(1000),
		StopLossPct:      -10,
		TakeProfitPct:    20,
		HoldDays:         30,
	}
}

var (
	fifty   = decimal.NewFromInt(50)
	hundred = decimal.NewFromInt(100)
)

// ----- sizing -----

// SizeMultiplier maps conviction linearly: 50 -> 1x, 100 -> 2x. Values
// outside [50, 100] extrapolate and may reach zero or below.
func SizeMultiplier(conviction float64) decimal.Decimal {
	c := decimal.NewFromFloat(conviction)
	return decimal.NewFromInt(1).Add(c.Sub(fifty).Div(fifty))
}

// SizeDollars is the conviction-scaled dollar amount for a base size.
func SizeDollars(base decimal.Decimal, conviction float64) decimal.Decimal {
	return base.Mul(SizeMultiplier(conviction))
}

// Shares is floor(dollars / price). ok is false for a non-positive price,
// a non-positive dollar size or zero whole shares.
func Shares(dollars, entryPrice decimal.Decimal) (shares int64, ok bool) {
	if !entryPrice.IsPositive() || !dollars.IsPositive() {
		return 0, false
	}
	n := dollars.Div(entryPrice).Floor().IntPart()
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// ExitLevels returns the stop and target prices for an entry.
func ExitLevels(entryPrice decimal.Decimal, stopLossPct, takeProfitPct float64) (stop, target decimal.Decimal) {
	stop = entryPrice.Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(stopLossPct).Div(hundred)))
	target = entryPrice.Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(takeProfitPct).Div(hundred)))
	return stop, target
}

// ----- entry -----

// Entry is a sized position that has not exited yet.
type Entry struct {
	Ticker       string
	EntryDate    time.Time
	EntryPrice   decimal.Decimal
	Shares       int64
	PositionSize decimal.Decimal // shares * entry price
	Conviction   float64
	Triggers     []string
	StopLoss     decimal.Decimal
	TargetPrice  decimal.Decimal
}

// Open sizes a position for a signal. ok is false when the economics do not
// allow a trade; that is a normal outcome, not an error.
func Open(
	cfg Config,
	ticker string,
	entryDate time.Time,
	entryPrice decimal.Decimal,
	conviction float64,
	triggers []string,
) (Entry, bool) {
	shares, ok := Shares(SizeDollars(cfg.BasePositionSize, conviction), entryPrice)
	if !ok {
		return Entry{}, false
	}

	stop, target := ExitLevels(entryPrice, cfg.StopLossPct, cfg.TakeProfitPct)
	return Entry{
		Ticker:       ticker,
		EntryDate:    entryDate,
		EntryPrice:   entryPrice,
		Shares:       shares,
		PositionSize: entryPrice.Mul(decimal.NewFromInt(shares)),
		Conviction:   conviction,
		Triggers:     triggers,
		StopLoss:     stop,
		TargetPrice:  target,
	}, true
}
