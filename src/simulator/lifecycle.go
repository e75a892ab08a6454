package simulator

import (
	"context"
	"fmt"
	"time"

	"sentimentvelocity/src/model"
	"sentimentvelocity/src/utils"

	"github.com/shopspring/decimal"
)

// PriceLookup resolves the price of a ticker offsetDays after date. found is
// false when no usable price exists near that day.
type PriceLookup interface {
	GetHistoricalPrice(ctx context.Context, ticker string, date time.Time, offsetDays int) (price decimal.Decimal, found bool, err error)
}

// Trade is a closed position.
type Trade struct {
	Entry
	ExitDate   time.Time
	ExitPrice  decimal.Decimal
	ExitReason string
	ProfitLoss decimal.Decimal
	ReturnPct  float64
	DaysHeld   int
}

// CheckPrice evaluates the price thresholds. The stop is checked first, so
// a price meeting both is a stop-loss.
func CheckPrice(stop, target, price decimal.Decimal) (reason string, exit bool) {
	if price.LessThanOrEqual(stop) {
		return model.ExitReasonStopLoss, true
	}
	if price.GreaterThanOrEqual(target) {
		return model.ExitReasonTakeProfit, true
	}
	return "", false
}

// CheckExit adds the time limit after the price thresholds.
func CheckExit(stop, target, price decimal.Decimal, daysHeld, holdDays int) (reason string, exit bool) {
	if reason, exit = CheckPrice(stop, target, price); exit {
		return reason, true
	}
	if daysHeld >= holdDays {
		return model.ExitReasonTimeLimit, true
	}
	return "", false
}

// Profit returns the P&L and the percent return of shares moved from entry to exit.
func Profit(entryPrice, exitPrice decimal.Decimal, shares int64) (pnl decimal.Decimal, returnPct float64) {
	pnl = exitPrice.Sub(entryPrice).Mul(decimal.NewFromInt(shares))
	if entryPrice.IsPositive() {
		returnPct = exitPrice.Sub(entryPrice).Div(entryPrice).Mul(hundred).InexactFloat64()
	}
	return pnl, returnPct
}

// Close turns an entry into a trade exiting at the given date and price.
func Close(e Entry, exitDate time.Time, exitPrice decimal.Decimal, reason string) Trade {
	pnl, ret := Profit(e.EntryPrice, exitPrice, e.Shares)
	return Trade{
		Entry:      e,
		ExitDate:   exitDate,
		ExitPrice:  exitPrice,
		ExitReason: reason,
		ProfitLoss: pnl,
		ReturnPct:  ret,
		DaysHeld:   utils.DaysBetween(e.EntryDate, exitDate),
	}
}

// Run scans day 1..holdDays after entry for a stop or target hit, then
// exits on the time limit at the horizon. ok is false when the horizon has
// no price; the trade is unresolved rather than guessed.
func Run(ctx context.Context, prices PriceLookup, e Entry, holdDays int) (Trade, bool, error) {
	for day := 1; day <= holdDays; day++ {
		price, found, err := prices.GetHistoricalPrice(ctx, e.Ticker, e.EntryDate, day)
		if err != nil {
			return Trade{}, false, fmt.Errorf("price %s day %d: %w", e.Ticker, day, err)
		}
		if !found {
			continue
		}
		if reason, exit := CheckPrice(e.StopLoss, e.TargetPrice, price); exit {
			return Close(e, e.EntryDate.AddDate(0, 0, day), price, reason), true, nil
		}
	}

	price, found, err := prices.GetHistoricalPrice(ctx, e.Ticker, e.EntryDate, holdDays)
	if err != nil {
		return Trade{}, false, fmt.Errorf("price %s day %d: %w", e.Ticker, holdDays, err)
	}
	if !found {
		return Trade{}, false, nil
	}
	return Close(e, e.EntryDate.AddDate(0, 0, holdDays), price, model.ExitReasonTimeLimit), true, nil
}
