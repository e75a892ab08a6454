package backtest

import (
	"context"
	"fmt"
	"time"

	"sentimentvelocity/src/model"
	"sentimentvelocity/src/repository"
	"sentimentvelocity/src/signals"
	"sentimentvelocity/src/simulator"
	"sentimentvelocity/src/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type SignalSource interface {
	GetSignalsInRange(ctx context.Context, from, to time.Time, minConviction float64) ([]model.Signal, error)
}

type PriceSource interface {
	simulator.PriceLookup
	GetPricesInRange(ctx context.Context, ticker string, from, to time.Time) ([]model.PriceQuote, error)
	GetTickersWithPrices(ctx context.Context, from, to time.Time) ([]string, error)
}

type RunStore interface {
	Save(ctx context.Context, run *model.BacktestRun) error
}

// Result is the outcome of one backtest invocation.
type Result struct {
	RunID          string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	MinConviction  float64
	Metrics

	BenchmarkTicker    string
	BenchmarkReturnPct float64
	Alpha              float64

	// Synthetic marks runs driven by price-derived signals instead of stored pipeline output.
	Synthetic bool

	// SignalsSkipped counts capacity skips, unsizeable entries and trades without an exit price.
	SignalsTotal   int
	SignalsSkipped int
	Trades         []simulator.Trade
}

func (r *Result) ToModel(report string) *model.BacktestRun {
	return &model.BacktestRun{
		ID:              r.RunID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		InitialCapital:  r.InitialCapital,
		MinConviction:   r.MinConviction,
		TotalTrades:     r.TotalTrades,
		WinningTrades:   r.WinningTrades,
		LosingTrades:    r.LosingTrades,
		WinRate:         r.WinRate,
		TotalPnl:        r.TotalPnl,
		TotalReturnPct:  r.TotalReturnPct,
		MaxDrawdownPct:  r.MaxDrawdownPct,
		SharpeRatio:     r.SharpeRatio,
		BenchmarkReturn: r.BenchmarkReturnPct,
		Alpha:           r.Alpha,
		Synthetic:       r.Synthetic,
		Report:          report,
	}
}

type Backtester struct {
	cfg     Config
	signals SignalSource
	prices  PriceSource
	runs    RunStore
	log     *logrus.Entry
}

func NewBacktester(cfg Config, source SignalSource, prices PriceSource, log *logrus.Entry) *Backtester {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Backtester{
		cfg:     cfg,
		signals: source,
		prices:  prices,
		log:     log.WithField("component", "backtest"),
	}
}

// WithRunStore persists every completed run with its report.
func (b *Backtester) WithRunStore(runs RunStore) *Backtester {
	b.runs = runs
	return b
}

func (b *Backtester) Config() Config {
	return b.cfg
}

// Run replays the signals of [start, end] through the simulator. Signals
// arriving while MaxPositions trades are open are skipped, not queued.
func (b *Backtester) Run(ctx context.Context, start, end time.Time) (*Result, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, repository.ErrInvalidRange
	}

	res := &Result{
		RunID:           uuid.NewString(),
		StartDate:       start,
		EndDate:         end,
		InitialCapital:  b.cfg.InitialCapital,
		MinConviction:   b.cfg.MinConviction,
		BenchmarkTicker: b.cfg.BenchmarkTicker,
	}
	log := b.log.WithField("run_id", res.RunID)
	log.WithFields(logrus.Fields{
		"start": start.Format(time.DateOnly),
		"end":   end.Format(time.DateOnly),
	}).Info("Running backtest")

	rows, err := b.signals.GetSignalsInRange(ctx, start, end, b.cfg.MinConviction)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}
	sigs := make([]signals.Signal, 0, len(rows))
	for _, row := range rows {
		sigs = append(sigs, signals.FromModel(row))
	}

	if len(sigs) == 0 && b.cfg.FallbackEnabled {
		log.Warn("No stored signals in range, synthesizing from price history")
		sigs, err = b.Synthesize(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("synthesize signals: %w", err)
		}
		res.Synthetic = len(sigs) > 0
	}
	res.SignalsTotal = len(sigs)

	if len(sigs) == 0 {
		log.Warn("No signals found in backtest period")
		return b.finish(ctx, res)
	}

	trades, skipped, err := b.simulate(ctx, sigs, end)
	if err != nil {
		return nil, err
	}
	res.Trades = trades
	res.SignalsSkipped = skipped
	if len(trades) == 0 {
		log.Warn("No trades could be executed")
		return b.finish(ctx, res)
	}

	res.Metrics = ComputeMetrics(b.cfg.InitialCapital, trades)
	res.BenchmarkReturnPct, err = b.benchmarkReturn(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", b.cfg.BenchmarkTicker, err)
	}
	res.Alpha = res.TotalReturnPct - res.BenchmarkReturnPct

	log.WithFields(logrus.Fields{
		"trades":       res.TotalTrades,
		"win_rate":     fmt.Sprintf("%.1f", res.WinRate),
		"total_return": fmt.Sprintf("%.2f", res.TotalReturnPct),
		"synthetic":    res.Synthetic,
	}).Info("Backtest complete")
	return b.finish(ctx, res)
}

func (b *Backtester) simulate(ctx context.Context, sigs []signals.Signal, end time.Time) ([]simulator.Trade, int, error) {
	cfg := b.cfg.Simulator()
	trades := make([]simulator.Trade, 0, len(sigs))
	open, skipped := 0, 0
	seen := make(map[string]struct{}, len(sigs))

	for _, sig := range sigs {
		// at most one position per ticker and entry day
		key := sig.Ticker + "|" + utils.DayStart(sig.CreatedAt).Format(time.DateOnly)
		if _, dup := seen[key]; dup {
			skipped++
			continue
		}
		if open >= b.cfg.MaxPositions {
			skipped++
			continue
		}

		entry, ok := simulator.Open(cfg, sig.Ticker, sig.CreatedAt, decimal.NewFromFloat(sig.Price),
			b.cfg.sizingConviction(sig.Conviction), sig.Triggers)
		if !ok {
			skipped++
			continue
		}
		entry.Conviction = sig.Conviction

		trade, ok, err := simulator.Run(ctx, b.prices, entry, cfg.HoldDays)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			skipped++
			continue
		}
		seen[key] = struct{}{}
		trades = append(trades, trade)
		open++
		// simulation is synchronous, so a trade that exits inside the range is already closed
		if !trade.ExitDate.After(end) {
			open--
		}
	}
	return trades, skipped, nil
}

// benchmarkReturn is the buy-and-hold change between the first and last
// positive benchmark price of the range.
func (b *Backtester) benchmarkReturn(ctx context.Context, start, end time.Time) (float64, error) {
	quotes, err := b.prices.GetPricesInRange(ctx, b.cfg.BenchmarkTicker,
		utils.DayStart(start), utils.DayStart(end).AddDate(0, 0, 1))
	if err != nil {
		return 0, err
	}

	var first, last decimal.Decimal
	for _, q := range quotes {
		if !q.Price.IsPositive() {
			continue
		}
		if first.IsZero() {
			first = q.Price
		}
		last = q.Price
	}
	if first.IsZero() {
		return 0, nil
	}
	return last.Sub(first).Div(first).Mul(decimal.NewFromInt(100)).InexactFloat64(), nil
}

func (b *Backtester) finish(ctx context.Context, res *Result) (*Result, error) {
	if b.runs == nil {
		return res, nil
	}
	if err := b.runs.Save(ctx, res.ToModel(GenerateReport(res))); err != nil {
		return nil, fmt.Errorf("save backtest run: %w", err)
	}
	return res, nil
}
