package paper

import (
	"context"
	"fmt"
	"time"

	"sentimentvelocity/src/model"
	"sentimentvelocity/src/repository"
	"sentimentvelocity/src/simulator"
	"sentimentvelocity/src/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultRecentCloses = 10

type PositionStore interface {
	CreateIfAbsent(ctx context.Context, pos *model.SimulatedPosition, maxOpen int) (repository.CreateOutcome, error)
	GetOpen(ctx context.Context) ([]model.SimulatedPosition, error)
	GetClosed(ctx context.Context) ([]model.SimulatedPosition, error)
	GetRecentCloses(ctx context.Context, since time.Time, limit int) ([]model.SimulatedPosition, error)
	Close(ctx context.Context, id uint, exit repository.ExitFields) (bool, error)
	UpsertSnapshot(ctx context.Context, snap *model.PositionSnapshot) error
	LatestSnapshots(ctx context.Context, positionIDs []uint) (map[uint]model.PositionSnapshot, error)
}

type SignalSource interface {
	GetSignalsInRange(ctx context.Context, from, to time.Time, minConviction float64) ([]model.Signal, error)
}

type QuoteSource interface {
	GetPricesInRange(ctx context.Context, ticker string, from, to time.Time) ([]model.PriceQuote, error)
}

// Recorder receives paper trading counters. metrics.Recorder satisfies it.
type Recorder interface {
	RecordPaperTrade(outcome string)
	RecordPaperClose(reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordPaperTrade(string) {}
func (nopRecorder) RecordPaperClose(string) {}

// Trader runs the simulator against the once-per-run price snapshot and
// keeps the positions in the store.
type Trader struct {
	cfg       Config
	positions PositionStore
	signals   SignalSource
	quotes    QuoteSource
	metrics   Recorder
	log       *logrus.Entry
	now       func() time.Time
}

func NewTrader(cfg Config, positions PositionStore, signals SignalSource, quotes QuoteSource, log *logrus.Entry) *Trader {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Trader{
		cfg:       cfg,
		positions: positions,
		signals:   signals,
		quotes:    quotes,
		metrics:   nopRecorder{},
		log:       log.WithField("component", "paper"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (t *Trader) WithClock(now func() time.Time) *Trader {
	t.now = now
	return t
}

func (t *Trader) WithRecorder(r Recorder) *Trader {
	if r != nil {
		t.metrics = r
	}
	return t
}

func (t *Trader) Config() Config { return t.cfg }

// CreateFromSignal opens a paper position for the signal on entryDate's day.
// It reports created=false, without error, when the signal is below the
// conviction floor, the trade economics fail, the position already exists
// or too many positions are open.
func (t *Trader) CreateFromSignal(
	ctx context.Context,
	sig model.Signal,
	entryDate time.Time,
	entryPrice decimal.Decimal,
) (id uint, created bool, err error) {
	if !t.cfg.Enabled {
		return 0, false, nil
	}

	log := t.log.WithFields(map[string]interface{}{
		"ticker":     sig.Ticker,
		"conviction": sig.ConvictionScore,
	})

	if sig.ConvictionScore < t.cfg.MinConviction {
		log.Debug("Signal below paper conviction floor")
		return 0, false, nil
	}

	day := utils.DayStart(entryDate)
	entry, ok := simulator.Open(t.cfg.Simulator(), sig.Ticker, day, entryPrice, sig.ConvictionScore, sig.TriggerList())
	if !ok {
		log.WithField("price", entryPrice.String()).Info("No paper trade: invalid entry economics")
		t.metrics.RecordPaperTrade("no_trade")
		return 0, false, nil
	}

	pos := model.SimulatedPosition{
		Ticker:       entry.Ticker,
		EntryDate:    entry.EntryDate,
		EntryPrice:   entry.EntryPrice,
		Shares:       entry.Shares,
		PositionSize: entry.PositionSize,
		Conviction:   entry.Conviction,
		Triggers:     sig.Triggers,
		StopLoss:     entry.StopLoss,
		TargetPrice:  entry.TargetPrice,
		Status:       model.PositionStatusOpen,
	}
	if sig.ID != 0 {
		signalID := sig.ID
		pos.SignalID = &signalID
	}

	outcome, err := t.positions.CreateIfAbsent(ctx, &pos, t.cfg.MaxOpenPositions)
	if err != nil {
		return 0, false, fmt.Errorf("create paper trade %s: %w", sig.Ticker, err)
	}
	t.metrics.RecordPaperTrade(string(outcome))

	switch outcome {
	case repository.CreateOutcomeDuplicate:
		log.WithField("entry_date", day.Format(time.DateOnly)).Debug("Paper trade already exists, skipping")
		return 0, false, nil
	case repository.CreateOutcomeAtCapacity:
		log.WithField("max_open", t.cfg.MaxOpenPositions).Warn("Max open paper positions reached, skipping")
		return 0, false, nil
	}

	log.WithFields(map[string]interface{}{
		"shares":   pos.Shares,
		"price":    pos.EntryPrice.StringFixed(2),
		"position": pos.PositionSize.StringFixed(2),
	}).Info("Created paper trade")
	return pos.ID, true, nil
}

type UpdateResult struct {
	Marked int
	Closed int
}

// UpdatePositions marks every open position that has a current price and
// closes it on stop, target or time limit, checked in that order.
func (t *Trader) UpdatePositions(ctx context.Context, prices map[string]decimal.Decimal, asOf time.Time) (UpdateResult, error) {
	var res UpdateResult
	if !t.cfg.Enabled {
		return res, nil
	}

	open, err := t.positions.GetOpen(ctx)
	if err != nil {
		return res, fmt.Errorf("load open paper trades: %w", err)
	}

	asOf = asOf.UTC()
	for _, p := range open {
		price, ok := prices[p.Ticker]
		if !ok || !price.IsPositive() {
			continue
		}

		days := utils.DaysBetween(p.EntryDate, asOf)
		pnl, pct := simulator.Profit(p.EntryPrice, price, p.Shares)

		if err := t.positions.UpsertSnapshot(ctx, &model.PositionSnapshot{
			PositionID:    p.ID,
			SnapshotDate:  utils.DayStart(asOf),
			CurrentPrice:  price,
			UnrealizedPnl: pnl,
			UnrealizedPct: pct,
			DaysHeld:      days,
		}); err != nil {
			return res, fmt.Errorf("snapshot paper trade %d: %w", p.ID, err)
		}
		res.Marked++

		reason, exit := simulator.CheckExit(p.StopLoss, p.TargetPrice, price, days, t.cfg.HoldDays)
		if !exit {
			continue
		}

		closed, err := t.positions.Close(ctx, p.ID, repository.ExitFields{
			ExitDate:   asOf,
			ExitPrice:  price,
			ExitReason: reason,
			ProfitLoss: pnl,
			ReturnPct:  pct,
			DaysHeld:   days,
		})
		if err != nil {
			return res, fmt.Errorf("close paper trade %d: %w", p.ID, err)
		}
		if !closed {
			continue
		}
		res.Closed++
		t.metrics.RecordPaperClose(reason)

		t.log.WithFields(map[string]interface{}{
			"ticker":     p.Ticker,
			"reason":     reason,
			"pnl":        pnl.StringFixed(2),
			"return_pct": fmt.Sprintf("%+.1f", pct),
			"days_held":  days,
		}).Info("Closed paper trade")
	}
	return res, nil
}

// BackfillFromSignals replays stored signals of the last lookbackDays through
// CreateFromSignal, oldest first. Already materialised trades are skipped, so
// running it every time is safe.
func (t *Trader) BackfillFromSignals(ctx context.Context, lookbackDays int) (created int, err error) {
	if !t.cfg.Enabled {
		return 0, nil
	}

	now := t.now()
	sigs, err := t.signals.GetSignalsInRange(ctx, now.AddDate(0, 0, -lookbackDays), now, t.cfg.MinConviction)
	if err != nil {
		return 0, fmt.Errorf("load signals for backfill: %w", err)
	}

	skipped := 0
	for _, s := range sigs {
		day := utils.DayStart(s.CreatedAt)
		price, ok, err := t.entryPrice(ctx, s.Ticker, day)
		if err != nil {
			return created, err
		}
		if !ok {
			t.log.WithFields(map[string]interface{}{
				"ticker": s.Ticker,
				"day":    day.Format(time.DateOnly),
			}).Warn("No historical price for signal, skipping")
			skipped++
			continue
		}

		_, ok, err = t.CreateFromSignal(ctx, s, day, price)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		} else {
			skipped++
		}
	}

	t.log.WithFields(map[string]interface{}{
		"created": created,
		"skipped": skipped,
	}).Info("Backfill complete")
	return created, nil
}

// entryPrice is the first positive quote of the day.
func (t *Trader) entryPrice(ctx context.Context, ticker string, day time.Time) (decimal.Decimal, bool, error) {
	quotes, err := t.quotes.GetPricesInRange(ctx, ticker, day, day.AddDate(0, 0, 1))
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("entry price %s: %w", ticker, err)
	}
	for _, q := range quotes {
		if q.Price.IsPositive() {
			return q.Price, true, nil
		}
	}
	return decimal.Zero, false, nil
}

// GetOpenPositions returns the open positions with their latest snapshot, if any.
func (t *Trader) GetOpenPositions(ctx context.Context) ([]OpenPosition, error) {
	if !t.cfg.Enabled {
		return nil, nil
	}
	open, err := t.positions.GetOpen(ctx)
	if err != nil {
		return nil, err
	}
	snaps, err := t.positions.LatestSnapshots(ctx, positionIDs(open))
	if err != nil {
		return nil, err
	}

	out := make([]OpenPosition, 0, len(open))
	for _, p := range open {
		op := OpenPosition{SimulatedPosition: p}
		if s, ok := snaps[p.ID]; ok {
			snap := s
			op.Latest = &snap
		}
		out = append(out, op)
	}
	return out, nil
}

// GetRecentCloses returns positions closed in the last days, newest first.
func (t *Trader) GetRecentCloses(ctx context.Context, days, limit int) ([]model.SimulatedPosition, error) {
	if !t.cfg.Enabled {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultRecentCloses
	}
	return t.positions.GetRecentCloses(ctx, t.now().AddDate(0, 0, -days), limit)
}

func positionIDs(ps []model.SimulatedPosition) []uint {
	ids := make([]uint, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}
