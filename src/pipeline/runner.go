package pipeline

import (
	"context"
	"fmt"
	"time"

	"sentimentvelocity/src/indicators"
	"sentimentvelocity/src/model"
	"sentimentvelocity/src/paper"
	"sentimentvelocity/src/signals"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	StageBackfill  = "paper_backfill"
	StageCollect   = "collect"
	StagePaperMark = "paper_update"
	StageVelocity  = "velocity"
	StageTechnical = "technical"
	StageInsiders  = "insiders"
	StageInputs    = "signal_inputs"
	StageSignals   = "signals"
	StagePaper     = "paper_trades"
	StageSummary   = "paper_summary"

	StatusOK      = "ok"
	StatusPartial = "partial"

	socialWindow = 24 * time.Hour
)

type MentionStore interface {
	indicators.MentionReader
	InsertMentions(ctx context.Context, mentions []model.Mention) error
	GetLatestMentionsBySource(ctx context.Context, source string, since time.Time) (map[string]model.Mention, error)
}

type PriceStore interface {
	indicators.PriceReader
	UpsertQuotes(ctx context.Context, quotes []model.PriceQuote) error
	GetLatestPrices(ctx context.Context) (map[string]model.PriceQuote, error)
}

type InsiderSource interface {
	GetRecentInsiderTrades(ctx context.Context, since time.Time) (map[string][]model.InsiderTrade, error)
}

type VelocityStore interface {
	InsertVelocity(ctx context.Context, metrics []model.VelocityMetric) error
}

type SignalStore interface {
	InsertSignals(ctx context.Context, signals []model.Signal) error
}

type ExceptionStore interface {
	Record(ctx context.Context, stage, runID string, err error) error
}

type MentionCollector interface {
	Collect(ctx context.Context) ([]model.Mention, error)
}

type QuoteCollector interface {
	CollectQuotes(ctx context.Context, tickers []string) ([]model.PriceQuote, error)
}

// Recorder receives run level metrics. metrics.Recorder satisfies it.
type Recorder interface {
	RecordRun(status string)
	RecordStageError(stage string)
	ObserveStage(stage string, d time.Duration)
	RecordSignal(signalType string)
	SetOpenPositions(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(string)                   {}
func (nopRecorder) RecordStageError(string)            {}
func (nopRecorder) ObserveStage(string, time.Duration) {}
func (nopRecorder) RecordSignal(string)                {}
func (nopRecorder) SetOpenPositions(int)               {}

// Deps are the collaborators of a run. The collectors and Metrics are optional.
type Deps struct {
	Mentions   MentionStore
	Prices     PriceStore
	Insiders   InsiderSource
	Velocity   VelocityStore
	Signals    SignalStore
	Exceptions ExceptionStore
	Paper      *paper.Trader

	MentionFeed MentionCollector
	QuoteFeed   QuoteCollector
	Metrics     Recorder
}

// Report summarises one run.
type Report struct {
	RunID        string
	Status       string
	StageErrors  int
	Backfilled   int
	Collected    int
	Marked       paper.UpdateResult
	Velocity     map[string]indicators.VelocityMetrics
	Technical    int
	Signals      []signals.Signal
	PaperCreated int
	Summary      *paper.PerformanceSummary
	StartedAt    time.Time
	FinishedAt   time.Time
}

type Runner struct {
	cfg        Config
	deps       Deps
	thresholds signals.Thresholds
	log        *logrus.Entry
	now        func() time.Time
}

func NewRunner(cfg Config, deps Deps, th signals.Thresholds, log *logrus.Entry) *Runner {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	return &Runner{
		cfg:        cfg,
		deps:       deps,
		thresholds: th,
		log:        log.WithField("component", "pipeline"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// run carries the state of one pipeline invocation.
type run struct {
	*Runner
	ctx    context.Context
	report *Report
	log    *logrus.Entry
	now    time.Time
}

// stage times fn and records its error as an exception. The run continues.
func (x *run) stage(name string, fn func() error) bool {
	start := time.Now()
	err := fn()
	x.deps.Metrics.ObserveStage(name, time.Since(start))
	if err == nil {
		return true
	}

	x.report.StageErrors++
	x.deps.Metrics.RecordStageError(name)
	x.log.WithField("stage", name).WithError(err).Error("Pipeline stage failed")
	if x.deps.Exceptions != nil {
		if recErr := x.deps.Exceptions.Record(x.ctx, name, x.report.RunID, err); recErr != nil {
			x.log.WithError(recErr).Error("Failed to record stage exception")
		}
	}
	return false
}

// Run executes one full pass: backfill, collection, paper update, velocity,
// technical analysis, fusion, storage and paper entries. Stage failures are
// recorded and the run continues with what it has; only a cancelled context
// is returned as an error.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	now := r.now()
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Velocity:  map[string]indicators.VelocityMetrics{},
	}
	x := &run{
		Runner: r,
		ctx:    ctx,
		report: report,
		log:    r.log.WithField("run_id", report.RunID),
		now:    now,
	}
	x.log.Info("Pipeline run started")

	if r.deps.Paper != nil {
		x.stage(StageBackfill, x.backfill)
	}
	if r.deps.MentionFeed != nil || r.deps.QuoteFeed != nil {
		x.stage(StageCollect, x.collect)
	}
	if r.deps.Paper != nil {
		x.stage(StagePaperMark, x.markPositions)
	}
	x.stage(StageVelocity, x.velocity)

	in := signals.Inputs{Velocity: report.Velocity}
	x.stage(StageTechnical, func() error { return x.technical(&in) })
	x.stage(StageInsiders, func() error { return x.insiders(&in) })
	x.stage(StageInputs, func() error { return x.marketInputs(&in) })

	var stored []model.Signal
	x.stage(StageSignals, func() (err error) {
		stored, err = x.fuse(in)
		return err
	})
	if r.deps.Paper != nil && len(stored) > 0 {
		x.stage(StagePaper, func() error { return x.paperTrades(stored, in.Prices) })
	}
	if r.deps.Paper != nil {
		x.stage(StageSummary, x.summary)
	}

	report.FinishedAt = r.now()
	report.Status = StatusOK
	if report.StageErrors > 0 {
		report.Status = StatusPartial
	}
	r.deps.Metrics.RecordRun(report.Status)
	x.log.WithFields(logrus.Fields{
		"status":       report.Status,
		"stage_errors": report.StageErrors,
		"tickers":      len(report.Velocity),
		"signals":      len(report.Signals),
		"paper_trades": report.PaperCreated,
	}).Info("Pipeline run finished")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (x *run) backfill() error {
	n, err := x.deps.Paper.BackfillFromSignals(x.ctx, x.deps.Paper.Config().BackfillDays)
	x.report.Backfilled = n
	return err
}

func (x *run) collect() error {
	if x.deps.MentionFeed != nil {
		mentions, err := x.deps.MentionFeed.Collect(x.ctx)
		if err != nil {
			return fmt.Errorf("mentions: %w", err)
		}
		if err := x.deps.Mentions.InsertMentions(x.ctx, mentions); err != nil {
			return fmt.Errorf("store mentions: %w", err)
		}
		x.report.Collected += len(mentions)
	}

	if x.deps.QuoteFeed != nil {
		tickers, err := x.deps.Mentions.GetTrackedTickers(x.ctx, x.now.AddDate(0, 0, -x.cfg.TrackedDays))
		if err != nil {
			return fmt.Errorf("tracked tickers: %w", err)
		}
		quotes, qErr := x.deps.QuoteFeed.CollectQuotes(x.ctx, tickers)
		// partial quote sets are still stored
		if err := x.deps.Prices.UpsertQuotes(x.ctx, quotes); err != nil {
			return fmt.Errorf("store quotes: %w", err)
		}
		x.report.Collected += len(quotes)
		if qErr != nil {
			return fmt.Errorf("quotes: %w", qErr)
		}
	}
	return nil
}

func (x *run) markPositions() error {
	latest, err := x.deps.Prices.GetLatestPrices(x.ctx)
	if err != nil {
		return err
	}
	prices := make(map[string]decimal.Decimal, len(latest))
	for ticker, q := range latest {
		prices[ticker] = q.Price
	}
	res, err := x.deps.Paper.UpdatePositions(x.ctx, prices, x.now)
	x.report.Marked = res
	return err
}

func (x *run) velocity() error {
	calc := indicators.NewVelocityCalculator(x.deps.Mentions, x.deps.Prices, x.log).
		WithClock(func() time.Time { return x.now })
	metrics, calcErr := calc.CalculateAll(x.ctx, x.cfg.MinMentions)
	for ticker, m := range metrics {
		x.report.Velocity[ticker] = m
	}
	if len(metrics) > 0 {
		if err := x.deps.Velocity.InsertVelocity(x.ctx, indicators.ToModels(x.report.RunID, metrics, x.now)); err != nil {
			return fmt.Errorf("store velocity: %w", err)
		}
	}
	return calcErr
}

func (x *run) technical(in *signals.Inputs) error {
	in.Technical = make(map[string]*indicators.IndicatorSet, len(in.Velocity))
	since := x.now.AddDate(0, 0, -x.cfg.TechnicalDays)
	for _, ticker := range indicators.SortedTickers(in.Velocity) {
		quotes, err := x.deps.Prices.GetPriceHistory(x.ctx, ticker, since)
		if err != nil {
			return fmt.Errorf("price history %s: %w", ticker, err)
		}
		if set := indicators.Analyze(ticker, indicators.BarsFromQuotes(quotes)); set != nil {
			in.Technical[ticker] = set
		}
	}
	x.report.Technical = len(in.Technical)
	return nil
}

func (x *run) insiders(in *signals.Inputs) error {
	since := x.now.AddDate(0, 0, -x.thresholds.InsiderCluster.LookbackDays)
	trades, err := x.deps.Insiders.GetRecentInsiderTrades(x.ctx, since)
	if err != nil {
		return err
	}
	in.Insiders = trades
	return nil
}

// marketInputs loads prices and news from the latest quotes and social buzz
// from the community feed of the last day.
func (x *run) marketInputs(in *signals.Inputs) error {
	latest, err := x.deps.Prices.GetLatestPrices(x.ctx)
	if err != nil {
		return fmt.Errorf("latest prices: %w", err)
	}
	in.Prices = make(map[string]float64, len(latest))
	in.News = make(map[string]signals.NewsSentiment)
	for ticker, q := range latest {
		in.Prices[ticker] = q.Price.InexactFloat64()
		if q.NewsSentiment != nil {
			in.News[ticker] = signals.NewsSentiment{Score: *q.NewsSentiment, Label: q.SentimentLabel()}
		}
	}

	social, err := x.deps.Mentions.GetLatestMentionsBySource(x.ctx, model.MentionSourceReddit, x.now.Add(-socialWindow))
	if err != nil {
		return fmt.Errorf("social mentions: %w", err)
	}
	in.Social = make(map[string]signals.SocialBuzz, len(social))
	for ticker, m := range social {
		in.Social[ticker] = signals.SocialBuzz{MentionCount: m.Mentions}
	}
	return nil
}

func (x *run) fuse(in signals.Inputs) ([]model.Signal, error) {
	gen := signals.NewGenerator(x.thresholds, x.log).WithClock(func() time.Time { return x.now })
	out := gen.Generate(in)
	x.report.Signals = out
	if len(out) == 0 {
		return nil, nil
	}

	rows := make([]model.Signal, 0, len(out))
	for _, s := range out {
		rows = append(rows, s.ToModel(x.report.RunID))
	}
	if err := x.deps.Signals.InsertSignals(x.ctx, rows); err != nil {
		return nil, err
	}
	for _, s := range out {
		x.deps.Metrics.RecordSignal(s.Type)
	}

	for i, s := range signals.TopN(out, x.cfg.TopSignals) {
		x.log.WithFields(logrus.Fields{
			"rank":       i + 1,
			"ticker":     s.Ticker,
			"type":       s.Type,
			"conviction": fmt.Sprintf("%.1f", s.Conviction),
		}).Info(s.Notes)
	}
	return rows, nil
}

func (x *run) paperTrades(rows []model.Signal, prices map[string]float64) error {
	for _, row := range rows {
		price, ok := prices[row.Ticker]
		if !ok || price <= 0 {
			continue
		}
		_, created, err := x.deps.Paper.CreateFromSignal(x.ctx, row, x.now, decimal.NewFromFloat(price))
		if err != nil {
			return err
		}
		if created {
			x.report.PaperCreated++
		}
	}
	return nil
}

func (x *run) summary() error {
	s, err := x.deps.Paper.GetPerformanceSummary(x.ctx)
	if err != nil {
		return err
	}
	x.report.Summary = &s
	x.deps.Metrics.SetOpenPositions(s.Open.Count)
	x.log.WithFields(logrus.Fields{
		"closed":     s.Closed.Count,
		"win_rate":   fmt.Sprintf("%.1f", s.Closed.WinRate),
		"total_pnl":  fmt.Sprintf("%.2f", s.Closed.TotalPnl),
		"open":       s.Open.Count,
		"unrealized": fmt.Sprintf("%.2f", s.Open.UnrealizedPnl),
	}).Info("Paper trading performance")
	return nil
}

// Loop runs immediately and then every period until ctx is done. A
// non-positive period runs once.
func (r *Runner) Loop(ctx context.Context, period time.Duration) error {
	if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	if period <= 0 {
		return nil
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("loop stopped")
			return nil
		case <-ticker.C:
			r.log.Info("loop tick")
			if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
		}
	}
}
