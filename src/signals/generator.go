package signals

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"sentimentvelocity/src/indicators"
	"sentimentvelocity/src/model"

	"github.com/sirupsen/logrus"
)

const (
	technicalWeight  = 0.2
	compositeWeight  = 0.3
	combinationBonus = 15.0
	notesSeparator   = " | "
)

// Signal is a conviction-scored opportunity. It is never changed after Generate.
type Signal struct {
	Ticker     string
	Type       string
	Conviction float64
	Price      float64
	Triggers   []string
	Notes      string
	Synthetic  bool
	CreatedAt  time.Time
}

func (s Signal) ToModel(runID string) model.Signal {
	return model.Signal{
		RunID:           runID,
		Ticker:          s.Ticker,
		SignalType:      s.Type,
		ConvictionScore: s.Conviction,
		PriceAtSignal:   s.Price,
		Triggers:        model.JoinTriggers(s.Triggers),
		Notes:           s.Notes,
		Synthetic:       s.Synthetic,
		CreatedAt:       s.CreatedAt.UTC(),
	}
}

func FromModel(m model.Signal) Signal {
	return Signal{
		Ticker:     m.Ticker,
		Type:       m.SignalType,
		Conviction: m.ConvictionScore,
		Price:      m.PriceAtSignal,
		Triggers:   m.TriggerList(),
		Notes:      m.Notes,
		Synthetic:  m.Synthetic,
		CreatedAt:  m.CreatedAt,
	}
}

// Inputs is everything the generator fuses, keyed by ticker. Only tickers
// present in Velocity are considered; every other map is optional.
type Inputs struct {
	Velocity  map[string]indicators.VelocityMetrics
	Insiders  map[string][]model.InsiderTrade
	Prices    map[string]float64
	Technical map[string]*indicators.IndicatorSet
	News      map[string]NewsSentiment
	Social    map[string]SocialBuzz
}

type Generator struct {
	thresholds Thresholds
	triggers   []Trigger
	log        *logrus.Entry
	now        func() time.Time
}

func NewGenerator(th Thresholds, log *logrus.Entry) *Generator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Generator{
		thresholds: th,
		triggers:   Triggers,
		log:        log.WithField("component", "signals"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate evaluates the trigger table per ticker and returns the emitted
// signals sorted by conviction, highest first. Equal convictions keep
// ascending ticker order.
func (g *Generator) Generate(in Inputs) []Signal {
	now := g.now()
	out := make([]Signal, 0)

	for _, ticker := range indicators.SortedTickers(in.Velocity) {
		ti := TickerInput{
			Ticker:   ticker,
			Velocity: in.Velocity[ticker],
			Insiders: in.Insiders[ticker],
			Tech:     in.Technical[ticker],
			Now:      now,
		}
		if n, ok := in.News[ticker]; ok {
			ti.News = &n
		}
		if s, ok := in.Social[ticker]; ok {
			ti.Social = &s
		}

		sig, ok := g.evaluate(ti)
		if !ok {
			continue
		}
		sig.Price = in.Prices[ticker]
		sig.CreatedAt = now
		out = append(out, sig)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Conviction > out[j].Conviction
	})

	g.log.WithFields(map[string]interface{}{
		"tickers": len(in.Velocity),
		"signals": len(out),
	}).Info("Generated signals")
	return out
}

func (g *Generator) evaluate(ti TickerInput) (Signal, bool) {
	var fired []string
	var notes []string
	conviction := 0.0

	for _, tr := range g.triggers {
		if !tr.Fires(g.thresholds, ti) {
			continue
		}
		fired = append(fired, tr.ID)
		notes = append(notes, tr.Note(ti))
		conviction += tr.Points
	}

	if ti.Tech != nil {
		conviction += ti.Tech.TechnicalScore * technicalWeight
	}
	if len(fired) >= 2 {
		conviction += combinationBonus
	}
	conviction += ti.Velocity.CompositeScore * compositeWeight
	conviction = math.Max(0, math.Min(100, conviction))

	if len(fired) == 0 || conviction < g.thresholds.ReportFloor {
		return Signal{}, false
	}

	notes = append(notes, fmt.Sprintf("Composite: %.0f", ti.Velocity.CompositeScore))
	typ := fired[0]
	if len(fired) > 1 {
		typ = TypeCombined
	}

	return Signal{
		Ticker:     ti.Ticker,
		Type:       typ,
		Conviction: conviction,
		Triggers:   fired,
		Notes:      strings.Join(notes, notesSeparator),
	}, true
}

// FilterByConviction keeps signals at or above minConviction, preserving order.
func FilterByConviction(signals []Signal, minConviction float64) []Signal {
	out := make([]Signal, 0, len(signals))
	for _, s := range signals {
		if s.Conviction >= minConviction {
			out = append(out, s)
		}
	}
	return out
}

// TopN returns the first n signals of an already sorted slice.
func TopN(signals []Signal, n int) []Signal {
	if n < 0 {
		n = 0
	}
	if n > len(signals) {
		n = len(signals)
	}
	return signals[:n]
}

// GroupByType partitions signals by type, keeping relative order inside each group.
func GroupByType(signals []Signal) map[string][]Signal {
	out := make(map[string][]Signal)
	for _, s := range signals {
		out[s.Type] = append(out[s.Type], s)
	}
	return out
}
