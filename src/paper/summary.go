package paper

import (
	"context"
	"fmt"

	"sentimentvelocity/src/model"

	"github.com/shopspring/decimal"
)

// OpenPosition pairs an open position with its newest mark-to-market.
type OpenPosition struct {
	model.SimulatedPosition
	Latest *model.PositionSnapshot `json:"latest,omitempty"`
}

type ClosedStats struct {
	Count        int     `json:"count"`
	WinRate      float64 `json:"win_rate"` // percent
	AvgReturnPct float64 `json:"avg_return_pct"`
	TotalPnl     float64 `json:"total_pnl"`
	AvgDaysHeld  float64 `json:"avg_days_held"`
	BestReturn   float64 `json:"best_return"`
	WorstReturn  float64 `json:"worst_return"`
}

type OpenStats struct {
	Count         int     `json:"count"`
	TotalDeployed float64 `json:"total_deployed"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	UnrealizedPct float64 `json:"unrealized_pct"`
}

type PerformanceSummary struct {
	Closed ClosedStats `json:"closed_trades"`
	Open   OpenStats   `json:"open_positions"`
}

// GetPerformanceSummary aggregates the persisted positions. It never simulates.
func (t *Trader) GetPerformanceSummary(ctx context.Context) (PerformanceSummary, error) {
	var sum PerformanceSummary
	if !t.cfg.Enabled {
		return sum, nil
	}

	closed, err := t.positions.GetClosed(ctx)
	if err != nil {
		return sum, fmt.Errorf("load closed paper trades: %w", err)
	}
	sum.Closed = closedStats(closed)

	open, err := t.positions.GetOpen(ctx)
	if err != nil {
		return sum, fmt.Errorf("load open paper trades: %w", err)
	}
	snaps, err := t.positions.LatestSnapshots(ctx, positionIDs(open))
	if err != nil {
		return sum, fmt.Errorf("load snapshots: %w", err)
	}
	sum.Open = openStats(open, snaps)
	return sum, nil
}

func closedStats(closed []model.SimulatedPosition) ClosedStats {
	var s ClosedStats
	if len(closed) == 0 {
		return s
	}

	wins := 0
	total := decimal.Zero
	var retSum float64
	var daysSum int
	first := true
	for _, p := range closed {
		pnl := decimal.Zero
		if p.ProfitLoss != nil {
			pnl = *p.ProfitLoss
		}
		if pnl.IsPositive() {
			wins++
		}
		total = total.Add(pnl)

		var ret float64
		if p.ReturnPct != nil {
			ret = *p.ReturnPct
		}
		retSum += ret
		if first || ret > s.BestReturn {
			s.BestReturn = ret
		}
		if first || ret < s.WorstReturn {
			s.WorstReturn = ret
		}
		first = false

		if p.DaysHeld != nil {
			daysSum += *p.DaysHeld
		}
	}

	n := float64(len(closed))
	s.Count = len(closed)
	s.WinRate = float64(wins) / n * 100
	s.AvgReturnPct = retSum / n
	s.TotalPnl = total.InexactFloat64()
	s.AvgDaysHeld = float64(daysSum) / n
	return s
}

func openStats(open []model.SimulatedPosition, snaps map[uint]model.PositionSnapshot) OpenStats {
	s := OpenStats{Count: len(open)}
	deployed := decimal.Zero
	unrealized := decimal.Zero
	var pctSum float64
	for _, p := range open {
		deployed = deployed.Add(p.PositionSize)
		if snap, ok := snaps[p.ID]; ok {
			unrealized = unrealized.Add(snap.UnrealizedPnl)
			pctSum += snap.UnrealizedPct
		}
	}
	s.TotalDeployed = deployed.InexactFloat64()
	s.UnrealizedPnl = unrealized.InexactFloat64()
	if len(snaps) > 0 {
		s.UnrealizedPct = pctSum / float64(len(snaps))
	}
	return s
}
