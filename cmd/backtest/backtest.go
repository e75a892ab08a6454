package backtest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	engine "sentimentvelocity/src/backtest"
	"sentimentvelocity/src/repository"
	"sentimentvelocity/src/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Backtest replays stored signals over a date range and writes the text
// report to Out and, when set, to OutputPath.
type Backtest struct {
	Log        *logrus.Entry
	DB         *gorm.DB
	Config     *Config
	Settings   engine.Config
	Out        io.Writer
	OutputPath string
	now        func() time.Time
}

// Range resolves the CLI dates. Empty end means today, empty start means
// Days before end.
func (b *Backtest) Range(startStr, endStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	if b.now != nil {
		now = b.now()
	}

	end := utils.DayStart(now)
	if endStr != "" {
		t, err := time.Parse(time.DateOnly, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: %w", endStr, err)
		}
		end = t
	}

	start := end.AddDate(0, 0, -b.Config.Days)
	if startStr != "" {
		t, err := time.Parse(time.DateOnly, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q: %w", startStr, err)
		}
		start = t
	}
	return start, end, nil
}

func (b *Backtest) Start(ctx context.Context, start, end time.Time) (*engine.Result, error) {
	if b.Log == nil {
		b.Log = logrus.WithField("cmd", "backtest")
	}
	if b.Out == nil {
		b.Out = os.Stdout
	}

	prices := repository.NewPriceRepositoryWithDB(b.DB)
	bt := engine.NewBacktester(b.Settings, repository.NewSignalRepositoryWithDB(b.DB), prices, b.Log)
	if b.Config.Save {
		bt = bt.WithRunStore(repository.NewBacktestRunRepositoryWithDB(b.DB))
	}

	res, err := bt.Run(ctx, start, end)
	if err != nil {
		b.Log.WithError(err).Error("Backtest failed")
		return nil, err
	}

	report := engine.GenerateReport(res)
	if _, err := fmt.Fprintln(b.Out, report); err != nil {
		return res, err
	}
	if b.OutputPath != "" {
		if err := os.WriteFile(b.OutputPath, []byte(report), 0o644); err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
		b.Log.WithField("path", b.OutputPath).Info("Report saved")
	}
	return res, nil
}
