package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"sentimentvelocity/cmd/backtest"
	"sentimentvelocity/cmd/importprices"
	"sentimentvelocity/cmd/pipeline"
	engine "sentimentvelocity/src/backtest"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/paper"
	"sentimentvelocity/src/repository"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	_ = godotenv.Load()
	setupLogger()

	app := cli.NewApp()
	app.Name = "sentiment"
	app.Usage = "Sentiment velocity signals, paper trading and backtests"
	app.Version = Version

	app.Commands = []cli.Command{
		pipelineCMD,
		backtestCMD,
		paperCMD,
		importPricesCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger() {
	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

var (
	pipelineCMD = cli.Command{
		Name:        "pipeline",
		Usage:       "run the daily pipeline",
		Action:      pipelineAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run collection, velocity, technicals, signal fusion and paper trading. PIPELINE_LOOP_PERIOD > 0 keeps running.`,
	}
	backtestCMD = cli.Command{
		Name:      "backtest",
		Usage:     "backtest stored signals",
		Action:    backtestAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "start", Usage: "first day, YYYY-MM-DD (default BACKTEST_DAYS before end)"},
			cli.StringFlag{Name: "end", Usage: "last day, YYYY-MM-DD (default today)"},
			cli.StringFlag{Name: "output", Usage: "also write the report to this file"},
		},
		Description: `Replay stored signals through the trade simulator and print the report`,
	}
	paperCMD = cli.Command{
		Name:      "paper",
		Usage:     "show paper trading performance",
		Action:    paperAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.IntFlag{Name: "backfill", Usage: "first replay signals of the last N days"},
			cli.IntFlag{Name: "days", Value: 7, Usage: "recent closes window"},
		},
		Description: `Print the paper trading summary, open positions and recent closes`,
	}
	importPricesCMD = cli.Command{
		Name:        "import_prices",
		Usage:       "import daily crypto prices",
		Action:      importPricesAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Load Binance daily klines for IMPORT_SYMBOLS into price_quotes`,
	}
)

func pipelineAction(_ *cli.Context) error {
	logrus.Info("Starting pipeline CMD")

	p := &pipeline.Pipeline{Log: logrus.WithField("cmd", "pipeline")}
	if err := p.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}
	return nil
}

func backtestAction(c *cli.Context) error {
	logrus.Info("Starting backtest CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	b := &backtest.Backtest{
		Log:        logrus.WithField("cmd", "backtest"),
		DB:         database.MainDB,
		Config:     backtest.GetConfig(),
		Settings:   engine.GetConfig(),
		OutputPath: c.String("output"),
	}
	start, end, err := b.Range(c.String("start"), c.String("end"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if _, err := b.Start(ctx, start, end); err != nil {
		logrus.WithError(err).Error("Backtest cmd")
		return err
	}
	return nil
}

func paperAction(c *cli.Context) error {
	logrus.Info("Starting paper CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	ctx := context.Background()
	prices := repository.NewPriceRepository()
	trader := paper.NewTrader(paper.GetConfig(), repository.NewPositionRepository(), repository.NewSignalRepository(), prices,
		logrus.WithField("cmd", "paper"))

	if days := c.Int("backfill"); days > 0 {
		if _, err := trader.BackfillFromSignals(ctx, days); err != nil {
			return err
		}
	}

	summary, err := trader.GetPerformanceSummary(ctx)
	if err != nil {
		return err
	}
	open, err := trader.GetOpenPositions(ctx)
	if err != nil {
		return err
	}
	closes, err := trader.GetRecentCloses(ctx, c.Int("days"), 0)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "CLOSED\t%d\twin rate %.1f%%\tP&L $%.2f\tavg %.2f%%\n",
		summary.Closed.Count, summary.Closed.WinRate, summary.Closed.TotalPnl, summary.Closed.AvgReturnPct)
	_, _ = fmt.Fprintf(w, "OPEN\t%d\tdeployed $%.2f\tunrealized $%.2f\t%.2f%%\n",
		summary.Open.Count, summary.Open.TotalDeployed, summary.Open.UnrealizedPnl, summary.Open.UnrealizedPct)
	_, _ = fmt.Fprintln(w)
	for _, p := range open {
		line := fmt.Sprintf("  %s\t%s\t%d sh @ %s\tstop %s\ttarget %s",
			p.Ticker, p.EntryDate.Format(time.DateOnly), p.Shares, p.EntryPrice.StringFixed(2),
			p.StopLoss.StringFixed(2), p.TargetPrice.StringFixed(2))
		if p.Latest != nil {
			line += fmt.Sprintf("\tnow %s (%+.1f%%)", p.Latest.CurrentPrice.StringFixed(2), p.Latest.UnrealizedPct)
		}
		_, _ = fmt.Fprintln(w, line)
	}
	for _, p := range closes {
		days := 0
		if p.DaysHeld != nil {
			days = *p.DaysHeld
		}
		_, _ = fmt.Fprintf(w, "  closed %s\t%s\t%d days\n", p.Ticker, p.ExitReason, days)
	}
	return w.Flush()
}

func importPricesAction(_ *cli.Context) error {
	logrus.Info("Starting import prices CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	imp := &importprices.PriceImporter{
		Log: logrus.WithField("cmd", "import_prices"),
		DB:  database.MainDB,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := imp.Start(ctx); err != nil {
		logrus.WithError(err).Error("Starting import prices cmd")
		return err
	}
	return nil
}
