package pipeline

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sentimentvelocity/src/collectors"
	"sentimentvelocity/src/database"
	"sentimentvelocity/src/metrics"
	"sentimentvelocity/src/paper"
	pipe "sentimentvelocity/src/pipeline"
	"sentimentvelocity/src/repository"
	"sentimentvelocity/src/server"
	"sentimentvelocity/src/signals"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Pipeline struct {
	Log *logrus.Entry
}

func (p *Pipeline) Start() error {
	config := GetConfig()
	runCfg := pipe.GetConfig()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if p.Log == nil {
		p.Log = logrus.WithField("cmd", "pipeline")
	}

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		p.Log.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	th, err := signals.LoadThresholds(runCfg.SignalsConfigFile)
	if err != nil {
		p.Log.WithError(err).Error("Failed to load signal thresholds")
		return err
	}

	recorder := metrics.New(prometheus.DefaultRegisterer)
	runner := pipe.NewRunner(runCfg, Wire(database.MainDB, collectors.GetConfig(), paper.GetConfig(), recorder, p.Log), th, p.Log)

	g, gctx := errgroup.WithContext(ctx)
	if config.MetricsPort != "" && runCfg.LoopPeriod > 0 {
		g.Go(func() error {
			return server.Serve(gctx, ":"+config.MetricsPort, server.NewRouter(server.API{}, nil))
		})
	}
	g.Go(func() error {
		defer stop()
		return runner.Loop(gctx, runCfg.LoopPeriod)
	})

	if err := g.Wait(); err != nil {
		p.Log.WithError(err).Error("Pipeline failed")
		return err
	}
	return nil
}

// Wire builds the runner collaborators over db. Collectors are only attached
// when COLLECT_ENABLED is set.
func Wire(db *gorm.DB, collect collectors.Config, paperCfg paper.Config, recorder *metrics.Recorder, log *logrus.Entry) pipe.Deps {
	prices := repository.NewPriceRepositoryWithDB(db)
	sigs := repository.NewSignalRepositoryWithDB(db)

	trader := paper.NewTrader(paperCfg, repository.NewPositionRepositoryWithDB(db), sigs, prices, log).
		WithRecorder(recorder)

	deps := pipe.Deps{
		Mentions:   repository.NewMentionRepositoryWithDB(db),
		Prices:     prices,
		Insiders:   repository.NewInsiderRepositoryWithDB(db),
		Velocity:   repository.NewVelocityRepositoryWithDB(db),
		Signals:    sigs,
		Exceptions: repository.NewExceptionRepositoryWithDB(db),
		Paper:      trader,
		Metrics:    recorder,
	}

	if collect.Enabled {
		deps.MentionFeed = collectors.NewApeWisdomClient(collect, collectors.NewRateLimiter(0), log).
			WithRecorder(recorder)
		deps.QuoteFeed = collectors.NewFinnhubClient(collect, collectors.NewRateLimiter(collect.FinnhubPerMinute), log).
			WithRecorder(recorder)
	}
	return deps
}
