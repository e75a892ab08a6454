package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"sentimentvelocity/src/database"
	"sentimentvelocity/src/handler"
	"sentimentvelocity/src/metrics"
	"sentimentvelocity/src/paper"
	"sentimentvelocity/src/repository"
	"sentimentvelocity/src/server"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	logger "github.com/sirupsen/logrus"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		logger.SetFormatter(&logger.JSONFormatter{})
		return
	}
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	// a missing .env is fine, the environment wins anyway
	_ = godotenv.Load()
	SetupLogger()
	defer handlePanic()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize read-only database
	if err := database.InitReadOnlyDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	metrics.New(prometheus.DefaultRegisterer)

	trader := paper.NewTrader(
		paper.GetConfig(),
		repository.NewPositionReadRepository(),
		repository.NewSignalReadRepository(),
		repository.NewPriceRepositoryWithDB(database.ReadOnlyDB),
		logger.WithField("app", APP_NAME),
	)

	router := server.NewRouter(server.API{
		Signals:      handler.DefaultRecentSignalsHandler(),
		PaperSummary: handler.PaperSummaryHandler(trader),
		PaperOpen:    handler.OpenPositionsHandler(trader),
		PaperCloses:  handler.RecentClosesHandler(trader),
	}, nil)

	server.StartServer(server.GetConfig().Port, router)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
