package handler

import (
	"context"
	"net/http"

	"sentimentvelocity/src/model"
	"sentimentvelocity/src/paper"

	logger "github.com/sirupsen/logrus"
)

const (
	defaultCloseDays  = 7
	defaultCloseLimit = 10
)

type paperReader interface {
	GetPerformanceSummary(ctx context.Context) (paper.PerformanceSummary, error)
	GetOpenPositions(ctx context.Context) ([]paper.OpenPosition, error)
	GetRecentCloses(ctx context.Context, days, limit int) ([]model.SimulatedPosition, error)
}

func PaperSummaryHandler(trader paperReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := trader.GetPerformanceSummary(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to build paper summary")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, "PaperSummary", summary)
	}
}

func OpenPositionsHandler(trader paperReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		open, err := trader.GetOpenPositions(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to load open paper positions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if open == nil {
			open = []paper.OpenPosition{}
		}
		writeJSON(w, "OpenPositions", open)
	}
}

// RecentClosesHandler lists positions closed in the last ?days (default 7),
// newest first, at most ?limit (default 10).
func RecentClosesHandler(trader paperReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, ok := positiveIntParam(r, "days", defaultCloseDays)
		if !ok {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}
		limit, ok := positiveIntParam(r, "limit", defaultCloseLimit)
		if !ok {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		closes, err := trader.GetRecentCloses(r.Context(), days, limit)
		if err != nil {
			logger.WithError(err).Error("failed to load recent paper closes")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if closes == nil {
			closes = []model.SimulatedPosition{}
		}
		writeJSON(w, "RecentCloses", closes)
	}
}
