package handler

import (
	"context"
	"net/http"

	"sentimentvelocity/src/model"
	"sentimentvelocity/src/repository"

	logger "github.com/sirupsen/logrus"
)

const (
	defaultSignalLimit = 20
	maxSignalLimit     = 500
)

type signalLister interface {
	GetRecent(ctx context.Context, limit int) ([]model.Signal, error)
}

type signalView struct {
	model.Signal
	TriggerList []string `json:"trigger_list"`
}

// RecentSignalsHandler lists the newest stored signals. ?limit caps the
// result (default 20, max 500).
func RecentSignalsHandler(repo signalLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := positiveIntParam(r, "limit", defaultSignalLimit)
		if !ok {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if limit > maxSignalLimit {
			limit = maxSignalLimit
		}

		rows, err := repo.GetRecent(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("failed to load recent signals")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		out := make([]signalView, 0, len(rows))
		for _, s := range rows {
			triggers := s.TriggerList()
			if triggers == nil {
				triggers = []string{}
			}
			out = append(out, signalView{Signal: s, TriggerList: triggers})
		}
		writeJSON(w, "RecentSignals", out)
	}
}

// DefaultRecentSignalsHandler wires the handler to the read-only repository.
func DefaultRecentSignalsHandler() http.HandlerFunc {
	return RecentSignalsHandler(repository.NewSignalReadRepository())
}
