package server

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type AnalyticsSummary struct {
	SessionID            string         `json:"sessionId"`
	Status               string         `json:"status"`
	DurationSecs         int            `json:"durationSecs"`
	CluesRevealed        int            `json:"cluesRevealed"`
	CorrectSubmissions   int            `json:"correctSubmissions"`
	IncorrectSubmissions int            `json:"incorrectSubmissions"`
	AvgResponseSecs      float64        `json:"avgResponseSecs"`
	RevealsByClueType    map[string]int `json:"revealsByClueType"`
	BonusCounts          map[string]int `json:"bonusCounts"`
}

// handleAnalytics is a read-only aggregation over the ledger, the reveal
// marks and the submissions. A fresh or sparsely played session reports
// zeros; it never errors on missing data.
func handleAnalytics(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		rec, err := store.GetSession(r.Context(), sessionID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeStoreError(w)
			return
		}

		data, err := store.AnalyticsData(r.Context(), sessionID)
		if err != nil {
			writeStoreError(w)
			return
		}

		summary := AnalyticsSummary{
			SessionID:            sessionID,
			Status:               string(rec.Status),
			CluesRevealed:        data.CluesRevealed,
			CorrectSubmissions:   data.CorrectSubmissions,
			IncorrectSubmissions: data.IncorrectSubmissions,
			RevealsByClueType:    data.RevealsByType,
			BonusCounts:          data.BonusEvents,
		}

		if rec.StartedAt != nil {
			end := time.Now()
			if rec.CompletedAt != nil {
				end = *rec.CompletedAt
			}
			summary.DurationSecs = int(end.Sub(*rec.StartedAt).Seconds())
		}
		if data.SubmissionCount > 0 {
			avg := data.TotalResponseSecs / float64(data.SubmissionCount)
			summary.AvgResponseSecs = math.Round(avg*10) / 10
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
