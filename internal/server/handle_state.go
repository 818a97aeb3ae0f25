package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleGameState is the pure read every client resyncs from. The round
// state is derived from the session row, the reveal mark and the ledger on
// every call; nothing is cached in between.
func handleGameState(store Store) http.HandlerFunc {
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

		state, err := buildGameState(r.Context(), store, rec)
		if err != nil {
			writeStoreError(w)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

type CaseItem struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	VillainID       string `json:"villainId"`
	DifficultyLevel int    `json:"difficultyLevel"`
	RoundCount      int    `json:"roundCount"`
}

// handleListCases exposes the case catalog for the host console to pick
// from. Target locations and clue contents stay server-side.
func handleListCases(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cases, err := store.ListCases(r.Context())
		if err != nil {
			writeStoreError(w)
			return
		}

		items := make([]CaseItem, 0, len(cases))
		for _, c := range cases {
			items = append(items, CaseItem{
				ID:              c.ID,
				Title:           c.Title,
				VillainID:       c.VillainID,
				DifficultyLevel: c.DifficultyLevel,
				RoundCount:      c.RoundCount,
			})
		}
		writeJSON(w, http.StatusOK, items)
	}
}
