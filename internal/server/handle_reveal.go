package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chasehq/geochase/internal/game"
)

type RevealResponse struct {
	Clue           ClueView `json:"clue"`
	RevealedCount  int      `json:"revealedCount"`
	RemainingClues int      `json:"remainingClues"`
}

// handleRevealClue advances the round's reveal high-water mark by one and
// returns the newly revealed clue. The mark update is compare-and-set, so
// a retried call cannot reveal the same position twice.
func handleRevealClue(store Store, broker *Broker, locks *sessionLocks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		unlock := locks.lock(sessionID)
		defer unlock()

		rec, ok := hostSession(w, r, store, sessionID)
		if !ok {
			return
		}

		if rec.Status != game.StatusActive {
			writeConflict(w, codeSessionNotActive, "session is not active",
				stateForConflict(r.Context(), store, rec))
			return
		}

		c, err := store.GetCase(r.Context(), rec.CaseID)
		if err != nil {
			writeStoreError(w)
			return
		}

		clues := roundClues(c, rec.Config, rec.CurrentRound)
		mark, err := store.RevealMark(r.Context(), sessionID, rec.CurrentRound)
		if err != nil {
			writeStoreError(w)
			return
		}

		if mark >= len(clues) {
			writeConflict(w, codeRoundComplete, "all clues for this round are revealed",
				stateForConflict(r.Context(), store, rec))
			return
		}

		next := clues[mark]
		err = store.AdvanceRevealMark(r.Context(), sessionID, rec.CurrentRound, mark)
		if errors.Is(err, ErrMarkMoved) {
			// Another call won the race between our read and the CAS.
			writeConflict(w, codeRoundComplete, "reveal already in progress, refetch state",
				stateForConflict(r.Context(), store, rec))
			return
		}
		if err != nil {
			writeStoreError(w)
			return
		}

		ledgerErr := store.AppendScoreEvent(r.Context(), game.ScoreEvent{
			SessionID:   sessionID,
			RoundNumber: rec.CurrentRound,
			Type:        game.EventClueRevealed,
			Points:      0,
			Description: "clue revealed",
			Metadata: map[string]string{
				"clueId":   next.ID,
				"clueType": string(next.Type),
			},
		})
		if ledgerErr != nil {
			writeStoreError(w)
			return
		}

		broker.Publish(r.Context(), sessionID, Delta{
			Type:        DeltaClueRevealed,
			RoundNumber: rec.CurrentRound,
			ClueID:      next.ID,
		})

		writeJSON(w, http.StatusOK, RevealResponse{
			Clue: ClueView{
				ID:          next.ID,
				RoundNumber: next.RoundNumber,
				RevealOrder: next.RevealOrder,
				Type:        string(next.Type),
				PointsValue: next.PointsValue,
				Content:     next.Content,
			},
			RevealedCount:  mark + 1,
			RemainingClues: len(clues) - mark - 1,
		})
	}
}
