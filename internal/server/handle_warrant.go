package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chasehq/geochase/internal/game"
)

type WarrantRequest struct {
	LocationID string `json:"locationId"`
	Reasoning  string `json:"reasoning,omitempty"`
}

type WarrantResult struct {
	SubmissionID  string  `json:"submissionId"`
	RoundNumber   int     `json:"roundNumber"`
	IsCorrect     bool    `json:"isCorrect"`
	PointsAwarded int     `json:"pointsAwarded"`
	DistanceKm    float64 `json:"distanceKm"`
	Category      string  `json:"category"`
	Feedback      string  `json:"feedback"`
}

// handleSubmitWarrant is the single authority converting a team's guess
// into a scored, persisted outcome. The submission and its ledger events
// commit atomically; only the first submission per (team, round) counts.
func handleSubmitWarrant(store Store, broker *Broker, locks *sessionLocks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		var req WarrantRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.LocationID = strings.TrimSpace(req.LocationID)
		if req.LocationID == "" {
			writeError(w, http.StatusBadRequest, "locationId is required")
			return
		}

		team, err := teamFromRequest(r, store, sessionID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing team token")
			return
		}

		unlock := locks.lock(sessionID)
		defer unlock()

		rec, err := store.GetSession(r.Context(), sessionID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeStoreError(w)
			return
		}

		if rec.Status != game.StatusActive {
			writeConflict(w, codeSessionNotActive, "session is not active",
				stateForConflict(r.Context(), store, rec))
			return
		}

		// Guessing requires at least one revealed clue this round.
		mark, err := store.RevealMark(r.Context(), sessionID, rec.CurrentRound)
		if err != nil {
			writeStoreError(w)
			return
		}
		if mark == 0 {
			writeConflict(w, codeRoundNotReady, "no clue revealed yet this round",
				stateForConflict(r.Context(), store, rec))
			return
		}

		if _, err := store.SubmissionFor(r.Context(), sessionID, team.ID, rec.CurrentRound); err == nil {
			writeConflict(w, codeDuplicateSubmission, "team already submitted this round",
				stateForConflict(r.Context(), store, rec))
			return
		} else if !errors.Is(err, ErrNotFound) {
			writeStoreError(w)
			return
		}

		guessed, err := store.GetLocation(r.Context(), req.LocationID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown location")
			return
		}
		if err != nil {
			writeStoreError(w)
			return
		}

		c, err := store.GetCase(r.Context(), rec.CaseID)
		if err != nil {
			// Missing case is a data integrity failure for this call only;
			// the session stays in its prior valid state.
			writeStoreError(w)
			return
		}
		target, err := store.GetLocation(r.Context(), c.TargetLocationID)
		if err != nil {
			writeStoreError(w)
			return
		}

		var elapsed time.Duration
		if rec.RoundStartedAt != nil {
			elapsed = time.Since(*rec.RoundStartedAt)
		}

		breakdown := game.ScoreWarrant(game.WarrantInput{
			RoundNumber:   rec.CurrentRound,
			Difficulty:    c.DifficultyLevel,
			Guessed:       guessed,
			Target:        target,
			Reasoning:     req.Reasoning,
			Elapsed:       elapsed,
			RoundDuration: time.Duration(rec.Config.RoundDurationMinutes) * time.Minute,
		})

		sub := game.WarrantSubmission{
			ID:                newID(),
			SessionID:         sessionID,
			TeamID:            team.ID,
			RoundNumber:       rec.CurrentRound,
			GuessedLocationID: guessed.ID,
			Reasoning:         req.Reasoning,
			DistanceKm:        breakdown.DistanceKm,
			IsCorrect:         breakdown.IsCorrect,
			PointsAwarded:     breakdown.Total,
			ElapsedSeconds:    elapsed.Seconds(),
		}

		sub, err = store.RecordWarrant(r.Context(), sub, ledgerEvents(sub, breakdown))
		if errors.Is(err, ErrDuplicateSubmission) {
			writeConflict(w, codeDuplicateSubmission, "team already submitted this round",
				stateForConflict(r.Context(), store, rec))
			return
		}
		if err != nil {
			writeStoreError(w)
			return
		}

		broker.Publish(r.Context(), sessionID, Delta{
			Type:        DeltaWarrantResult,
			RoundNumber: rec.CurrentRound,
			TeamID:      team.ID,
			TeamName:    team.Name,
			Category:    breakdown.Category,
			Points:      breakdown.Total,
		})

		// Revealed clues feed the advisory feedback text; they never touch
		// the score.
		revealed := roundClues(c, rec.Config, rec.CurrentRound)
		if mark < len(revealed) {
			revealed = revealed[:mark]
		}

		result := WarrantResult{
			SubmissionID:  sub.ID,
			RoundNumber:   sub.RoundNumber,
			IsCorrect:     sub.IsCorrect,
			PointsAwarded: sub.PointsAwarded,
			DistanceKm:    sub.DistanceKm,
			Category:      breakdown.Category,
			Feedback:      game.Feedback(breakdown, guessed, target, revealed),
		}

		maybeAutoAdvance(r, store, broker, rec)

		writeJSON(w, http.StatusOK, result)
	}
}

// ledgerEvents expands a scored warrant into its ledger entries. Their
// points always sum to the submission's PointsAwarded.
func ledgerEvents(sub game.WarrantSubmission, b game.Breakdown) []game.ScoreEvent {
	guessType := game.EventIncorrectGuess
	desc := "incorrect warrant"
	if b.IsCorrect {
		guessType = game.EventCorrectGuess
		desc = "correct warrant"
	}

	events := []game.ScoreEvent{{
		SessionID:   sub.SessionID,
		TeamID:      sub.TeamID,
		RoundNumber: sub.RoundNumber,
		Type:        guessType,
		Points:      b.GuessPoints,
		Description: desc,
		Metadata: map[string]string{
			"submissionId": sub.ID,
			"category":     b.Category,
		},
	}}

	bonus := func(t game.EventType, points int, desc string) {
		if points == 0 {
			return
		}
		events = append(events, game.ScoreEvent{
			SessionID:   sub.SessionID,
			TeamID:      sub.TeamID,
			RoundNumber: sub.RoundNumber,
			Type:        t,
			Points:      points,
			Description: desc,
			Metadata:    map[string]string{"submissionId": sub.ID},
		})
	}
	bonus(game.EventTimeBonus, b.TimeBonusPts, "fast response bonus")
	bonus(game.EventReasoningBonus, b.ReasoningBonus, "detailed reasoning bonus")
	bonus(game.EventCountryBonus, b.CountryBonus, "right country bonus")

	return events
}

// maybeAutoAdvance moves to the next round (or completes the game) when
// auto-advance is on, every clue is revealed and every team has submitted.
// Best effort: a failure here never fails the submission that triggered it.
func maybeAutoAdvance(r *http.Request, store Store, broker *Broker, rec sessionRecord) {
	if !rec.Config.AutoAdvance {
		return
	}
	ctx := r.Context()

	teams, err := store.ListTeams(ctx, rec.ID)
	if err != nil || len(teams) == 0 {
		return
	}
	submissions, err := store.CountSubmissions(ctx, rec.ID, rec.CurrentRound)
	if err != nil || submissions < len(teams) {
		return
	}

	state, completed, err := advanceOrComplete(r, store, rec, false)
	if err != nil {
		return
	}
	if completed {
		broker.Publish(ctx, rec.ID, Delta{Type: DeltaGameCompleted, Status: state.Status})
	} else {
		broker.Publish(ctx, rec.ID, Delta{Type: DeltaRoundAdvanced, RoundNumber: state.CurrentRound})
	}
}
