package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chasehq/geochase/internal/game"
)

type CreateSessionRequest struct {
	CaseID string             `json:"caseId"`
	Config game.SessionConfig `json:"config"`
}

type CreateSessionResponse struct {
	SessionID string        `json:"sessionId"`
	HostToken string        `json:"hostToken"`
	State     GameStateView `json:"state"`
}

func handleCreateSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.CaseID = strings.TrimSpace(req.CaseID)
		if req.CaseID == "" {
			writeError(w, http.StatusBadRequest, "caseId is required")
			return
		}

		c, err := store.GetCase(r.Context(), req.CaseID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown case")
			return
		}
		if err != nil {
			writeStoreError(w)
			return
		}

		cfg := req.Config
		if cfg.MaxRounds <= 0 || cfg.MaxRounds > c.RoundCount {
			cfg.MaxRounds = c.RoundCount
		}
		if cfg.CluesPerRound < 0 {
			cfg.CluesPerRound = 0
		}
		if cfg.RoundDurationMinutes <= 0 {
			cfg.RoundDurationMinutes = 10
		}

		rec, err := store.CreateSession(r.Context(), newID(), c.ID, newID(), cfg)
		if err != nil {
			writeStoreError(w)
			return
		}

		state, err := buildGameState(r.Context(), store, rec)
		if err != nil {
			writeStoreError(w)
			return
		}

		writeJSON(w, http.StatusCreated, CreateSessionResponse{
			SessionID: rec.ID,
			HostToken: rec.HostToken,
			State:     state,
		})
	}
}

func handleStartSession(store Store, broker *Broker, locks *sessionLocks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		unlock := locks.lock(sessionID)
		defer unlock()

		rec, ok := hostSession(w, r, store, sessionID)
		if !ok {
			return
		}

		if rec.Status != game.StatusWaiting {
			writeConflict(w, codeAlreadyStarted, "session already started",
				stateForConflict(r.Context(), store, rec))
			return
		}

		if err := store.StartSession(r.Context(), sessionID); err != nil {
			writeStoreError(w)
			return
		}
		if err := store.InitRevealMark(r.Context(), sessionID, 1); err != nil {
			writeStoreError(w)
			return
		}

		rec, err := store.GetSession(r.Context(), sessionID)
		if err != nil {
			writeStoreError(w)
			return
		}
		state, err := buildGameState(r.Context(), store, rec)
		if err != nil {
			writeStoreError(w)
			return
		}

		broker.Publish(r.Context(), sessionID, Delta{Type: DeltaGameStarted, Status: state.Status, RoundNumber: 1})
		writeJSON(w, http.StatusOK, state)
	}
}

type AdvanceRoundRequest struct {
	// Force lets the host advance with clues still unrevealed. Without it
	// the round must be fully revealed first.
	Force bool `json:"force"`
}

func handleAdvanceRound(store Store, broker *Broker, locks *sessionLocks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		var req AdvanceRoundRequest
		if r.ContentLength > 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

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

		state, completed, err := advanceOrComplete(r, store, rec, req.Force)
		if err != nil {
			var conflict *conflictError
			if errors.As(err, &conflict) {
				writeConflict(w, conflict.code, conflict.msg, stateForConflict(r.Context(), store, rec))
				return
			}
			writeStoreError(w)
			return
		}

		if completed {
			broker.Publish(r.Context(), sessionID, Delta{Type: DeltaGameCompleted, Status: state.Status})
		} else {
			broker.Publish(r.Context(), sessionID, Delta{Type: DeltaRoundAdvanced, RoundNumber: state.CurrentRound})
		}
		writeJSON(w, http.StatusOK, state)
	}
}

type conflictError struct {
	code string
	msg  string
}

func (e *conflictError) Error() string { return e.msg }

// advanceOrComplete is the round-advance arm of the flow state machine,
// shared by the host endpoint and auto-advance after a final submission.
// Caller holds the session lock and has verified the session is active.
func advanceOrComplete(r *http.Request, store Store, rec sessionRecord, force bool) (GameStateView, bool, error) {
	ctx := r.Context()

	if !force {
		c, err := store.GetCase(ctx, rec.CaseID)
		if err != nil {
			return GameStateView{}, false, err
		}
		mark, err := store.RevealMark(ctx, rec.ID, rec.CurrentRound)
		if err != nil {
			return GameStateView{}, false, err
		}
		if mark < len(roundClues(c, rec.Config, rec.CurrentRound)) {
			return GameStateView{}, false, &conflictError{codeRoundNotReady, "clues remain unrevealed"}
		}
	}

	completed := rec.CurrentRound >= rec.Config.MaxRounds
	if completed {
		if err := store.CompleteSession(ctx, rec.ID); err != nil {
			return GameStateView{}, false, err
		}
	} else {
		next := rec.CurrentRound + 1
		if err := store.AdvanceSessionRound(ctx, rec.ID, next); err != nil {
			return GameStateView{}, false, err
		}
		if err := store.InitRevealMark(ctx, rec.ID, next); err != nil {
			return GameStateView{}, false, err
		}
	}

	rec, err := store.GetSession(ctx, rec.ID)
	if err != nil {
		return GameStateView{}, false, err
	}
	state, err := buildGameState(ctx, store, rec)
	return state, completed, err
}

// handlePauseResume covers both directions: idempotent no-ops when the
// session is already in the target state.
func handlePauseResume(store Store, broker *Broker, locks *sessionLocks, target game.SessionStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		unlock := locks.lock(sessionID)
		defer unlock()

		rec, ok := hostSession(w, r, store, sessionID)
		if !ok {
			return
		}

		if rec.Status != target {
			valid := (target == game.StatusPaused && rec.Status == game.StatusActive) ||
				(target == game.StatusActive && rec.Status == game.StatusPaused)
			if !valid {
				writeConflict(w, codeSessionNotActive, "session cannot be paused or resumed from "+string(rec.Status),
					stateForConflict(r.Context(), store, rec))
				return
			}
			if err := store.SetSessionStatus(r.Context(), sessionID, target); err != nil {
				writeStoreError(w)
				return
			}
			rec.Status = target
		}

		state, err := buildGameState(r.Context(), store, rec)
		if err != nil {
			writeStoreError(w)
			return
		}

		deltaType := DeltaGamePaused
		if target == game.StatusActive {
			deltaType = DeltaGameResumed
		}
		broker.Publish(r.Context(), sessionID, Delta{Type: deltaType, Status: state.Status})
		writeJSON(w, http.StatusOK, state)
	}
}

// handleCompleteSession force-completes regardless of round and returns
// the final rankings immediately.
func handleCompleteSession(store Store, broker *Broker, locks *sessionLocks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		unlock := locks.lock(sessionID)
		defer unlock()

		rec, ok := hostSession(w, r, store, sessionID)
		if !ok {
			return
		}

		if rec.Status != game.StatusCompleted {
			if err := store.CompleteSession(r.Context(), sessionID); err != nil {
				writeStoreError(w)
				return
			}
			var err error
			rec, err = store.GetSession(r.Context(), sessionID)
			if err != nil {
				writeStoreError(w)
				return
			}
			broker.Publish(r.Context(), sessionID, Delta{Type: DeltaGameCompleted, Status: string(rec.Status)})
		}

		state, err := buildGameState(r.Context(), store, rec)
		if err != nil {
			writeStoreError(w)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// hostSession loads the session and verifies the host token, writing the
// error response itself when either fails.
func hostSession(w http.ResponseWriter, r *http.Request, store Store, sessionID string) (sessionRecord, bool) {
	rec, err := store.GetSession(r.Context(), sessionID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return rec, false
	}
	if err != nil {
		writeStoreError(w)
		return rec, false
	}
	if err := requireHost(r, rec); err != nil {
		writeError(w, http.StatusUnauthorized, "host token required")
		return rec, false
	}
	return rec, true
}
