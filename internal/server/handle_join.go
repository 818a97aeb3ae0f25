package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chasehq/geochase/internal/game"
)

type JoinRequest struct {
	TeamName string `json:"teamName"`
}

type JoinResponse struct {
	TeamID    string `json:"teamId"`
	TeamToken string `json:"teamToken"`
	TeamName  string `json:"teamName"`
	SessionID string `json:"sessionId"`
	CaseTitle string `json:"caseTitle"`
}

func handleJoin(store Store, broker *Broker, locks *sessionLocks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.TeamName = strings.TrimSpace(req.TeamName)
		if req.TeamName == "" {
			writeError(w, http.StatusBadRequest, "teamName is required")
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

		if rec.Status == game.StatusCompleted {
			writeConflict(w, codeSessionNotActive, "session is completed",
				stateForConflict(r.Context(), store, rec))
			return
		}

		c, err := store.GetCase(r.Context(), rec.CaseID)
		if err != nil {
			writeStoreError(w)
			return
		}

		team, err := store.CreateTeam(r.Context(), newID(), sessionID, req.TeamName, newID())
		if err != nil {
			writeStoreError(w)
			return
		}

		broker.Publish(r.Context(), sessionID, Delta{
			Type:     DeltaTeamJoined,
			TeamID:   team.ID,
			TeamName: team.Name,
		})

		writeJSON(w, http.StatusOK, JoinResponse{
			TeamID:    team.ID,
			TeamToken: team.JoinToken,
			TeamName:  team.Name,
			SessionID: sessionID,
			CaseTitle: c.Title,
		})
	}
}

type TeamItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	JoinedAt  string `json:"joinedAt"`
	TeamToken string `json:"teamToken,omitempty"`
}

// handleListTeams returns the session's teams. Tokens are included only
// for the host, who hands them out to reconnecting teams.
func handleListTeams(store Store) http.HandlerFunc {
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

		isHost := requireHost(r, rec) == nil

		teams, err := store.ListTeams(r.Context(), sessionID)
		if err != nil {
			writeStoreError(w)
			return
		}

		items := make([]TeamItem, 0, len(teams))
		for _, t := range teams {
			item := TeamItem{
				ID:       t.ID,
				Name:     t.Name,
				JoinedAt: t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			}
			if isHost {
				item.TeamToken = t.JoinToken
			}
			items = append(items, item)
		}
		writeJSON(w, http.StatusOK, items)
	}
}
