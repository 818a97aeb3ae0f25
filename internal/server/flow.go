package server

import (
	"context"
	"time"

	"github.com/chasehq/geochase/internal/game"
)

// ClueView is a revealed clue as shown to players.
type ClueView struct {
	ID          string `json:"id"`
	RoundNumber int    `json:"roundNumber"`
	RevealOrder int    `json:"revealOrder"`
	Type        string `json:"type"`
	PointsValue int    `json:"pointsValue"`
	Content     string `json:"content"`
}

// RoundStateView is the derived state of the current round. It is
// recomputed from the session row, the reveal mark and the ledger on every
// read; no component caches it across calls.
type RoundStateView struct {
	RoundNumber     int      `json:"roundNumber"`
	Phase           string   `json:"phase"`
	RevealedClueIDs []string `json:"revealedClueIds"`
	TotalClues      int      `json:"totalClues"`
	Submissions     int      `json:"submissions"`
	// TimeRemainingSecs is advisory, for display only. Phase transitions
	// are driven by explicit calls, never by a server clock.
	TimeRemainingSecs int `json:"timeRemainingSecs"`
}

// GameStateView is the full synchronous state snapshot returned by every
// read and by every successful mutation.
type GameStateView struct {
	SessionID     string             `json:"sessionId"`
	CaseID        string             `json:"caseId"`
	CaseTitle     string             `json:"caseTitle"`
	VillainID     string             `json:"villainId"`
	Status        string             `json:"status"`
	CurrentRound  int                `json:"currentRound"`
	MaxRounds     int                `json:"maxRounds"`
	Config        game.SessionConfig `json:"config"`
	Round         RoundStateView     `json:"round"`
	RevealedClues []ClueView         `json:"revealedClues"`
	TeamCount     int                `json:"teamCount"`
	Scoreboard    []game.Standing    `json:"scoreboard"`
	// Rankings is populated once the session is completed.
	Rankings []game.Standing `json:"rankings,omitempty"`
}

// roundClues returns the case's clues for a round in reveal order, capped
// at the session's cluesPerRound when that is tighter than the authoring.
func roundClues(c game.Case, cfg game.SessionConfig, round int) []game.Clue {
	var clues []game.Clue
	for _, cl := range c.Clues {
		if cl.RoundNumber != round {
			continue
		}
		if cfg.CluesPerRound > 0 && cl.RevealOrder > cfg.CluesPerRound {
			continue
		}
		clues = append(clues, cl)
	}
	return clues
}

// buildGameState derives the full state snapshot. It is the only accessor
// for round/phase state; every read goes through here.
func buildGameState(ctx context.Context, store Store, rec sessionRecord) (GameStateView, error) {
	c, err := store.GetCase(ctx, rec.CaseID)
	if err != nil {
		return GameStateView{}, err
	}

	teams, err := store.ListTeams(ctx, rec.ID)
	if err != nil {
		return GameStateView{}, err
	}

	mark, err := store.RevealMark(ctx, rec.ID, rec.CurrentRound)
	if err != nil {
		return GameStateView{}, err
	}

	submissions, err := store.CountSubmissions(ctx, rec.ID, rec.CurrentRound)
	if err != nil {
		return GameStateView{}, err
	}

	clues := roundClues(c, rec.Config, rec.CurrentRound)
	if mark > len(clues) {
		mark = len(clues)
	}

	revealed := make([]ClueView, 0, mark)
	ids := make([]string, 0, mark)
	for _, cl := range clues[:mark] {
		revealed = append(revealed, ClueView{
			ID:          cl.ID,
			RoundNumber: cl.RoundNumber,
			RevealOrder: cl.RevealOrder,
			Type:        string(cl.Type),
			PointsValue: cl.PointsValue,
			Content:     cl.Content,
		})
		ids = append(ids, cl.ID)
	}

	phase := game.DerivePhase(mark, len(clues), submissions, len(teams))
	if rec.Status == game.StatusCompleted {
		phase = game.PhaseComplete
	}

	view := GameStateView{
		SessionID:     rec.ID,
		CaseID:        c.ID,
		CaseTitle:     c.Title,
		VillainID:     c.VillainID,
		Status:        string(rec.Status),
		CurrentRound:  rec.CurrentRound,
		MaxRounds:     rec.Config.MaxRounds,
		Config:        rec.Config,
		TeamCount:     len(teams),
		RevealedClues: revealed,
		Round: RoundStateView{
			RoundNumber:       rec.CurrentRound,
			Phase:             string(phase),
			RevealedClueIDs:   ids,
			TotalClues:        len(clues),
			Submissions:       submissions,
			TimeRemainingSecs: timeRemaining(rec),
		},
	}

	view.Scoreboard, err = standings(ctx, store, rec)
	if err != nil {
		return GameStateView{}, err
	}
	if rec.Status == game.StatusCompleted {
		view.Rankings = view.Scoreboard
	}
	return view, nil
}

// standings derives the ranked scoreboard from the ledger.
func standings(ctx context.Context, store Store, rec sessionRecord) ([]game.Standing, error) {
	rows, err := store.TeamScores(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	out := make([]game.Standing, 0, len(rows))
	for _, r := range rows {
		perRound := make([]int, rec.Config.MaxRounds)
		for round, points := range r.PerRound {
			if round >= 1 && round <= rec.Config.MaxRounds {
				perRound[round-1] = points
			}
		}
		out = append(out, game.Standing{
			TeamID:         r.TeamID,
			TeamName:       r.TeamName,
			TotalScore:     r.Total,
			PerRound:       perRound,
			FirstCorrectAt: r.FirstCorrectAt,
			JoinedAt:       r.JoinedAt,
		})
	}
	return game.Rank(out), nil
}

func timeRemaining(rec sessionRecord) int {
	if rec.Status != game.StatusActive || rec.RoundStartedAt == nil || rec.Config.RoundDurationMinutes <= 0 {
		return 0
	}
	remaining := time.Duration(rec.Config.RoundDurationMinutes)*time.Minute - time.Since(*rec.RoundStartedAt)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// stateForConflict loads a best-effort snapshot to attach to a 409 so the
// caller can resync in one round trip. Nil on any failure.
func stateForConflict(ctx context.Context, store Store, rec sessionRecord) *GameStateView {
	view, err := buildGameState(ctx, store, rec)
	if err != nil {
		return nil
	}
	return &view
}
