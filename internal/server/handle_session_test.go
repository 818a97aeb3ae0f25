package server

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestCreateSessionUnknownCase(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/sessions", "",
		CreateSessionRequest{CaseID: "case-nope"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestStartSession(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)

	if sess.State.Status != "waiting" {
		t.Fatalf("new session status = %q, want waiting", sess.State.Status)
	}
	if sess.HostToken == "" {
		t.Fatal("expected a host token")
	}

	state := startSession(t, r, sess.SessionID, sess.HostToken)
	if state.Status != "active" {
		t.Errorf("status = %q, want active", state.Status)
	}
	if state.CurrentRound != 1 {
		t.Errorf("currentRound = %d, want 1", state.CurrentRound)
	}
	if state.Round.Phase != "waiting" {
		t.Errorf("round phase = %q, want waiting", state.Round.Phase)
	}
}

func TestStartSessionTwiceConflicts(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	startSession(t, r, sess.SessionID, sess.HostToken)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/start", sess.HostToken, nil, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	var conflict ConflictResponse
	json.NewDecoder(w.Body).Decode(&conflict)
	if conflict.Code != codeAlreadyStarted {
		t.Errorf("code = %q, want %q", conflict.Code, codeAlreadyStarted)
	}
	if conflict.State == nil || conflict.State.Status != "active" {
		t.Error("conflict must attach the current authoritative state")
	}
}

func TestStartRequiresHostToken(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/start", "wrong-token", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	startSession(t, r, sess.SessionID, sess.HostToken)

	var state GameStateView
	doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/pause", sess.HostToken, nil, &state)
	if state.Status != "paused" {
		t.Fatalf("status = %q, want paused", state.Status)
	}

	// Pausing again is a no-op, not an error.
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/pause", sess.HostToken, nil, &state)
	if w.Code != http.StatusOK || state.Status != "paused" {
		t.Fatalf("second pause: got %d status %q", w.Code, state.Status)
	}

	doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/resume", sess.HostToken, nil, &state)
	if state.Status != "active" {
		t.Fatalf("status = %q, want active", state.Status)
	}
}

func TestPauseBeforeStartConflicts(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/pause", sess.HostToken, nil, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestAdvanceRoundNotReady(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	startSession(t, r, sess.SessionID, sess.HostToken)

	// Two of three clues revealed: not ready.
	revealClue(t, r, sess.SessionID, sess.HostToken)
	revealClue(t, r, sess.SessionID, sess.HostToken)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/advance", sess.HostToken, nil, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var conflict ConflictResponse
	json.NewDecoder(w.Body).Decode(&conflict)
	if conflict.Code != codeRoundNotReady {
		t.Errorf("code = %q, want %q", conflict.Code, codeRoundNotReady)
	}
}

func TestAdvanceRoundAfterFullReveal(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	startSession(t, r, sess.SessionID, sess.HostToken)

	for i := 0; i < 3; i++ {
		revealClue(t, r, sess.SessionID, sess.HostToken)
	}

	var state GameStateView
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/advance", sess.HostToken, nil, &state)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if state.CurrentRound != 2 {
		t.Errorf("currentRound = %d, want 2", state.CurrentRound)
	}
	if state.Round.Phase != "waiting" {
		t.Errorf("new round phase = %q, want waiting", state.Round.Phase)
	}
}

func TestForceAdvanceSkipsReveal(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	startSession(t, r, sess.SessionID, sess.HostToken)

	var state GameStateView
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/advance", sess.HostToken,
		AdvanceRoundRequest{Force: true}, &state)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if state.CurrentRound != 2 {
		t.Errorf("currentRound = %d, want 2", state.CurrentRound)
	}
}

func TestAdvancePastFinalRoundCompletes(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	startSession(t, r, sess.SessionID, sess.HostToken)

	var state GameStateView
	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/advance", sess.HostToken,
			AdvanceRoundRequest{Force: true}, &state)
		if w.Code != http.StatusOK {
			t.Fatalf("advance %d: got %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	if state.Status != "completed" {
		t.Errorf("status = %q, want completed", state.Status)
	}
	if state.Rankings == nil {
		t.Error("completed state must include rankings")
	}
}

func TestCompleteEarlyReturnsRankings(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	joinTeam(t, r, sess.SessionID, "The Magnifying Glasses")
	joinTeam(t, r, sess.SessionID, "Cold Trail Club")
	startSession(t, r, sess.SessionID, sess.HostToken)

	var state GameStateView
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/complete", sess.HostToken, nil, &state)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if state.Status != "completed" {
		t.Errorf("status = %q, want completed", state.Status)
	}
	if len(state.Rankings) != 2 {
		t.Fatalf("rankings len = %d, want 2", len(state.Rankings))
	}
	for i, s := range state.Rankings {
		if s.Rank != i+1 {
			t.Errorf("rank = %d, want %d", s.Rank, i+1)
		}
		if s.TotalScore != 0 {
			t.Errorf("unplayed team total = %d, want 0", s.TotalScore)
		}
	}
}

func TestCurrentRoundNeverDecreases(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	startSession(t, r, sess.SessionID, sess.HostToken)

	doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/advance", sess.HostToken,
		AdvanceRoundRequest{Force: true}, nil)

	before := gameState(t, r, sess.SessionID).CurrentRound

	// Pause/resume must not touch the round counter.
	doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/pause", sess.HostToken, nil, nil)
	doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/resume", sess.HostToken, nil, nil)

	if after := gameState(t, r, sess.SessionID).CurrentRound; after != before {
		t.Errorf("currentRound changed %d -> %d across pause/resume", before, after)
	}
}
