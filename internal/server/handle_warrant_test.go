package server

import (
	"encoding/json"
	"net/http"
	"testing"
)

func submitWarrant(t *testing.T, r http.Handler, sessionID, teamToken, locationID, reasoning string) (WarrantResult, *json.Decoder, int) {
	t.Helper()
	req := WarrantRequest{LocationID: locationID, Reasoning: reasoning}
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/warrant", teamToken, req, nil)

	var result WarrantResult
	dec := json.NewDecoder(w.Body)
	if w.Code == http.StatusOK {
		if err := dec.Decode(&result); err != nil {
			t.Fatalf("decode warrant result: %v", err)
		}
	}
	return result, dec, w.Code
}

// Exact target guess at elapsed ~0 on round 1 of the demo case
// (difficulty 3): round((1000+200) * 1.5) == 1800.
func TestWarrantExactGuess(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	team := joinTeam(t, r, sess.SessionID, "Sharp Eyes")
	startSession(t, r, sess.SessionID, sess.HostToken)
	revealClue(t, r, sess.SessionID, sess.HostToken)

	result, _, code := submitWarrant(t, r, sess.SessionID, team.TeamToken, "loc-lisbon", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	if !result.IsCorrect {
		t.Fatal("expected correct warrant")
	}
	if result.DistanceKm != 0 {
		t.Errorf("distance = %f, want 0", result.DistanceKm)
	}
	if result.Category != "perfect" {
		t.Errorf("category = %q, want perfect", result.Category)
	}
	if result.PointsAwarded != 1800 {
		t.Errorf("points = %d, want 1800", result.PointsAwarded)
	}
	if result.Feedback == "" {
		t.Error("expected feedback text")
	}

	// The ledger is the only score authority: the reported scoreboard
	// total must equal the awarded points.
	state := gameState(t, r, sess.SessionID)
	if len(state.Scoreboard) != 1 {
		t.Fatalf("scoreboard len = %d, want 1", len(state.Scoreboard))
	}
	if got := state.Scoreboard[0].TotalScore; got != result.PointsAwarded {
		t.Errorf("ledger total = %d, points awarded = %d", got, result.PointsAwarded)
	}
	if got := state.Scoreboard[0].PerRound[0]; got != result.PointsAwarded {
		t.Errorf("round 1 ledger sum = %d, want %d", got, result.PointsAwarded)
	}
}

func TestWarrantNearMissSameCountry(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	team := joinTeam(t, r, sess.SessionID, "Wrong Turn")
	startSession(t, r, sess.SessionID, sess.HostToken)
	revealClue(t, r, sess.SessionID, sess.HostToken)

	// Porto is ~270 km from Lisbon and in the same country.
	result, _, code := submitWarrant(t, r, sess.SessionID, team.TeamToken, "loc-porto", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	if result.IsCorrect {
		t.Fatal("expected incorrect warrant")
	}
	if result.DistanceKm < 200 || result.DistanceKm > 350 {
		t.Errorf("distance = %f, expected ~270", result.DistanceKm)
	}
	if result.Category != "good" {
		t.Errorf("category = %q, want good", result.Category)
	}

	// Points include the same-country bonus added after the multiplier.
	state := gameState(t, r, sess.SessionID)
	if got := state.Scoreboard[0].TotalScore; got != result.PointsAwarded {
		t.Errorf("ledger total = %d, points awarded = %d", got, result.PointsAwarded)
	}
}

func TestWarrantDuplicateConflicts(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	team := joinTeam(t, r, sess.SessionID, "Eager Beavers")
	startSession(t, r, sess.SessionID, sess.HostToken)
	revealClue(t, r, sess.SessionID, sess.HostToken)

	first, _, code := submitWarrant(t, r, sess.SessionID, team.TeamToken, "loc-madrid", "")
	if code != http.StatusOK {
		t.Fatalf("first submit: expected 200, got %d", code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/warrant", team.TeamToken,
		WarrantRequest{LocationID: "loc-lisbon"}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second submit: expected 409, got %d", w.Code)
	}
	var conflict ConflictResponse
	json.NewDecoder(w.Body).Decode(&conflict)
	if conflict.Code != codeDuplicateSubmission {
		t.Errorf("code = %q, want %q", conflict.Code, codeDuplicateSubmission)
	}
	if conflict.State == nil {
		t.Fatal("conflict must attach current state")
	}

	// Only the first submission counts toward score.
	state := gameState(t, r, sess.SessionID)
	if got := state.Scoreboard[0].TotalScore; got != first.PointsAwarded {
		t.Errorf("ledger total = %d, want first submission's %d", got, first.PointsAwarded)
	}
}

func TestWarrantBeforeRevealConflicts(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	team := joinTeam(t, r, sess.SessionID, "Jump The Gun")
	startSession(t, r, sess.SessionID, sess.HostToken)

	_, _, code := submitWarrant(t, r, sess.SessionID, team.TeamToken, "loc-lisbon", "")
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
}

func TestWarrantUnknownLocation(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	team := joinTeam(t, r, sess.SessionID, "Off The Map")
	startSession(t, r, sess.SessionID, sess.HostToken)
	revealClue(t, r, sess.SessionID, sess.HostToken)

	_, _, code := submitWarrant(t, r, sess.SessionID, team.TeamToken, "loc-atlantis", "")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestWarrantRequiresTeamToken(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	startSession(t, r, sess.SessionID, sess.HostToken)
	revealClue(t, r, sess.SessionID, sess.HostToken)

	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/warrant", "",
		WarrantRequest{LocationID: "loc-lisbon"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestWarrantWhilePausedConflicts(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	team := joinTeam(t, r, sess.SessionID, "Patient Ones")
	startSession(t, r, sess.SessionID, sess.HostToken)
	revealClue(t, r, sess.SessionID, sess.HostToken)
	doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.SessionID+"/pause", sess.HostToken, nil, nil)

	_, _, code := submitWarrant(t, r, sess.SessionID, team.TeamToken, "loc-lisbon", "")
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
}

func TestScoringPhaseAfterAllTeamsSubmit(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	alpha := joinTeam(t, r, sess.SessionID, "Alpha")
	beta := joinTeam(t, r, sess.SessionID, "Beta")
	startSession(t, r, sess.SessionID, sess.HostToken)
	for i := 0; i < 3; i++ {
		revealClue(t, r, sess.SessionID, sess.HostToken)
	}

	submitWarrant(t, r, sess.SessionID, alpha.TeamToken, "loc-lisbon", "")
	submitWarrant(t, r, sess.SessionID, beta.TeamToken, "loc-istanbul", "")

	state := gameState(t, r, sess.SessionID)
	if state.Round.Phase != "scoring" {
		t.Errorf("phase = %q, want scoring", state.Round.Phase)
	}
	if state.Scoreboard[0].TeamName != "Alpha" {
		t.Errorf("leader = %q, want Alpha", state.Scoreboard[0].TeamName)
	}
}

func TestReasoningBonusCounted(t *testing.T) {
	r := testRouter(t)
	sess := createDemoSession(t, r)
	plain := joinTeam(t, r, sess.SessionID, "Terse")
	verbose := joinTeam(t, r, sess.SessionID, "Thorough")
	startSession(t, r, sess.SessionID, sess.HostToken)
	revealClue(t, r, sess.SessionID, sess.HostToken)

	p, _, _ := submitWarrant(t, r, sess.SessionID, plain.TeamToken, "loc-lisbon", "")
	v, _, _ := submitWarrant(t, r, sess.SessionID, verbose.TeamToken, "loc-lisbon",
		"The fado music, the seven hills and the Atlantic river mouth all point to the Portuguese capital.")

	if v.PointsAwarded <= p.PointsAwarded {
		t.Errorf("detailed reasoning should outscore none: %d vs %d", v.PointsAwarded, p.PointsAwarded)
	}
}
