package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all plain error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoChase API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the GeoChase geography deduction game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/cases
	getCases, _ := r.NewOperationContext(http.MethodGet, "/api/cases")
	getCases.SetSummary("List cases")
	getCases.SetDescription("Lists the authored cases available to start a session from.")
	getCases.AddRespStructure([]CaseItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCases)

	// POST /api/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	createSession.SetSummary("Create session")
	createSession.SetDescription("Creates a waiting session for a case and returns the host token.")
	createSession.AddReqStructure(CreateSessionRequest{})
	createSession.AddRespStructure(CreateSessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createSession)

	// GET /api/sessions/{sessionID}/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/state")
	getState.SetSummary("Get game state")
	getState.SetDescription("Returns the derived session, round and scoreboard state. Pure read; safe to poll.")
	getState.AddRespStructure(GameStateView{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getState)

	// POST /api/sessions/{sessionID}/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/join")
	postJoin.SetSummary("Join session")
	postJoin.SetDescription("Creates a team in the session and returns its bearer token.")
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postJoin.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postJoin)

	// POST /api/sessions/{sessionID}/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/start")
	postStart.SetSummary("Start session")
	postStart.SetDescription("Moves a waiting session to active and opens round 1. Requires host token.")
	postStart.AddRespStructure(GameStateView{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postStart)

	// POST /api/sessions/{sessionID}/reveal
	postReveal, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/reveal")
	postReveal.SetSummary("Reveal next clue")
	postReveal.SetDescription("Reveals the next clue of the current round in authored order. Requires host token.")
	postReveal.AddRespStructure(RevealResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postReveal.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postReveal.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postReveal)

	// POST /api/sessions/{sessionID}/warrant
	postWarrant, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/warrant")
	postWarrant.SetSummary("Submit warrant")
	postWarrant.SetDescription("Submits the team's location guess for the current round. Requires team token. Only the first submission per round counts.")
	postWarrant.AddReqStructure(WarrantRequest{})
	postWarrant.AddRespStructure(WarrantResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postWarrant.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postWarrant.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postWarrant.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postWarrant)

	// POST /api/sessions/{sessionID}/advance
	postAdvance, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/advance")
	postAdvance.SetSummary("Advance round")
	postAdvance.SetDescription("Moves to the next round, or completes the game on the final round. Fails while clues remain unrevealed unless force is set. Requires host token.")
	postAdvance.AddReqStructure(AdvanceRoundRequest{})
	postAdvance.AddRespStructure(GameStateView{}, openapi.WithHTTPStatus(http.StatusOK))
	postAdvance.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postAdvance.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postAdvance)

	// POST /api/sessions/{sessionID}/pause and /resume
	for _, p := range []struct{ path, summary, desc string }{
		{"/api/sessions/{sessionID}/pause", "Pause game", "Pauses an active session. Idempotent. Requires host token."},
		{"/api/sessions/{sessionID}/resume", "Resume game", "Resumes a paused session. Idempotent. Requires host token."},
	} {
		op, _ := r.NewOperationContext(http.MethodPost, p.path)
		op.SetSummary(p.summary)
		op.SetDescription(p.desc)
		op.AddRespStructure(GameStateView{}, openapi.WithHTTPStatus(http.StatusOK))
		op.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
		op.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
		_ = r.AddOperation(op)
	}

	// POST /api/sessions/{sessionID}/complete
	postComplete, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/complete")
	postComplete.SetSummary("Complete game")
	postComplete.SetDescription("Force-completes the session regardless of round and returns final rankings. Requires host token.")
	postComplete.AddRespStructure(GameStateView{}, openapi.WithHTTPStatus(http.StatusOK))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postComplete)

	// GET /api/sessions/{sessionID}/teams
	getTeams, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/teams")
	getTeams.SetSummary("List teams")
	getTeams.SetDescription("Lists the session's teams. Team tokens are included only with the host token.")
	getTeams.AddRespStructure([]TeamItem{}, openapi.WithHTTPStatus(http.StatusOK))
	getTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTeams)

	// GET /api/sessions/{sessionID}/analytics
	getAnalytics, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/analytics")
	getAnalytics.SetSummary("Session analytics")
	getAnalytics.SetDescription("Read-only aggregation over the score ledger and reveal history. Returns zeros for a fresh session.")
	getAnalytics.AddRespStructure(AnalyticsSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	getAnalytics.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getAnalytics)

	// GET /api/sessions/{sessionID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/events")
	getEvents.SetSummary("SSE delta stream")
	getEvents.SetDescription("Server-Sent Events stream of state deltas. Pass the host or team token as a query parameter. Best effort; resync via the state endpoint.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
