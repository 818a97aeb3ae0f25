package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/chasehq/geochase/internal/database"
	"github.com/chasehq/geochase/internal/migrations"
)

func testRouter(t *testing.T) *chi.Mux {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewSQLiteStore(db)
	if err := SeedDemo(ctx, logger, store); err != nil {
		t.Fatalf("seed demo: %v", err)
	}

	r := chi.NewRouter()
	addRoutes(r, logger, store, NewBroker(nil, logger), db, nil)
	return r
}

// doJSON performs a request against the router, optionally with a bearer
// token and a JSON body, and decodes the JSON response into out when the
// status matches.
func doJSON(t *testing.T, r http.Handler, method, path, token string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v (body %s)", err, w.Body.String())
		}
	}
	return w
}

func createDemoSession(t *testing.T, r http.Handler) CreateSessionResponse {
	t.Helper()
	var resp CreateSessionResponse
	w := doJSON(t, r, http.MethodPost, "/api/sessions", "",
		CreateSessionRequest{CaseID: "case-sapphire"}, &resp)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return resp
}

func joinTeam(t *testing.T, r http.Handler, sessionID, name string) JoinResponse {
	t.Helper()
	var resp JoinResponse
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/join", "",
		JoinRequest{TeamName: name}, &resp)
	if w.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return resp
}

func startSession(t *testing.T, r http.Handler, sessionID, hostToken string) GameStateView {
	t.Helper()
	var state GameStateView
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/start", hostToken, nil, &state)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return state
}

func revealClue(t *testing.T, r http.Handler, sessionID, hostToken string) RevealResponse {
	t.Helper()
	var resp RevealResponse
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sessionID+"/reveal", hostToken, nil, &resp)
	if w.Code != http.StatusOK {
		t.Fatalf("reveal: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return resp
}

func gameState(t *testing.T, r http.Handler, sessionID string) GameStateView {
	t.Helper()
	var state GameStateView
	w := doJSON(t, r, http.MethodGet, "/api/sessions/"+sessionID+"/state", "", nil, &state)
	if w.Code != http.StatusOK {
		t.Fatalf("state: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return state
}
