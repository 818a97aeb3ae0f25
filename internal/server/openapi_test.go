package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAPISpec(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}

	body := w.Body.String()
	for _, path := range []string{
		"/api/cases",
		"/api/sessions",
		"/api/sessions/{sessionID}/state",
		"/api/sessions/{sessionID}/join",
		"/api/sessions/{sessionID}/warrant",
		"/api/sessions/{sessionID}/reveal",
		"/api/sessions/{sessionID}/advance",
		"/api/sessions/{sessionID}/analytics",
		"/api/sessions/{sessionID}/events",
	} {
		if !strings.Contains(body, `"`+path+`"`) {
			t.Errorf("spec missing path %s", path)
		}
	}
	if !strings.Contains(body, "GeoChase API") {
		t.Error("spec missing title")
	}
}

func TestHealthz(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListCases(t *testing.T) {
	r := testRouter(t)

	var cases []CaseItem
	w := doJSON(t, r, http.MethodGet, "/api/cases", "", nil, &cases)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(cases) == 0 {
		t.Fatal("expected seeded demo case")
	}
	found := false
	for _, c := range cases {
		if c.ID == "case-sapphire" {
			found = true
		}
	}
	if !found {
		t.Error("demo case missing from list")
	}
}
