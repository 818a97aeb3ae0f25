package server

import "net/http"

// Conflict codes attached to rejected mutations so clients can resync
// without re-deriving everything.
const (
	codeAlreadyStarted      = "already_started"
	codeSessionNotActive    = "session_not_active"
	codeRoundNotReady       = "round_not_ready"
	codeRoundComplete       = "round_complete"
	codeDuplicateSubmission = "duplicate_submission"
)

// ConflictResponse is the body of every 409. State carries the caller's
// current authoritative view so a single response is enough to reconcile.
type ConflictResponse struct {
	Error string         `json:"error"`
	Code  string         `json:"code"`
	State *GameStateView `json:"state,omitempty"`
}

func writeConflict(w http.ResponseWriter, code, msg string, state *GameStateView) {
	writeJSON(w, http.StatusConflict, ConflictResponse{Error: msg, Code: code, State: state})
}

// writeStoreError reports a persistence failure. The core performs no
// internal retries; 503 tells the caller the operation is safe to retry.
func writeStoreError(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, "transient store error, retry")
}
