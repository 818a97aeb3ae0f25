package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chasehq/geochase/internal/game"
)

// Identity is resolved upstream of the core: a request carries either the
// session's host token (teacher console) or a team token issued at join.
// The core only maps tokens to a trusted (session, team, role) tuple.

var (
	errNoToken   = errors.New("no bearer token")
	errNotHost   = errors.New("not the session host")
	errWrongTeam = errors.New("team does not belong to session")
)

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", errNoToken
	}
	return token, nil
}

// requireHost checks the bearer token against the session's host token.
func requireHost(r *http.Request, rec sessionRecord) error {
	token, err := bearerToken(r)
	if err != nil {
		return err
	}
	if token != rec.HostToken {
		return errNotHost
	}
	return nil
}

// teamFromRequest resolves the bearer token to the team it was issued to
// and checks the team belongs to the requested session.
func teamFromRequest(r *http.Request, store Store, sessionID string) (game.Team, error) {
	token, err := bearerToken(r)
	if err != nil {
		return game.Team{}, err
	}
	team, err := store.TeamByToken(r.Context(), token)
	if err != nil {
		return game.Team{}, err
	}
	if team.SessionID != sessionID {
		return game.Team{}, errWrongTeam
	}
	return team, nil
}
