package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/chasehq/geochase/internal/game"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, broker *Broker, db *sql.DB, rdb *redis.Client) {
	locks := newSessionLocks()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoChase API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))

	r.Get("/api/cases", handleListCases(store))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", handleCreateSession(store))

		r.Route("/{sessionID}", func(r chi.Router) {
			// Pure reads; no lock, no token.
			r.Get("/state", handleGameState(store))
			r.Get("/analytics", handleAnalytics(store))
			r.Get("/teams", handleListTeams(store))
			r.Get("/events", handleEvents(store, broker))

			// Team submissions — team bearer token.
			r.Post("/join", handleJoin(store, broker, locks))
			r.Post("/warrant", handleSubmitWarrant(store, broker, locks))

			// Host console mutations — host bearer token.
			r.Post("/start", handleStartSession(store, broker, locks))
			r.Post("/reveal", handleRevealClue(store, broker, locks))
			r.Post("/advance", handleAdvanceRound(store, broker, locks))
			r.Post("/pause", handlePauseResume(store, broker, locks, game.StatusPaused))
			r.Post("/resume", handlePauseResume(store, broker, locks, game.StatusActive))
			r.Post("/complete", handleCompleteSession(store, broker, locks))
		})
	})
}
