package server

import (
	"context"
	"errors"
	"time"

	"github.com/chasehq/geochase/internal/game"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSubmission is returned when a counted warrant already
	// exists for the (session, team, round) tuple.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrMarkMoved is returned when the reveal mark's compare-and-set
	// fails because another call advanced it first.
	ErrMarkMoved = errors.New("reveal mark moved")
)

// sessionRecord is the persisted session row plus fields that never leave
// the server package (host token, round clock).
type sessionRecord struct {
	game.Session
	HostToken      string
	RoundStartedAt *time.Time
}

// teamScoreRow aggregates one team's ledger-derived numbers.
type teamScoreRow struct {
	TeamID         string
	TeamName       string
	Total          int
	PerRound       map[int]int
	FirstCorrectAt *time.Time
	JoinedAt       time.Time
}

// analyticsData is the raw material for an AnalyticsSummary, all derived
// from the ledger, the submissions and the reveal marks.
type analyticsData struct {
	CluesRevealed        int
	CorrectSubmissions   int
	IncorrectSubmissions int
	TotalResponseSecs    float64
	SubmissionCount      int
	RevealsByType        map[string]int
	BonusEvents          map[string]int
}

// Store is the persistence contract for the game core: the case catalog
// (read-only), the session row, the reveal marks and the append-only score
// ledger. Mutating calls run under the per-session lock; the reveal mark
// additionally carries its own compare-and-set.
type Store interface {
	// Case catalog (read-only reference data).
	GetCase(ctx context.Context, caseID string) (game.Case, error)
	GetLocation(ctx context.Context, locationID string) (game.Location, error)
	ListCases(ctx context.Context) ([]game.Case, error)

	// Sessions.
	CreateSession(ctx context.Context, id, caseID, hostToken string, cfg game.SessionConfig) (sessionRecord, error)
	GetSession(ctx context.Context, id string) (sessionRecord, error)
	StartSession(ctx context.Context, id string) error
	SetSessionStatus(ctx context.Context, id string, status game.SessionStatus) error
	AdvanceSessionRound(ctx context.Context, id string, nextRound int) error
	CompleteSession(ctx context.Context, id string) error

	// Teams.
	CreateTeam(ctx context.Context, id, sessionID, name, token string) (game.Team, error)
	TeamByToken(ctx context.Context, token string) (game.Team, error)
	ListTeams(ctx context.Context, sessionID string) ([]game.Team, error)

	// Clue reveal sequencer state.
	InitRevealMark(ctx context.Context, sessionID string, round int) error
	RevealMark(ctx context.Context, sessionID string, round int) (int, error)
	AdvanceRevealMark(ctx context.Context, sessionID string, round, from int) error

	// Warrants and the score ledger.
	SubmissionFor(ctx context.Context, sessionID, teamID string, round int) (game.WarrantSubmission, error)
	CountSubmissions(ctx context.Context, sessionID string, round int) (int, error)
	RecordWarrant(ctx context.Context, sub game.WarrantSubmission, events []game.ScoreEvent) (game.WarrantSubmission, error)
	AppendScoreEvent(ctx context.Context, ev game.ScoreEvent) error
	TeamScores(ctx context.Context, sessionID string) ([]teamScoreRow, error)

	// Analytics.
	AnalyticsData(ctx context.Context, sessionID string) (analyticsData, error)
}
