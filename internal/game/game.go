// Package game defines the core domain types and the pure game rules:
// distance scoring, warrant adjudication math, round-phase derivation and
// final rankings. It has zero external dependencies — everything here is
// pure Go, so the whole rulebook is unit-testable without a database.
package game

import "time"

type Case struct {
	ID               string
	Title            string
	VillainID        string
	TargetLocationID string
	DifficultyLevel  int // 1..5
	RoundCount       int
	Clues            []Clue
	CreatedAt        time.Time
}

type ClueType string

const (
	ClueGeography  ClueType = "geography"
	ClueCulture    ClueType = "culture"
	ClueHistorical ClueType = "historical"
	ClueEconomic   ClueType = "economic"
	ClueVisual     ClueType = "visual"
)

type Clue struct {
	ID          string
	CaseID      string
	RoundNumber int
	RevealOrder int // 1..N within its round
	Type        ClueType
	PointsValue int
	Content     string
}

type Location struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	Country   string
	Region    string
}

type SessionStatus string

const (
	StatusWaiting   SessionStatus = "waiting"
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
)

type SessionConfig struct {
	MaxRounds            int  `json:"maxRounds"`
	CluesPerRound        int  `json:"cluesPerRound"`
	RoundDurationMinutes int  `json:"roundDurationMinutes"`
	AutoAdvance          bool `json:"autoAdvance"`
}

type Session struct {
	ID           string
	CaseID       string
	Status       SessionStatus
	CurrentRound int // 1-based
	Config       SessionConfig
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

type Team struct {
	ID        string
	SessionID string
	Name      string
	JoinToken string
	CreatedAt time.Time
}

type WarrantSubmission struct {
	ID                string
	SessionID         string
	TeamID            string
	RoundNumber       int
	GuessedLocationID string
	Reasoning         string
	DistanceKm        float64
	IsCorrect         bool
	PointsAwarded     int
	ElapsedSeconds    float64
	SubmittedAt       time.Time
}

type EventType string

const (
	EventClueRevealed   EventType = "clue_revealed"
	EventCorrectGuess   EventType = "correct_guess"
	EventIncorrectGuess EventType = "incorrect_guess"
	EventTimeBonus      EventType = "time_bonus"
	EventReasoningBonus EventType = "reasoning_bonus"
	EventCountryBonus   EventType = "country_bonus"
)

// ScoreEvent is an immutable ledger entry. The ledger is the only authority
// for score values; totals are always re-derived by summing events.
type ScoreEvent struct {
	ID          string
	SessionID   string
	TeamID      string // empty for session-scoped events like clue_revealed
	RoundNumber int
	Type        EventType
	Points      int // signed
	Description string
	Metadata    map[string]string
	CreatedAt   time.Time
}

type RoundPhase string

const (
	PhaseWaiting   RoundPhase = "waiting"
	PhaseRevealing RoundPhase = "revealing"
	PhaseGuessing  RoundPhase = "guessing"
	PhaseScoring   RoundPhase = "scoring"
	PhaseComplete  RoundPhase = "complete"
)

// DerivePhase computes the current round's phase from observable counts.
// It is recomputed on every read; nothing caches a phase across calls.
func DerivePhase(revealed, totalClues, submissions, teams int) RoundPhase {
	switch {
	case revealed == 0:
		return PhaseWaiting
	case revealed < totalClues:
		return PhaseRevealing
	case teams == 0 || submissions < teams:
		return PhaseGuessing
	default:
		return PhaseScoring
	}
}
