package game

import (
	"math"
	"strings"
	"time"
)

// Static scoring configuration. Fixed at session start, never mutated.
const (
	TimeBonusMax        = 200
	ReasoningBonusValue = 50
	CountryBonusValue   = 100

	// reasoningMinLen is the minimum trimmed length for a reasoning
	// text to count as detailed.
	reasoningMinLen = 40
)

// roundBasePoints decreases per round: later rounds are worth less because
// more of the case has already been revealed.
var roundBasePoints = []int{1000, 750, 500, 250}

// BasePointsForRound returns the base points for a 1-based round number.
// Rounds past the table are worth the final entry.
func BasePointsForRound(round int) int {
	if round < 1 {
		round = 1
	}
	if round > len(roundBasePoints) {
		round = len(roundBasePoints)
	}
	return roundBasePoints[round-1]
}

// TimeBonus decays linearly from TimeBonusMax at elapsed 0 to zero at the
// round duration, floored at 0.
func TimeBonus(elapsed, roundDuration time.Duration) int {
	if roundDuration <= 0 || elapsed >= roundDuration {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := 1 - float64(elapsed)/float64(roundDuration)
	return int(math.Round(TimeBonusMax * remaining))
}

// DifficultyMultiplier bands case difficulty levels 1..5 across 1.0–2.0.
func DifficultyMultiplier(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	return 1.0 + 0.25*float64(level-1)
}

// Breakdown is the full accounting of one adjudicated warrant. The ledger
// events derived from it always sum to Total.
type Breakdown struct {
	IsCorrect      bool
	DistanceKm     float64
	Multiplier     float64
	Category       string
	BasePoints     int
	TimeBonus      int
	GuessPoints    int // correct_guess / incorrect_guess event
	TimeBonusPts   int // time_bonus event
	ReasoningBonus int
	CountryBonus   int
	Total          int
}

// WarrantInput carries everything the scoring formula needs. Guessed and
// Target are resolved Locations; Elapsed is time since the round opened.
type WarrantInput struct {
	RoundNumber   int
	Difficulty    int
	Guessed       Location
	Target        Location
	Reasoning     string
	Elapsed       time.Duration
	RoundDuration time.Duration
}

// ScoreWarrant applies the scoring formula:
//
//	base = basePointsForRound + timeBonus
//	total = round(base * difficultyMultiplier * distanceMultiplier) + bonuses
//
// Additive bonuses are applied after the distance multiplier and are never
// multiplied by it again. An exact guess (same location id) always scores
// distance 0 and multiplier 1.0 regardless of coordinates.
func ScoreWarrant(in WarrantInput) Breakdown {
	b := Breakdown{
		BasePoints: BasePointsForRound(in.RoundNumber),
		TimeBonus:  TimeBonus(in.Elapsed, in.RoundDuration),
	}

	if in.Guessed.ID == in.Target.ID {
		b.IsCorrect = true
		b.DistanceKm = 0
		b.Multiplier = 1.0
	} else {
		b.DistanceKm = DistanceKm(
			Coordinates{Lat: in.Guessed.Latitude, Lng: in.Guessed.Longitude},
			Coordinates{Lat: in.Target.Latitude, Lng: in.Target.Longitude},
		)
		b.Multiplier = ScoreMultiplier(b.DistanceKm)
	}
	b.Category = CategoryLabel(b.DistanceKm)

	diff := DifficultyMultiplier(in.Difficulty)
	scored := int(math.Round(float64(b.BasePoints+b.TimeBonus) * diff * b.Multiplier))

	// Split the time-bonus share into its own ledger event so the event
	// sum still equals the formula's rounded total.
	b.TimeBonusPts = int(math.Round(float64(b.TimeBonus) * diff * b.Multiplier))
	b.GuessPoints = scored - b.TimeBonusPts

	if strings.TrimSpace(in.Reasoning) != "" && len(strings.TrimSpace(in.Reasoning)) >= reasoningMinLen {
		b.ReasoningBonus = ReasoningBonusValue
	}
	if !b.IsCorrect && in.Guessed.Country != "" && in.Guessed.Country == in.Target.Country {
		b.CountryBonus = CountryBonusValue
	}

	b.Total = scored + b.ReasoningBonus + b.CountryBonus
	return b
}
