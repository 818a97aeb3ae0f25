package game

import (
	"sort"
	"time"
)

// Standing is a team's derived score snapshot. Totals and per-round sums
// come from summing ledger events at read time, never from stored state.
type Standing struct {
	TeamID         string     `json:"teamId"`
	TeamName       string     `json:"teamName"`
	TotalScore     int        `json:"totalScore"`
	PerRound       []int      `json:"perRoundScore"`
	FirstCorrectAt *time.Time `json:"firstCorrectAt,omitempty"`
	JoinedAt       time.Time  `json:"-"`
	Rank           int        `json:"rank"`
}

// Rank orders standings by total score descending and assigns 1-based
// ranks. Ties break on the earliest correct submission; teams that never
// answered correctly sort after those that did, then by join order.
func Rank(standings []Standing) []Standing {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		switch {
		case a.FirstCorrectAt != nil && b.FirstCorrectAt != nil:
			if !a.FirstCorrectAt.Equal(*b.FirstCorrectAt) {
				return a.FirstCorrectAt.Before(*b.FirstCorrectAt)
			}
		case a.FirstCorrectAt != nil:
			return true
		case b.FirstCorrectAt != nil:
			return false
		}
		return a.JoinedAt.Before(b.JoinedAt)
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
