package game

import "fmt"

// Feedback builds the explanatory text returned with a warrant result.
// It is advisory only: nothing here may influence the score, it just helps
// teams understand how the revealed clues relate to their guess.
func Feedback(b Breakdown, guessed, target Location, revealed []Clue) string {
	var msg string
	switch b.Category {
	case "perfect":
		msg = fmt.Sprintf("Warrant served! %s was exactly right.", guessed.Name)
	case "excellent":
		msg = fmt.Sprintf("So close — %s is only %.0f km from the hideout.", guessed.Name, b.DistanceKm)
	case "good":
		msg = fmt.Sprintf("%s is in the right neighbourhood, %.0f km out.", guessed.Name, b.DistanceKm)
	case "fair":
		msg = fmt.Sprintf("The trail went cold near %s, %.0f km from the target.", guessed.Name, b.DistanceKm)
	default:
		msg = fmt.Sprintf("%s is %.0f km off the trail.", guessed.Name, b.DistanceKm)
	}

	if b.CountryBonus > 0 {
		msg += fmt.Sprintf(" At least you had the right country (%s).", target.Country)
	}

	if !b.IsCorrect {
		if hint := clueHint(revealed, target); hint != "" {
			msg += " " + hint
		}
	}
	return msg
}

// clueHint points a missed team back at the most telling revealed clue.
func clueHint(revealed []Clue, target Location) string {
	for _, ct := range []ClueType{ClueGeography, ClueCulture, ClueHistorical} {
		for _, c := range revealed {
			if c.Type == ct {
				return fmt.Sprintf("Look again at the %s clue — it pointed toward %s.", c.Type, target.Region)
			}
		}
	}
	if len(revealed) > 0 {
		return fmt.Sprintf("The revealed clues all pointed toward %s.", target.Region)
	}
	return ""
}
