package game

import "dicehall/internal/game/score"

// DrawMarker is recorded as the winner when no player holds a strictly
// highest final score.
const DrawMarker = "draw"

const (
	upperBonusThreshold = 63
	upperBonusPoints    = 35
)

// FinalScore derives a player's total from a completed (or partial) sheet:
// upper section sum, the 35-point bonus at 63+, and the lower section sum.
func FinalScore(sheet map[string]int) int {
	upper := 0
	for _, cat := range score.Upper {
		upper += sheet[cat]
	}
	total := upper
	if upper >= upperBonusThreshold {
		total += upperBonusPoints
	}
	for _, cat := range score.Lower {
		total += sheet[cat]
	}
	return total
}

// FinalScores derives every player's total, keyed by display name.
func (s *State) FinalScores() map[string]int {
	scores := make(map[string]int, len(s.PlayerNames))
	for i, name := range s.PlayerNames {
		if name == "" {
			continue
		}
		scores[name] = FinalScore(s.ScoreSheets[i])
	}
	return scores
}

// Winner names the player with the strictly highest final score, or
// DrawMarker when the top score is shared.
func (s *State) Winner() string {
	best, winner, tied := -1, "", false
	for i, name := range s.PlayerNames {
		if name == "" {
			continue
		}
		total := FinalScore(s.ScoreSheets[i])
		switch {
		case total > best:
			best, winner, tied = total, name, false
		case total == best:
			tied = true
		}
	}
	if winner == "" || tied {
		return DrawMarker
	}
	return winner
}
