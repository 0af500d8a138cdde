package game

import "testing"

func sheetWith(upper, lower int) map[string]int {
	// Spread the upper total across two faces, dump the lower total on chance.
	return map[string]int{
		"sixes":  upper - 5,
		"fives":  5,
		"chance": lower,
	}
}

func TestFinalScoreAppliesUpperBonus(t *testing.T) {
	if got := FinalScore(sheetWith(65, 40)); got != 140 {
		t.Fatalf("final score = %d, want 140", got)
	}
	if got := FinalScore(sheetWith(62, 40)); got != 102 {
		t.Fatalf("final score without bonus = %d, want 102", got)
	}
	if got := FinalScore(sheetWith(63, 0)); got != 98 {
		t.Fatalf("final score at bonus threshold = %d, want 98", got)
	}
}

func TestWinnerStrictMax(t *testing.T) {
	s := NewState(2)
	s.PlayerNames = []string{"alice", "bob"}
	s.ScoreSheets[0] = sheetWith(65, 40)
	s.ScoreSheets[1] = sheetWith(30, 10)

	if w := s.Winner(); w != "alice" {
		t.Fatalf("winner = %q, want alice", w)
	}

	scores := s.FinalScores()
	if scores["alice"] != 140 || scores["bob"] != 40 {
		t.Fatalf("scores = %v", scores)
	}
}

func TestWinnerDrawOnTie(t *testing.T) {
	s := NewState(2)
	s.PlayerNames = []string{"alice", "bob"}
	s.ScoreSheets[0] = sheetWith(30, 10)
	s.ScoreSheets[1] = sheetWith(30, 10)

	if w := s.Winner(); w != DrawMarker {
		t.Fatalf("winner = %q, want draw marker", w)
	}
}
