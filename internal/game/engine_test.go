package game

import (
	"errors"
	"testing"
)

// fixedEngine returns an engine whose dice always land on the given face and
// whose scoring function scores the face value of the first die.
func fixedEngine(capacity, face int) *Engine {
	e := NewEngine(NewState(capacity), func(_ string, dice [NumDice]int) int {
		return dice[0]
	})
	e.die = func() int { return face }
	return e
}

func startTwoPlayer(t *testing.T, e *Engine) {
	t.Helper()
	e.State.PlayerNames[0] = "alice"
	e.State.PlayerNames[1] = "bob"
	if started, err := e.MarkReady(0); err != nil || started {
		t.Fatalf("first ready: started=%v err=%v", started, err)
	}
	started, err := e.MarkReady(1)
	if err != nil {
		t.Fatalf("second ready: %v", err)
	}
	if !started {
		t.Fatal("expected match to start after both ready")
	}
}

func TestReadyTransitionStartsMatch(t *testing.T) {
	e := fixedEngine(2, 4)
	startTwoPlayer(t, e)

	s := e.State
	if s.Phase != PhasePlaying {
		t.Fatalf("phase = %s, want playing", s.Phase)
	}
	if s.CurrentPlayer != 0 || s.RollsLeft != 2 {
		t.Fatalf("currentPlayer=%d rollsLeft=%d, want 0 and 2", s.CurrentPlayer, s.RollsLeft)
	}
	for i, d := range s.Dice {
		if d < 1 || d > 6 {
			t.Fatalf("die %d = %d, want 1..6", i, d)
		}
	}
}

func TestMarkReadyRequiresName(t *testing.T) {
	e := fixedEngine(2, 1)
	if _, err := e.MarkReady(0); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("ready without name = %v, want ErrNameRequired", err)
	}
}

func TestRollRespectsHeldAndBudget(t *testing.T) {
	e := fixedEngine(2, 3)
	startTwoPlayer(t, e)

	e.die = func() int { return 6 }
	if err := e.ToggleHold(0, 0); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := e.Roll(0); err != nil {
		t.Fatalf("roll: %v", err)
	}
	if e.State.Dice[0] != 3 {
		t.Fatalf("held die rerolled: %d", e.State.Dice[0])
	}
	for i := 1; i < NumDice; i++ {
		if e.State.Dice[i] != 6 {
			t.Fatalf("die %d = %d, want 6", i, e.State.Dice[i])
		}
	}
	if e.State.RollsLeft != 1 {
		t.Fatalf("rollsLeft = %d, want 1", e.State.RollsLeft)
	}

	if err := e.Roll(0); err != nil {
		t.Fatalf("second roll: %v", err)
	}
	if err := e.Roll(0); !errors.Is(err, ErrNoRollsLeft) {
		t.Fatalf("third roll = %v, want ErrNoRollsLeft", err)
	}
	if err := e.Roll(1); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("off-turn roll = %v, want ErrNotYourTurn", err)
	}
}

func TestToggleHoldValidation(t *testing.T) {
	e := fixedEngine(2, 2)
	if err := e.ToggleHold(0, 0); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("hold in setup = %v, want ErrWrongPhase", err)
	}
	startTwoPlayer(t, e)

	if err := e.ToggleHold(1, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("off-turn hold = %v, want ErrNotYourTurn", err)
	}
	if err := e.ToggleHold(0, NumDice); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("out-of-range hold = %v, want ErrIndexOutOfRange", err)
	}

	// A snapshot restored mid-transition can report a turn with no roll yet.
	e.State.RollsLeft = 3
	if err := e.ToggleHold(0, 0); !errors.Is(err, ErrHoldBeforeRoll) {
		t.Fatalf("hold before roll = %v, want ErrHoldBeforeRoll", err)
	}
}

func TestChooseScoresAndAdvancesTurn(t *testing.T) {
	e := fixedEngine(2, 5)
	startTwoPlayer(t, e)
	e.State.Held[2] = true

	finished, err := e.Choose(0, "fives")
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if finished {
		t.Fatal("match reported finished")
	}
	if got := e.State.ScoreSheets[0]["fives"]; got != 5 {
		t.Fatalf("score = %d, want 5", got)
	}
	if e.State.CurrentPlayer != 1 || e.State.RollsLeft != 2 {
		t.Fatalf("currentPlayer=%d rollsLeft=%d after advance", e.State.CurrentPlayer, e.State.RollsLeft)
	}
	for i, h := range e.State.Held {
		if h {
			t.Fatalf("hold %d survived turn advance", i)
		}
	}
}

func TestChooseRejectsUsedCategoryUnchanged(t *testing.T) {
	e := fixedEngine(2, 5)
	startTwoPlayer(t, e)

	if _, err := e.Choose(0, "chance"); err != nil {
		t.Fatalf("first choose: %v", err)
	}
	want := e.State.ScoreSheets[0]["chance"]

	if _, err := e.Choose(1, "chance"); err != nil {
		t.Fatalf("other player same category: %v", err)
	}
	if _, err := e.Choose(0, "chance"); !errors.Is(err, ErrCategoryUsed) {
		t.Fatalf("repeat choose = %v, want ErrCategoryUsed", err)
	}
	if got := e.State.ScoreSheets[0]["chance"]; got != want {
		t.Fatalf("sheet changed on rejected choose: %d != %d", got, want)
	}
}

func TestChooseRejectsUnknownCategory(t *testing.T) {
	e := fixedEngine(2, 1)
	startTwoPlayer(t, e)
	if _, err := e.Choose(0, "bogus"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("unknown category = %v, want ErrUnknownCategory", err)
	}
}

func TestMatchFinishesWhenAllSheetsComplete(t *testing.T) {
	e := fixedEngine(2, 5)
	startTwoPlayer(t, e)

	// Pre-fill both sheets up to the last category each.
	cats := []string{
		"ones", "twos", "threes", "fours", "fives", "sixes",
		"three_of_a_kind", "four_of_a_kind", "full_house",
		"small_straight", "large_straight", "yahtzee",
	}
	for p := 0; p < 2; p++ {
		for _, cat := range cats {
			e.State.ScoreSheets[p][cat] = 0
		}
	}

	finished, err := e.Choose(0, "chance")
	if err != nil || finished {
		t.Fatalf("first closing choose: finished=%v err=%v", finished, err)
	}
	finished, err = e.Choose(1, "chance")
	if err != nil {
		t.Fatalf("final choose: %v", err)
	}
	if !finished || !e.State.GameOver || e.State.Phase != PhaseFinished {
		t.Fatalf("expected finished match, got finished=%v gameOver=%v phase=%s",
			finished, e.State.GameOver, e.State.Phase)
	}
	for i, r := range e.State.Ready {
		if r {
			t.Fatalf("ready[%d] not cleared at finish", i)
		}
	}

	total := 0
	for _, used := range e.State.UsedCategories() {
		total += len(used)
	}
	if total != CategoriesPerSheet*e.State.Capacity() {
		t.Fatalf("used total = %d, want %d", total, CategoriesPerSheet*e.State.Capacity())
	}
}

func TestResetPreservesNames(t *testing.T) {
	e := fixedEngine(2, 5)
	startTwoPlayer(t, e)
	if _, err := e.Choose(0, "fives"); err != nil {
		t.Fatalf("choose: %v", err)
	}

	e.Reset()
	s := e.State
	if s.Phase != PhaseSetup || s.GameOver {
		t.Fatalf("reset state: phase=%s gameOver=%v", s.Phase, s.GameOver)
	}
	if s.PlayerNames[0] != "alice" || s.PlayerNames[1] != "bob" {
		t.Fatalf("names lost on reset: %v", s.PlayerNames)
	}
	if len(s.ScoreSheets[0]) != 0 || s.Ready[0] {
		t.Fatal("match progress survived reset")
	}
}

func TestResizeRules(t *testing.T) {
	e := fixedEngine(2, 1)
	if err := e.Resize(1); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("resize to 1 = %v, want ErrInvalidCapacity", err)
	}
	if err := e.Resize(7); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("resize to 7 = %v, want ErrInvalidCapacity", err)
	}

	e.State.PlayerNames[0] = "alice"
	if err := e.Resize(4); err != nil {
		t.Fatalf("resize to 4: %v", err)
	}
	s := e.State
	if len(s.PlayerNames) != 4 || len(s.Ready) != 4 || len(s.ScoreSheets) != 4 {
		t.Fatalf("parallel slices out of lockstep: %d %d %d",
			len(s.PlayerNames), len(s.Ready), len(s.ScoreSheets))
	}
	if s.PlayerNames[0] != "alice" || s.ScoreSheets[3] == nil {
		t.Fatal("resize lost existing data or left nil sheet")
	}

	if err := e.Resize(2); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if len(s.PlayerNames) != 2 {
		t.Fatalf("capacity = %d, want 2", len(s.PlayerNames))
	}

	startTwoPlayer(t, e)
	if err := e.Resize(3); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("resize while playing = %v, want ErrWrongPhase", err)
	}
}
