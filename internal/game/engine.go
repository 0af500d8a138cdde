package game

import (
	"math/rand"

	"dicehall/internal/game/score"
)

// ScoreFunc maps a category and five dice to points. The production value is
// score.Score; tests substitute fixed functions.
type ScoreFunc func(category string, dice [NumDice]int) int

// Engine applies turn actions to a State. It assumes the caller serializes
// access per room; it holds no locks of its own.
type Engine struct {
	State *State
	score ScoreFunc
	die   func() int
}

func NewEngine(state *State, scoreFn ScoreFunc) *Engine {
	if scoreFn == nil {
		scoreFn = score.Score
	}
	return &Engine{
		State: state,
		score: scoreFn,
		die:   func() int { return rand.Intn(6) + 1 },
	}
}

func (e *Engine) checkTurn(player int) error {
	if e.State.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if player < 0 || player >= e.State.Capacity() {
		return ErrPlayerOutOfRange
	}
	if player != e.State.CurrentPlayer {
		return ErrNotYourTurn
	}
	return nil
}

// MarkReady records a player's ready flag and reports whether the match
// started as a result. The match starts once every seat is named and ready.
func (e *Engine) MarkReady(player int) (started bool, err error) {
	s := e.State
	if s.Phase != PhaseSetup {
		return false, ErrWrongPhase
	}
	if player < 0 || player >= s.Capacity() {
		return false, ErrPlayerOutOfRange
	}
	if s.PlayerNames[player] == "" {
		return false, ErrNameRequired
	}
	s.Ready[player] = true

	for i := range s.Ready {
		if s.PlayerNames[i] == "" || !s.Ready[i] {
			return false, nil
		}
	}
	e.startMatch()
	return true, nil
}

func (e *Engine) startMatch() {
	s := e.State
	s.Phase = PhasePlaying
	s.GameOver = false
	s.CurrentPlayer = 0
	e.freshTurn()
}

// freshTurn rolls all five dice and resets holds and the reroll budget.
func (e *Engine) freshTurn() {
	s := e.State
	for i := range s.Dice {
		s.Dice[i] = e.die()
		s.Held[i] = false
	}
	s.RollsLeft = 2
}

// Roll rerolls every unheld die, spending one of the player's rerolls.
func (e *Engine) Roll(player int) error {
	if err := e.checkTurn(player); err != nil {
		return err
	}
	s := e.State
	if s.RollsLeft <= 0 {
		return ErrNoRollsLeft
	}
	for i := range s.Dice {
		if !s.Held[i] {
			s.Dice[i] = e.die()
		}
	}
	s.RollsLeft--
	return nil
}

// ToggleHold flips one die's hold flag. Holding is rejected before the first
// roll of a turn.
func (e *Engine) ToggleHold(player, index int) error {
	if err := e.checkTurn(player); err != nil {
		return err
	}
	if index < 0 || index >= NumDice {
		return ErrIndexOutOfRange
	}
	if e.State.RollsLeft >= 3 {
		return ErrHoldBeforeRoll
	}
	e.State.Held[index] = !e.State.Held[index]
	return nil
}

// Choose scores the current dice into the given category and either ends the
// match or advances the turn. A category present in the sheet is never
// overwritten; the second attempt is rejected and the sheet left unchanged.
func (e *Engine) Choose(player int, category string) (finished bool, err error) {
	if err := e.checkTurn(player); err != nil {
		return false, err
	}
	if !score.Known(category) {
		return false, ErrUnknownCategory
	}
	s := e.State
	if _, used := s.ScoreSheets[player][category]; used {
		return false, ErrCategoryUsed
	}
	s.ScoreSheets[player][category] = e.score(category, s.Dice)

	if s.allSheetsComplete() {
		s.GameOver = true
		s.Phase = PhaseFinished
		for i := range s.Ready {
			s.Ready[i] = false
		}
		return true, nil
	}

	s.CurrentPlayer = (s.CurrentPlayer + 1) % s.Capacity()
	e.freshTurn()
	return false, nil
}

// Reset reconstructs setup state, preserving player display names.
func (e *Engine) Reset() {
	s := e.State
	next := NewState(s.Capacity())
	copy(next.PlayerNames, s.PlayerNames)
	*s = *next
}

// Resize changes room capacity while in setup, keeping every per-player slice
// in lockstep. Capacity is locked once the match starts.
func (e *Engine) Resize(capacity int) error {
	s := e.State
	if s.Phase != PhaseSetup {
		return ErrWrongPhase
	}
	if capacity < MinCapacity || capacity > MaxCapacity {
		return ErrInvalidCapacity
	}
	s.resize(capacity)
	return nil
}
