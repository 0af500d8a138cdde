package game

import "errors"

var (
	ErrWrongPhase       = errors.New("wrong_phase")
	ErrNotYourTurn      = errors.New("not_your_turn")
	ErrNoRollsLeft      = errors.New("no_rolls_left")
	ErrHoldBeforeRoll   = errors.New("hold_before_roll")
	ErrIndexOutOfRange  = errors.New("index_out_of_range")
	ErrUnknownCategory  = errors.New("unknown_category")
	ErrCategoryUsed     = errors.New("category_used")
	ErrPlayerOutOfRange = errors.New("player_out_of_range")
	ErrInvalidCapacity  = errors.New("invalid_capacity")
	ErrNameRequired     = errors.New("name_required")
)
