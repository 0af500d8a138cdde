package game

import "sort"

const (
	NumDice            = 5
	CategoriesPerSheet = 13
	MinCapacity        = 2
	MaxCapacity        = 6
)

type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// State is the authoritative turn state for one room. The per-player slices
// (PlayerNames, Ready, ScoreSheets) are parallel and stay in lockstep: resize
// is the only code path that changes their length.
type State struct {
	Phase         Phase            `json:"phase"`
	Dice          [NumDice]int     `json:"dice"`
	Held          [NumDice]bool    `json:"held"`
	RollsLeft     int              `json:"rolls_left"`
	CurrentPlayer int              `json:"current_player"`
	ScoreSheets   []map[string]int `json:"score_sheets"`
	PlayerNames   []string         `json:"player_names"`
	Ready         []bool           `json:"ready"`
	GameOver      bool             `json:"game_over"`
}

func NewState(capacity int) *State {
	s := &State{
		Phase:     PhaseSetup,
		RollsLeft: 3,
	}
	s.resize(capacity)
	return s
}

func (s *State) Capacity() int { return len(s.PlayerNames) }

// Clone deep-copies the state so snapshots can be marshalled outside the
// room lock.
func (s *State) Clone() *State {
	out := *s
	out.PlayerNames = append([]string(nil), s.PlayerNames...)
	out.Ready = append([]bool(nil), s.Ready...)
	out.ScoreSheets = make([]map[string]int, len(s.ScoreSheets))
	for i, sheet := range s.ScoreSheets {
		copied := make(map[string]int, len(sheet))
		for cat, score := range sheet {
			copied[cat] = score
		}
		out.ScoreSheets[i] = copied
	}
	return &out
}

// resize pads or truncates every per-player slice to capacity, default-filling
// new slots. Callers validate capacity and phase first.
func (s *State) resize(capacity int) {
	for len(s.PlayerNames) < capacity {
		s.PlayerNames = append(s.PlayerNames, "")
		s.Ready = append(s.Ready, false)
		s.ScoreSheets = append(s.ScoreSheets, map[string]int{})
	}
	s.PlayerNames = s.PlayerNames[:capacity]
	s.Ready = s.Ready[:capacity]
	s.ScoreSheets = s.ScoreSheets[:capacity]
	if s.CurrentPlayer >= capacity {
		s.CurrentPlayer = 0
	}
}

// UsedCategories reports the filled category names per player, sorted, the
// shape used-category sets take on the wire.
func (s *State) UsedCategories() [][]string {
	used := make([][]string, len(s.ScoreSheets))
	for i, sheet := range s.ScoreSheets {
		names := make([]string, 0, len(sheet))
		for cat := range sheet {
			names = append(names, cat)
		}
		sort.Strings(names)
		used[i] = names
	}
	return used
}

func (s *State) sheetComplete(player int) bool {
	return len(s.ScoreSheets[player]) == CategoriesPerSheet
}

func (s *State) allSheetsComplete() bool {
	for i := range s.ScoreSheets {
		if !s.sheetComplete(i) {
			return false
		}
	}
	return true
}
