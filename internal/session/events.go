package session

import (
	"time"

	"dicehall/internal/game"
	"dicehall/internal/room"
)

// Conn is one live client connection. Send must not block the caller; the ws
// transport backs it with a buffered channel.
type Conn interface {
	ID() string
	Send(event any)
}

// Outbound events. Each carries a type tag so clients can dispatch on it.

type SeatStatus struct {
	Role      int    `json:"role"`
	Name      string `json:"name"`
	Occupied  bool   `json:"occupied"`
	Connected bool   `json:"connected"`
}

type RoomStatus struct {
	Type     string       `json:"type"`
	RoomID   string       `json:"room_id"`
	Capacity int          `json:"capacity"`
	HostID   string       `json:"host_id,omitempty"`
	Seats    []SeatStatus `json:"seats"`
}

type GameState struct {
	Type           string           `json:"type"`
	RoomID         string           `json:"room_id"`
	Phase          game.Phase       `json:"phase"`
	Dice           [game.NumDice]int  `json:"dice"`
	Held           [game.NumDice]bool `json:"held"`
	RollsLeft      int              `json:"rolls_left"`
	CurrentPlayer  int              `json:"current_player"`
	ScoreSheets    []map[string]int `json:"score_sheets"`
	UsedCategories [][]string       `json:"used_categories"`
	PlayerNames    []string         `json:"player_names"`
	Ready          []bool           `json:"ready"`
	GameOver       bool             `json:"game_over"`
}

type PhaseChanged struct {
	Type  string     `json:"type"`
	Phase game.Phase `json:"phase"`
}

type ActionDenied struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type SeatClaimed struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	Role     int    `json:"role"`
	PlayerID string `json:"player_id"`
	HostID   string `json:"host_id,omitempty"`
}

type SeatRevoked struct {
	Type string `json:"type"`
}

type OpponentStatus struct {
	Type      string `json:"type"`
	Role      int    `json:"role"`
	Connected bool   `json:"connected"`
}

type HistoryEntry struct {
	RoomID     string         `json:"room_id"`
	Scores     map[string]int `json:"scores"`
	Winner     string         `json:"winner"`
	Capacity   int            `json:"capacity"`
	FinishedAt time.Time      `json:"finished_at"`
}

type History struct {
	Type    string         `json:"type"`
	Entries []HistoryEntry `json:"entries"`
}

func roomStatusEvent(r *room.Room) RoomStatus {
	seats := make([]SeatStatus, 0, r.Capacity())
	for role := 1; role <= r.Capacity(); role++ {
		seat := r.Seat(role)
		seats = append(seats, SeatStatus{
			Role:      role,
			Name:      seat.DisplayName,
			Occupied:  seat.Occupied(),
			Connected: seat.Connected,
		})
	}
	return RoomStatus{
		Type:     "room_status",
		RoomID:   r.ID,
		Capacity: r.Capacity(),
		HostID:   r.HostID,
		Seats:    seats,
	}
}

func gameStateEvent(r *room.Room) GameState {
	s := r.State().Clone()
	return GameState{
		Type:           "game_state",
		RoomID:         r.ID,
		Phase:          s.Phase,
		Dice:           s.Dice,
		Held:           s.Held,
		RollsLeft:      s.RollsLeft,
		CurrentPlayer:  s.CurrentPlayer,
		ScoreSheets:    s.ScoreSheets,
		UsedCategories: s.UsedCategories(),
		PlayerNames:    s.PlayerNames,
		Ready:          s.Ready,
		GameOver:       s.GameOver,
	}
}
