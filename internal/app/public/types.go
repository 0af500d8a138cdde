package public

import "time"

type CreateRoomResponse struct {
	RoomID      string `json:"room_id"`
	Code        string `json:"code"`
	InviteToken string `json:"invite_token"`
	HostID      string `json:"host_id"`
	PlayerID    string `json:"player_id"`
}

type JoinResponse struct {
	RoomID      string `json:"room_id"`
	Code        string `json:"code"`
	HostID      string `json:"host_id,omitempty"`
	InviteToken string `json:"invite_token,omitempty"`
}

type InviteResponse struct {
	Code      string    `json:"code"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SeatSummary struct {
	Role      int    `json:"role"`
	Name      string `json:"name"`
	Occupied  bool   `json:"occupied"`
	Connected bool   `json:"connected"`
}

type RoomSummary struct {
	ID       string        `json:"id"`
	Code     string        `json:"code,omitempty"`
	Capacity int           `json:"capacity"`
	Phase    string        `json:"phase"`
	HostID   string        `json:"host_id,omitempty"`
	Seats    []SeatSummary `json:"seats"`
}

type RoomsResponse struct {
	Items []RoomSummary `json:"items"`
}

type HistoryItem struct {
	RoomID     string         `json:"room_id"`
	Scores     map[string]int `json:"scores"`
	Winner     string         `json:"winner"`
	Capacity   int            `json:"capacity"`
	FinishedAt time.Time      `json:"finished_at"`
}

type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
}
