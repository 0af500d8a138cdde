package ws

// Inbound client messages. Every message carries a type tag; payload fields
// are per type.

type ClaimSeatMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	Role     int    `json:"role"`
	Name     string `json:"name"`
	PlayerID string `json:"player_id,omitempty"`
}

type SetNameMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type ToggleHoldMessage struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type ChooseMessage struct {
	Type     string `json:"type"`
	Category string `json:"category"`
}

type SetCapacityMessage struct {
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
}

type RequestHistoryMessage struct {
	Type    string   `json:"type"`
	Players []string `json:"players,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Mode    string   `json:"mode,omitempty"`
}
