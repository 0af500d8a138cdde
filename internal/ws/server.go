// Package ws is the websocket transport. It upgrades connections, decodes
// inbound messages, and hands them to the session coordinator; outbound
// events flow through a per-client buffered send channel.
package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"dicehall/internal/session"
	"dicehall/internal/store"
)

const sendBuffer = 16

// Client is one websocket connection. Send marshals and queues without
// blocking; a client that cannot drain its channel loses events rather than
// stalling the room.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) ID() string { return c.id }

func (c *Client) Send(event any) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("conn_id", c.id).Msg("marshal outbound event")
		return
	}
	safeSend(c.send, msg)
}

type Server struct {
	coordinator *session.Coordinator
	upgrader    websocket.Upgrader
}

func NewServer(coordinator *session.Coordinator) *Server {
	return &Server{
		coordinator: coordinator,
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{id: store.NewID(), conn: conn, send: make(chan []byte, sendBuffer)}

	go client.writeLoop()
	s.readLoop(client)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.coordinator.Disconnect(c)
		safeClose(c.send)
		_ = c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(c, msg)
	}
}

// dispatch routes one inbound message. Coordinator errors are not handled
// here: denials already went back to the client as action_denied events.
func (s *Server) dispatch(c *Client, msg []byte) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		return
	}
	switch base.Type {
	case "claim_seat":
		var claim ClaimSeatMessage
		if err := json.Unmarshal(msg, &claim); err != nil {
			return
		}
		_ = s.coordinator.ClaimSeat(c, claim.RoomID, claim.Role, claim.Name, claim.PlayerID)
	case "release_seat":
		_ = s.coordinator.ReleaseSeat(c)
	case "set_name":
		var rename SetNameMessage
		if err := json.Unmarshal(msg, &rename); err != nil {
			return
		}
		_ = s.coordinator.SetName(c, rename.Name)
	case "set_ready":
		_ = s.coordinator.SetReady(c)
	case "roll":
		_ = s.coordinator.Roll(c)
	case "toggle_hold":
		var hold ToggleHoldMessage
		if err := json.Unmarshal(msg, &hold); err != nil {
			return
		}
		_ = s.coordinator.ToggleHold(c, hold.Index)
	case "choose":
		var choose ChooseMessage
		if err := json.Unmarshal(msg, &choose); err != nil {
			return
		}
		_ = s.coordinator.Choose(c, choose.Category)
	case "reset_room":
		_ = s.coordinator.ResetRoom(c)
	case "set_capacity":
		var resize SetCapacityMessage
		if err := json.Unmarshal(msg, &resize); err != nil {
			return
		}
		_ = s.coordinator.SetCapacity(c, resize.Capacity)
	case "request_history":
		var req RequestHistoryMessage
		if err := json.Unmarshal(msg, &req); err != nil {
			return
		}
		_ = s.coordinator.RequestHistory(c, req.Players, req.Limit, req.Mode)
	}
}

func (c *Client) writeLoop() {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() {
		_ = recover()
	}()
	select {
	case ch <- msg:
	default:
	}
}
