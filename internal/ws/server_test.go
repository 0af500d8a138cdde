package ws

import (
	"encoding/json"
	"testing"
	"time"

	"dicehall/internal/invite"
	"dicehall/internal/room"
	"dicehall/internal/session"
	"dicehall/internal/store"
	"dicehall/internal/token"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	signer := token.NewSigner([]byte("test-secret"), "dicehall-test")
	invites := invite.NewRegistry(signer, time.Hour)
	coordinator := session.NewCoordinator(room.NewRegistry(st), st, invites, time.Hour)
	return NewServer(coordinator)
}

func drain(c *Client) []map[string]any {
	var out []map[string]any
	for {
		select {
		case raw := <-c.send:
			var decoded map[string]any
			if err := json.Unmarshal(raw, &decoded); err == nil {
				out = append(out, decoded)
			}
		default:
			return out
		}
	}
}

func TestDispatchClaimSeatConfirms(t *testing.T) {
	srv := testServer(t)
	client := &Client{id: "c1", send: make(chan []byte, sendBuffer)}

	srv.dispatch(client, []byte(`{"type":"claim_seat","room_id":"room-a","role":1,"name":"Alice"}`))

	var claimed map[string]any
	for _, event := range drain(client) {
		if event["type"] == "seat_claimed" {
			claimed = event
		}
	}
	if claimed == nil {
		t.Fatal("expected seat_claimed reply")
	}
	if claimed["room_id"] != "room-a" || claimed["role"] != float64(1) {
		t.Fatalf("unexpected confirmation: %v", claimed)
	}
	if claimed["player_id"] == "" {
		t.Fatal("expected player_id in confirmation")
	}
}

func TestDispatchSeatlessActionDenied(t *testing.T) {
	srv := testServer(t)
	client := &Client{id: "c1", send: make(chan []byte, sendBuffer)}

	srv.dispatch(client, []byte(`{"type":"roll"}`))

	events := drain(client)
	if len(events) != 1 || events[0]["type"] != "action_denied" {
		t.Fatalf("expected a single action_denied, got %v", events)
	}
}

func TestDispatchIgnoresMalformedAndUnknown(t *testing.T) {
	srv := testServer(t)
	client := &Client{id: "c1", send: make(chan []byte, sendBuffer)}

	srv.dispatch(client, []byte(`not json`))
	srv.dispatch(client, []byte(`{"type":"mystery"}`))
	srv.dispatch(client, []byte(`{"type":"claim_seat","role":"one"}`))

	if events := drain(client); len(events) != 0 {
		t.Fatalf("expected silence, got %v", events)
	}
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	client := &Client{id: "c1", send: make(chan []byte, 1)}
	client.Send(map[string]string{"type": "first"})
	client.Send(map[string]string{"type": "second"})

	events := drain(client)
	if len(events) != 1 || events[0]["type"] != "first" {
		t.Fatalf("expected only the first event to queue, got %v", events)
	}
}
