package room

import (
	"testing"
	"time"

	"dicehall/internal/game"
	"dicehall/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st
}

func TestCreateValidatesCapacity(t *testing.T) {
	g := NewRegistry(testStore(t))
	if _, err := g.Create(1, ""); err == nil {
		t.Fatal("capacity 1 accepted")
	}
	if _, err := g.Create(7, ""); err == nil {
		t.Fatal("capacity 7 accepted")
	}
	r, err := g.Create(4, "host-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Capacity() != 4 || r.HostID != "host-1" {
		t.Fatalf("room = capacity %d host %q", r.Capacity(), r.HostID)
	}
	if len(r.Seats) != 4 || r.Seat(1) == nil || r.Seat(4) == nil {
		t.Fatalf("seats = %d", len(r.Seats))
	}
	if r.Tokens.Read == "" || r.Tokens.Write == "" {
		t.Fatal("room tokens not generated")
	}
}

func TestEnsureReturnsSameInstance(t *testing.T) {
	g := NewRegistry(testStore(t))
	r, err := g.Create(2, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	again, err := g.Ensure(r.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if again != r {
		t.Fatal("ensure returned a second live instance")
	}
}

func TestEnsureMaterializesFromStore(t *testing.T) {
	st := testStore(t)
	g := NewRegistry(st)

	state := game.NewState(3)
	state.PlayerNames[0] = "alice"
	state.PlayerNames[2] = "carol"
	rec := store.RoomRecord{
		RoomID:    "room-1",
		Tokens:    store.RoomTokens{Read: "r", Write: "w"},
		State:     state,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now(),
		Capacity:  3,
		HostID:    "host-1",
	}
	if err := st.Put(rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	r, err := g.Ensure("room-1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if r.Capacity() != 3 || r.HostID != "host-1" {
		t.Fatalf("materialized capacity %d host %q", r.Capacity(), r.HostID)
	}
	seat := r.Seat(1)
	if seat == nil || seat.DisplayName != "alice" || seat.Connected {
		t.Fatalf("seat 1 = %+v", seat)
	}
	if r.Seat(3).DisplayName != "carol" {
		t.Fatalf("seat 3 = %+v", r.Seat(3))
	}
}

func TestEnsureUnknownRoomGetsDefaults(t *testing.T) {
	g := NewRegistry(testStore(t))
	r, err := g.Ensure("fresh-room")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if r.Capacity() != DefaultCapacity || r.State().Phase != game.PhaseSetup {
		t.Fatalf("fresh room = capacity %d phase %s", r.Capacity(), r.State().Phase)
	}
}

func TestSetCapacityTearsDownRemovedSeats(t *testing.T) {
	g := NewRegistry(testStore(t))
	r, err := g.Create(4, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	r.Seat(4).DisplayName = "dave"
	r.State().PlayerNames[3] = "dave"

	removed, err := r.SetCapacity(2)
	if err != nil {
		t.Fatalf("set capacity: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed = %d seats, want 2", len(removed))
	}
	if len(r.Seats) != 2 || r.Seat(3) != nil {
		t.Fatalf("seats after shrink = %d", len(r.Seats))
	}
	if len(r.State().PlayerNames) != 2 {
		t.Fatalf("state arrays = %d, want 2", len(r.State().PlayerNames))
	}
}

func TestDeleteDropsLiveInstanceOnly(t *testing.T) {
	st := testStore(t)
	g := NewRegistry(st)
	r, err := g.Create(2, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.Put(r.Record()); err != nil {
		t.Fatalf("persist: %v", err)
	}

	g.Delete(r.ID)
	if g.Get(r.ID) != nil {
		t.Fatal("live instance survived delete")
	}
	revived, err := g.Ensure(r.ID)
	if err != nil {
		t.Fatalf("ensure after delete: %v", err)
	}
	if revived.ID != r.ID {
		t.Fatalf("revived id = %s", revived.ID)
	}
}
