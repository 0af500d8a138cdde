// Package room holds the live in-memory room model and its registry.
package room

import (
	"sync"
	"time"

	"dicehall/internal/game"
	"dicehall/internal/store"
)

// Seat is one player's claim on a room. The release timer is owned by the
// seat: any mutation cancels it first so a stale timer can never fire after a
// reclaim.
type Seat struct {
	Role            int       `json:"role"`
	DisplayName     string    `json:"display_name"`
	PlayerID        string    `json:"player_id,omitempty"`
	ConnectionID    string    `json:"-"`
	Connected       bool      `json:"connected"`
	ReleaseDeadline time.Time `json:"release_deadline,omitempty"`

	releaseTimer *time.Timer
}

func (s *Seat) Occupied() bool { return s.DisplayName != "" }

// ScheduleRelease arms the grace timer, replacing any pending one.
func (s *Seat) ScheduleRelease(grace time.Duration, fire func()) {
	s.CancelRelease()
	s.ReleaseDeadline = time.Now().Add(grace)
	s.releaseTimer = time.AfterFunc(grace, fire)
}

func (s *Seat) CancelRelease() {
	if s.releaseTimer != nil {
		s.releaseTimer.Stop()
		s.releaseTimer = nil
	}
	s.ReleaseDeadline = time.Time{}
}

// Vacate clears the seat back to the unclaimed state.
func (s *Seat) Vacate() {
	s.CancelRelease()
	s.DisplayName = ""
	s.PlayerID = ""
	s.ConnectionID = ""
	s.Connected = false
}

// Room is the unit of isolation for one match. All mutation happens under the
// room's lock; the registry guarantees at most one live instance per id, so
// holding the lock serializes every action touching this room.
type Room struct {
	mu sync.Mutex

	ID        string
	Seats     map[int]*Seat
	Engine    *game.Engine
	HostID    string
	CreatedAt time.Time
	Tokens    store.RoomTokens
}

func New(id string, capacity int) *Room {
	r := &Room{
		ID:        id,
		Seats:     map[int]*Seat{},
		Engine:    game.NewEngine(game.NewState(capacity), nil),
		CreatedAt: time.Now(),
		Tokens:    store.RoomTokens{Read: store.NewID(), Write: store.NewID()},
	}
	r.syncSeats()
	return r
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

func (r *Room) State() *game.State { return r.Engine.State }
func (r *Room) Capacity() int      { return r.Engine.State.Capacity() }

// Seat returns the seat for a role, or nil when the role is out of range.
func (r *Room) Seat(role int) *Seat { return r.Seats[role] }

// syncSeats keeps the seat map covering exactly roles 1..capacity.
func (r *Room) syncSeats() (removed []*Seat) {
	capacity := r.Capacity()
	for role := 1; role <= capacity; role++ {
		if r.Seats[role] == nil {
			r.Seats[role] = &Seat{Role: role}
		}
	}
	for role, seat := range r.Seats {
		if role > capacity {
			seat.CancelRelease()
			removed = append(removed, seat)
			delete(r.Seats, role)
		}
	}
	return removed
}

// SetCapacity resizes the room during setup, creating new empty seats or
// tearing down the ones beyond the new capacity. Torn-down seats are returned
// so their occupants can be notified.
func (r *Room) SetCapacity(capacity int) ([]*Seat, error) {
	if err := r.Engine.Resize(capacity); err != nil {
		return nil, err
	}
	return r.syncSeats(), nil
}

// Record snapshots the room for persistence.
func (r *Room) Record() store.RoomRecord {
	return store.RoomRecord{
		RoomID:    r.ID,
		Tokens:    r.Tokens,
		State:     r.Engine.State.Clone(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: time.Now(),
		Capacity:  r.Capacity(),
		HostID:    r.HostID,
	}
}
