package room

import (
	"errors"
	"sync"

	"dicehall/internal/game"
	"dicehall/internal/store"
)

// DefaultCapacity is used when a room is materialized without an explicit
// player count.
const DefaultCapacity = 2

// Registry holds the live authoritative state of every active room and hands
// out at most one in-memory instance per id. Rooms not in memory are lazily
// materialized from the persistence store on first access.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	store *store.Store
}

func NewRegistry(st *store.Store) *Registry {
	return &Registry{rooms: map[string]*Room{}, store: st}
}

// Create registers a brand-new room with a generated id.
func (g *Registry) Create(capacity int, hostID string) (*Room, error) {
	if capacity < game.MinCapacity || capacity > game.MaxCapacity {
		return nil, game.ErrInvalidCapacity
	}
	r := New(store.NewID(), capacity)
	r.HostID = hostID

	g.mu.Lock()
	g.rooms[r.ID] = r
	g.mu.Unlock()
	return r, nil
}

// Ensure returns the live room for an id, materializing it from the store or
// constructing fresh default state when no snapshot exists.
func (g *Registry) Ensure(id string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r := g.rooms[id]; r != nil {
		return r, nil
	}

	rec, err := g.store.Get(id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		r := New(id, DefaultCapacity)
		g.rooms[id] = r
		return r, nil
	}

	r := materialize(rec)
	g.rooms[id] = r
	return r, nil
}

// materialize rebuilds a live room from a snapshot. Previously occupied seats
// come back named but disconnected, with no release deadline: their players
// reclaim them by name.
func materialize(rec *store.RoomRecord) *Room {
	state := rec.State
	if state == nil {
		state = game.NewState(DefaultCapacity)
	}
	r := &Room{
		ID:        rec.RoomID,
		Seats:     map[int]*Seat{},
		Engine:    game.NewEngine(state, nil),
		HostID:    rec.HostID,
		CreatedAt: rec.CreatedAt,
		Tokens:    rec.Tokens,
	}
	r.syncSeats()
	for i, name := range state.PlayerNames {
		if seat := r.Seats[i+1]; seat != nil {
			seat.DisplayName = name
		}
	}
	return r
}

// Get returns the live room for an id, or nil when none is in memory.
func (g *Registry) Get(id string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rooms[id]
}

// Delete drops the live instance. The persisted snapshot is untouched.
func (g *Registry) Delete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, id)
}

// List snapshots the currently live rooms.
func (g *Registry) List() []*Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}
