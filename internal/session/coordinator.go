// Package session mediates every inbound player action: seat claims and
// releases, reconnection grace, host-gated administration, turn actions, and
// broadcast fan-out.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dicehall/internal/game"
	"dicehall/internal/invite"
	"dicehall/internal/room"
	"dicehall/internal/store"
)

const (
	DefaultGrace    = 120 * time.Second
	janitorInterval = time.Minute
	maxNameLength   = 40
)

type binding struct {
	conn   Conn
	roomID string
	role   int
}

// Coordinator serializes all mutation of a room behind the room's lock. The
// registry hands out one live instance per id, so the lock is the room's
// single mailbox; handlers never hold it across anything that can block.
type Coordinator struct {
	rooms   *room.Registry
	store   *store.Store
	invites *invite.Registry
	grace   time.Duration

	mu    sync.Mutex
	conns map[string]*binding
	subs  map[string]map[string]Conn
}

func NewCoordinator(rooms *room.Registry, st *store.Store, invites *invite.Registry, grace time.Duration) *Coordinator {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Coordinator{
		rooms:   rooms,
		store:   st,
		invites: invites,
		grace:   grace,
		conns:   map[string]*binding{},
		subs:    map[string]map[string]Conn{},
	}
}

// normalizeName trims, collapses inner whitespace, and caps length.
func normalizeName(name string) string {
	clean := strings.Join(strings.Fields(name), " ")
	if runes := []rune(clean); len(runes) > maxNameLength {
		clean = string(runes[:maxNameLength])
	}
	return clean
}

func (c *Coordinator) deny(conn Conn, err error, msg string) error {
	conn.Send(ActionDenied{Type: "action_denied", Message: msg})
	return err
}

// ClaimSeat binds a connection to a seat. A connection holds at most one seat
// at a time; claiming while seated elsewhere releases the old seat first.
func (c *Coordinator) ClaimSeat(conn Conn, roomID string, role int, name, playerID string) error {
	cleanName := normalizeName(name)
	if cleanName == "" {
		return c.deny(conn, ErrEmptyName, "a display name is required")
	}

	r, err := c.rooms.Ensure(roomID)
	if err != nil {
		return c.deny(conn, err, "room unavailable")
	}

	r.Lock()
	capacity := r.Capacity()
	r.Unlock()
	if role < 1 || role > capacity {
		return c.deny(conn, ErrInvalidRole, fmt.Sprintf("role must be between 1 and %d", capacity))
	}

	c.mu.Lock()
	prev := c.conns[conn.ID()]
	c.mu.Unlock()
	if prev != nil && (prev.roomID != roomID || prev.role != role) {
		c.releaseSeat(conn, prev)
	}

	r.Lock()
	seat := r.Seat(role)
	if seat == nil {
		r.Unlock()
		return c.deny(conn, ErrInvalidRole, "seat no longer exists")
	}
	if seat.Occupied() && !strings.EqualFold(seat.DisplayName, cleanName) && seat.ConnectionID != conn.ID() {
		reserved := seat.DisplayName
		r.Unlock()
		return c.deny(conn, ErrSeatReserved, "seat reserved by "+reserved)
	}

	// Same name arriving on a new connection takes the seat over; the old
	// connection is told its seat is gone.
	var evicted Conn
	if seat.ConnectionID != "" && seat.ConnectionID != conn.ID() {
		c.mu.Lock()
		if old := c.conns[seat.ConnectionID]; old != nil {
			evicted = old.conn
			delete(c.conns, seat.ConnectionID)
			c.unsubscribeLocked(roomID, seat.ConnectionID)
		}
		c.mu.Unlock()
	}

	seat.CancelRelease()
	seat.DisplayName = cleanName
	if seat.PlayerID == "" {
		if playerID == "" {
			playerID = store.NewID()
		}
		seat.PlayerID = playerID
	}
	seat.ConnectionID = conn.ID()
	seat.Connected = true
	r.State().PlayerNames[role-1] = cleanName
	if r.HostID == "" {
		r.HostID = seat.PlayerID
	}
	claimedID, hostID := seat.PlayerID, r.HostID
	rec := r.Record()
	status, state := roomStatusEvent(r), gameStateEvent(r)
	r.Unlock()

	if evicted != nil {
		evicted.Send(SeatRevoked{Type: "seat_revoked"})
	}

	c.mu.Lock()
	c.conns[conn.ID()] = &binding{conn: conn, roomID: roomID, role: role}
	c.subscribeLocked(roomID, conn)
	c.mu.Unlock()

	c.persist(rec)
	c.broadcast(roomID, status, state)
	conn.Send(SeatClaimed{Type: "seat_claimed", RoomID: roomID, Role: role, PlayerID: claimedID, HostID: hostID})
	return nil
}

// ReleaseSeat vacates the caller's seat immediately.
func (c *Coordinator) ReleaseSeat(conn Conn) error {
	c.mu.Lock()
	b := c.conns[conn.ID()]
	c.mu.Unlock()
	if b == nil {
		return c.deny(conn, ErrNoSeat, "no seat held")
	}
	c.releaseSeat(conn, b)
	return nil
}

// releaseSeat fully vacates the seat bound to conn and tells the rest of the
// room about the freed seat.
func (c *Coordinator) releaseSeat(conn Conn, b *binding) {
	c.mu.Lock()
	delete(c.conns, conn.ID())
	c.unsubscribeLocked(b.roomID, conn.ID())
	c.mu.Unlock()

	r, err := c.rooms.Ensure(b.roomID)
	if err != nil {
		return
	}
	r.Lock()
	seat := r.Seat(b.role)
	if seat == nil || seat.ConnectionID != conn.ID() {
		r.Unlock()
		return
	}
	c.vacateLocked(r, seat)
	rec := r.Record()
	status, state := roomStatusEvent(r), gameStateEvent(r)
	r.Unlock()

	c.persist(rec)
	c.broadcast(b.roomID, status, state)
}

// vacateLocked clears a seat and the bookkeeping hanging off it. During setup
// the per-player state slots empty too; once a match is underway the state
// keeps the name so score sheets stay attributable and the seat reclaimable.
func (c *Coordinator) vacateLocked(r *room.Room, seat *room.Seat) {
	wasHost := seat.PlayerID != "" && seat.PlayerID == r.HostID
	seat.Vacate()
	if s := r.State(); s.Phase == game.PhaseSetup {
		s.PlayerNames[seat.Role-1] = ""
		s.Ready[seat.Role-1] = false
	}
	if wasHost {
		r.HostID = ""
	}
}

// Disconnect handles a dropped connection: the seat stays reserved under the
// player's name for the grace period, then is force-vacated.
func (c *Coordinator) Disconnect(conn Conn) {
	c.mu.Lock()
	b := c.conns[conn.ID()]
	delete(c.conns, conn.ID())
	if b != nil {
		c.unsubscribeLocked(b.roomID, conn.ID())
	}
	c.mu.Unlock()
	if b == nil {
		return
	}

	r, err := c.rooms.Ensure(b.roomID)
	if err != nil {
		return
	}
	r.Lock()
	seat := r.Seat(b.role)
	if seat == nil || seat.ConnectionID != conn.ID() {
		r.Unlock()
		return
	}
	seat.Connected = false
	seat.ConnectionID = ""
	roomID, role := b.roomID, b.role
	seat.ScheduleRelease(c.grace, func() { c.expireSeat(roomID, role) })
	rec := r.Record()
	status := roomStatusEvent(r)
	opp := OpponentStatus{Type: "opponent_status", Role: role, Connected: false}
	r.Unlock()

	c.persist(rec)
	c.broadcast(roomID, status, opp)
}

// expireSeat fires when a disconnected seat's grace period lapses. It is a
// no-op unless the seat is still disconnected with a passed deadline, so a
// reclaim that lost the race with the timer stays seated.
func (c *Coordinator) expireSeat(roomID string, role int) {
	r, err := c.rooms.Ensure(roomID)
	if err != nil {
		return
	}
	r.Lock()
	seat := r.Seat(role)
	if seat == nil || seat.Connected || seat.ConnectionID != "" ||
		seat.ReleaseDeadline.IsZero() || time.Now().Before(seat.ReleaseDeadline) {
		r.Unlock()
		return
	}
	name := seat.DisplayName
	c.vacateLocked(r, seat)
	rec := r.Record()
	status, state := roomStatusEvent(r), gameStateEvent(r)
	r.Unlock()

	log.Info().Str("room_id", roomID).Int("role", role).Str("name", name).Msg("seat grace expired")
	c.persist(rec)
	c.broadcast(roomID, status, state)
}

// SetName renames the caller's seat.
func (c *Coordinator) SetName(conn Conn, name string) error {
	clean := normalizeName(name)
	if clean == "" {
		return c.deny(conn, ErrEmptyName, "a display name is required")
	}
	b := c.bindingFor(conn)
	if b == nil {
		return c.deny(conn, ErrNoSeat, "no seat held")
	}

	r, err := c.rooms.Ensure(b.roomID)
	if err != nil {
		return c.deny(conn, err, "room unavailable")
	}
	r.Lock()
	seat := r.Seat(b.role)
	if seat == nil || seat.ConnectionID != conn.ID() {
		r.Unlock()
		return c.deny(conn, ErrNoSeat, "no seat held")
	}
	seat.DisplayName = clean
	r.State().PlayerNames[b.role-1] = clean
	rec := r.Record()
	status, state := roomStatusEvent(r), gameStateEvent(r)
	r.Unlock()

	c.persist(rec)
	c.broadcast(b.roomID, status, state)
	return nil
}

// SetReady marks the caller ready; when the last seat readies up the match
// starts and the phase change is announced.
func (c *Coordinator) SetReady(conn Conn) error {
	b := c.bindingFor(conn)
	if b == nil {
		return c.deny(conn, ErrNoSeat, "no seat held")
	}
	r, err := c.rooms.Ensure(b.roomID)
	if err != nil {
		return c.deny(conn, err, "room unavailable")
	}

	r.Lock()
	started, err := r.Engine.MarkReady(b.role - 1)
	if err != nil {
		r.Unlock()
		return c.deny(conn, err, err.Error())
	}
	rec := r.Record()
	state := gameStateEvent(r)
	r.Unlock()

	c.persist(rec)
	c.broadcast(b.roomID, state)
	if started {
		c.broadcast(b.roomID, PhaseChanged{Type: "phase_changed", Phase: game.PhasePlaying})
	}
	return nil
}

// Roll rerolls the caller's unheld dice.
func (c *Coordinator) Roll(conn Conn) error {
	return c.turnAction(conn, func(r *room.Room, player int) error {
		return r.Engine.Roll(player)
	})
}

// ToggleHold flips a die's hold flag for the caller.
func (c *Coordinator) ToggleHold(conn Conn, index int) error {
	return c.turnAction(conn, func(r *room.Room, player int) error {
		return r.Engine.ToggleHold(player, index)
	})
}

// turnAction runs a validated state-machine mutation for the caller's seat.
// On validation failure nothing is applied and the caller gets a denial.
func (c *Coordinator) turnAction(conn Conn, apply func(r *room.Room, player int) error) error {
	b := c.bindingFor(conn)
	if b == nil {
		return c.deny(conn, ErrNoSeat, "no seat held")
	}
	r, err := c.rooms.Ensure(b.roomID)
	if err != nil {
		return c.deny(conn, err, "room unavailable")
	}

	r.Lock()
	if err := apply(r, b.role-1); err != nil {
		r.Unlock()
		return c.deny(conn, err, err.Error())
	}
	rec := r.Record()
	state := gameStateEvent(r)
	r.Unlock()

	c.persist(rec)
	c.broadcast(b.roomID, state)
	return nil
}

// Choose scores a category for the caller. A match-completing choice archives
// the finished record under its synthetic key before the regular snapshot, so
// a later rematch can never overwrite it.
func (c *Coordinator) Choose(conn Conn, category string) error {
	b := c.bindingFor(conn)
	if b == nil {
		return c.deny(conn, ErrNoSeat, "no seat held")
	}
	r, err := c.rooms.Ensure(b.roomID)
	if err != nil {
		return c.deny(conn, err, "room unavailable")
	}

	r.Lock()
	finished, err := r.Engine.Choose(b.role-1, category)
	if err != nil {
		r.Unlock()
		return c.deny(conn, err, err.Error())
	}
	rec := r.Record()
	var archived *store.RoomRecord
	if finished {
		now := time.Now()
		final := r.Record()
		final.FinishedAt = &now
		final.Scores = r.State().FinalScores()
		final.Winner = r.State().Winner()
		archived = &final
	}
	state := gameStateEvent(r)
	r.Unlock()

	if archived != nil {
		if err := c.store.Archive(*archived); err != nil {
			log.Error().Err(err).Str("room_id", b.roomID).Msg("archive finished match failed")
		}
	}
	c.persist(rec)
	c.broadcast(b.roomID, state)
	if finished {
		c.broadcast(b.roomID, PhaseChanged{Type: "phase_changed", Phase: game.PhaseFinished})
	}
	return nil
}

// ResetRoom clears match progress for a rematch, keeping display names. The
// room's createdAt moves forward so the next finished match archives under a
// fresh key. Host-gated.
func (c *Coordinator) ResetRoom(conn Conn) error {
	b := c.bindingFor(conn)
	if b == nil {
		return c.deny(conn, ErrNoSeat, "no seat held")
	}
	r, err := c.rooms.Ensure(b.roomID)
	if err != nil {
		return c.deny(conn, err, "room unavailable")
	}

	r.Lock()
	if err := c.requireHostLocked(r, b); err != nil {
		r.Unlock()
		return c.deny(conn, err, "forbidden")
	}
	r.Engine.Reset()
	r.CreatedAt = time.Now()
	rec := r.Record()
	status, state := roomStatusEvent(r), gameStateEvent(r)
	r.Unlock()

	c.persist(rec)
	c.broadcast(b.roomID, status, state, PhaseChanged{Type: "phase_changed", Phase: game.PhaseSetup})
	return nil
}

// SetCapacity resizes a setup-phase room. Occupants of torn-down seats are
// notified and unbound. Host-gated.
func (c *Coordinator) SetCapacity(conn Conn, capacity int) error {
	b := c.bindingFor(conn)
	if b == nil {
		return c.deny(conn, ErrNoSeat, "no seat held")
	}
	r, err := c.rooms.Ensure(b.roomID)
	if err != nil {
		return c.deny(conn, err, "room unavailable")
	}

	r.Lock()
	if err := c.requireHostLocked(r, b); err != nil {
		r.Unlock()
		return c.deny(conn, err, "forbidden")
	}
	removed, err := r.SetCapacity(capacity)
	if err != nil {
		r.Unlock()
		return c.deny(conn, err, err.Error())
	}
	rec := r.Record()
	status, state := roomStatusEvent(r), gameStateEvent(r)
	r.Unlock()

	var evictedConns []Conn
	c.mu.Lock()
	for _, seat := range removed {
		if seat.ConnectionID == "" {
			continue
		}
		if old := c.conns[seat.ConnectionID]; old != nil {
			evictedConns = append(evictedConns, old.conn)
			delete(c.conns, seat.ConnectionID)
			c.unsubscribeLocked(b.roomID, seat.ConnectionID)
		}
	}
	c.mu.Unlock()
	for _, evicted := range evictedConns {
		evicted.Send(SeatRevoked{Type: "seat_revoked"})
	}

	c.persist(rec)
	c.broadcast(b.roomID, status, state)
	return nil
}

// requireHostLocked allows the room host through, or anyone while the room
// has no host yet.
func (c *Coordinator) requireHostLocked(r *room.Room, b *binding) error {
	if r.HostID == "" {
		return nil
	}
	seat := r.Seat(b.role)
	if seat == nil || seat.PlayerID == "" || seat.PlayerID != r.HostID {
		return ErrForbidden
	}
	return nil
}

// RequestHistory sends finished-match records to the requester only.
func (c *Coordinator) RequestHistory(conn Conn, players []string, limit int, mode string) error {
	filter := store.HistoryFilter{Players: players, Limit: limit, Mode: store.HistoryExact}
	if mode == string(store.HistoryContains) {
		filter.Mode = store.HistoryContains
	}
	records, err := c.store.History(filter)
	if err != nil {
		return c.deny(conn, err, "history unavailable")
	}
	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, HistoryEntry{
			RoomID:     rec.RoomID,
			Scores:     rec.Scores,
			Winner:     rec.Winner,
			Capacity:   rec.Capacity,
			FinishedAt: *rec.FinishedAt,
		})
	}
	conn.Send(History{Type: "history", Entries: entries})
	return nil
}

func (c *Coordinator) bindingFor(conn Conn) *binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conns[conn.ID()]
}

func (c *Coordinator) subscribeLocked(roomID string, conn Conn) {
	if c.subs[roomID] == nil {
		c.subs[roomID] = map[string]Conn{}
	}
	c.subs[roomID][conn.ID()] = conn
}

func (c *Coordinator) unsubscribeLocked(roomID, connID string) {
	if subs := c.subs[roomID]; subs != nil {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(c.subs, roomID)
		}
	}
}

func (c *Coordinator) broadcast(roomID string, events ...any) {
	c.mu.Lock()
	targets := make([]Conn, 0, len(c.subs[roomID]))
	for _, conn := range c.subs[roomID] {
		targets = append(targets, conn)
	}
	c.mu.Unlock()
	for _, conn := range targets {
		for _, event := range events {
			conn.Send(event)
		}
	}
}

func (c *Coordinator) persist(rec store.RoomRecord) {
	if err := c.store.Put(rec); err != nil {
		log.Error().Err(err).Str("room_id", rec.RoomID).Msg("persist room snapshot failed")
	}
}

// StartJanitor sweeps expired invites and lapsed seat deadlines on a fixed
// cadence until ctx is done. The seat sweep is a backstop for the per-seat
// timers; a lapsed deadline that still has its timer pending is handled
// idempotently by expireSeat.
func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = janitorInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.invites.Cleanup(now)
				c.sweepSeats(now)
			}
		}
	}()
}

func (c *Coordinator) sweepSeats(now time.Time) {
	for _, r := range c.rooms.List() {
		r.Lock()
		var lapsed []int
		for role, seat := range r.Seats {
			if seat.ConnectionID == "" && !seat.ReleaseDeadline.IsZero() && now.After(seat.ReleaseDeadline) {
				lapsed = append(lapsed, role)
			}
		}
		r.Unlock()
		for _, role := range lapsed {
			c.expireSeat(r.ID, role)
		}
	}
}
