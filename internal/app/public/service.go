// Package public is the application service behind the request/response
// surfaces (HTTP and MCP). It composes the registries; realtime play goes
// through the session coordinator instead.
package public

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"dicehall/internal/directory"
	"dicehall/internal/invite"
	"dicehall/internal/room"
	"dicehall/internal/store"
)

type Service struct {
	rooms   *room.Registry
	store   *store.Store
	invites *invite.Registry
	dir     *directory.Directory
}

func NewService(rooms *room.Registry, st *store.Store, invites *invite.Registry, dir *directory.Directory) *Service {
	return &Service{rooms: rooms, store: st, invites: invites, dir: dir}
}

// CreateRoom provisions a room with the creator pre-seated as host on seat 1,
// a short code, and a signed invite token.
func (s *Service) CreateRoom(playerCount int, displayName, playerID string) (*CreateRoomResponse, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name required", ErrInvalidRequest)
	}
	if playerCount == 0 {
		playerCount = room.DefaultCapacity
	}
	if playerID == "" {
		playerID = store.NewID()
	}

	r, err := s.rooms.Create(playerCount, playerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	r.Lock()
	seat := r.Seat(1)
	seat.DisplayName = name
	seat.PlayerID = playerID
	r.State().PlayerNames[0] = name
	rec := r.Record()
	r.Unlock()
	if err := s.store.Put(rec); err != nil {
		log.Error().Err(err).Str("room_id", r.ID).Msg("persist new room failed")
	}

	s.dir.Create(r.ID)
	invRec, err := s.invites.Issue(r.ID, time.Now())
	if err != nil {
		return nil, err
	}
	entry := s.dir.SetToken(r.ID, invRec.Token)

	return &CreateRoomResponse{
		RoomID:      r.ID,
		Code:        directory.FormatCode(entry.Code),
		InviteToken: invRec.Token,
		HostID:      playerID,
		PlayerID:    playerID,
	}, nil
}

// Join resolves a short code or an invite token to a room. Token failures
// propagate as their distinct sentinels so the transport can tell "get a new
// link" apart from "this link was never valid".
func (s *Service) Join(code, inviteToken string) (*JoinResponse, error) {
	if inviteToken != "" {
		rec, err := s.invites.Verify(inviteToken, time.Now())
		if err != nil {
			return nil, err
		}
		r, err := s.rooms.Ensure(rec.RoomID)
		if err != nil {
			return nil, err
		}
		entry := s.dir.Create(rec.RoomID)
		s.dir.Touch(rec.RoomID)
		r.Lock()
		hostID := r.HostID
		r.Unlock()
		return &JoinResponse{
			RoomID:      rec.RoomID,
			Code:        directory.FormatCode(entry.Code),
			HostID:      hostID,
			InviteToken: inviteToken,
		}, nil
	}

	normalized := directory.NormalizeCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: code or token required", ErrInvalidRequest)
	}
	entry := s.dir.GetByCode(normalized)
	if entry == nil {
		return nil, ErrRoomNotFound
	}
	r, err := s.rooms.Ensure(entry.RoomID)
	if err != nil {
		return nil, err
	}
	s.dir.Touch(entry.RoomID)
	r.Lock()
	hostID := r.HostID
	r.Unlock()
	return &JoinResponse{
		RoomID: entry.RoomID,
		Code:   directory.FormatCode(entry.Code),
		HostID: hostID,
	}, nil
}

// RefreshInvite rotates the room's invite. Host-gated once a host exists.
func (s *Service) RefreshInvite(roomID, playerID string) (*InviteResponse, error) {
	if err := s.requireKnown(roomID); err != nil {
		return nil, err
	}
	r, err := s.rooms.Ensure(roomID)
	if err != nil {
		return nil, err
	}
	r.Lock()
	hostID := r.HostID
	r.Unlock()
	if hostID != "" && playerID != hostID {
		return nil, ErrForbidden
	}

	invRec, err := s.invites.Issue(roomID, time.Now())
	if err != nil {
		return nil, err
	}
	s.dir.Create(roomID)
	entry := s.dir.SetToken(roomID, invRec.Token)
	return &InviteResponse{
		Code:      directory.FormatCode(entry.Code),
		Token:     invRec.Token,
		ExpiresAt: invRec.ExpiresAt,
	}, nil
}

// Rejoin is a liveness touch for a client that already knows its room id.
func (s *Service) Rejoin(roomID string) (*RoomSummary, error) {
	if err := s.requireKnown(roomID); err != nil {
		return nil, err
	}
	s.dir.Touch(roomID)
	return s.Summary(roomID)
}

// Summary reports the room's shape without mutating it.
func (s *Service) Summary(roomID string) (*RoomSummary, error) {
	if err := s.requireKnown(roomID); err != nil {
		return nil, err
	}
	r, err := s.rooms.Ensure(roomID)
	if err != nil {
		return nil, err
	}
	summary := s.summarize(r)
	return &summary, nil
}

// Rooms lists every live room, id-ordered.
func (s *Service) Rooms() *RoomsResponse {
	live := s.rooms.List()
	items := make([]RoomSummary, 0, len(live))
	for _, r := range live {
		items = append(items, s.summarize(r))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return &RoomsResponse{Items: items}
}

// History queries finished matches by participant names.
func (s *Service) History(players []string, limit int, mode string) (*HistoryResponse, error) {
	filter := store.HistoryFilter{Players: players, Limit: limit, Mode: store.HistoryExact}
	if mode == string(store.HistoryContains) {
		filter.Mode = store.HistoryContains
	}
	records, err := s.store.History(filter)
	if err != nil {
		return nil, err
	}
	items := make([]HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, HistoryItem{
			RoomID:     rec.RoomID,
			Scores:     rec.Scores,
			Winner:     rec.Winner,
			Capacity:   rec.Capacity,
			FinishedAt: *rec.FinishedAt,
		})
	}
	return &HistoryResponse{Items: items}, nil
}

// requireKnown rejects room ids that are neither live nor persisted, so the
// request/response surface cannot conjure rooms out of arbitrary ids.
func (s *Service) requireKnown(roomID string) error {
	if roomID == "" {
		return fmt.Errorf("%w: room id required", ErrInvalidRequest)
	}
	if s.rooms.Get(roomID) != nil {
		return nil
	}
	if _, err := s.store.Get(roomID); err != nil {
		return ErrRoomNotFound
	}
	return nil
}

func (s *Service) summarize(r *room.Room) RoomSummary {
	r.Lock()
	defer r.Unlock()
	seats := make([]SeatSummary, 0, r.Capacity())
	for role := 1; role <= r.Capacity(); role++ {
		seat := r.Seat(role)
		seats = append(seats, SeatSummary{
			Role:      role,
			Name:      seat.DisplayName,
			Occupied:  seat.Occupied(),
			Connected: seat.Connected,
		})
	}
	summary := RoomSummary{
		ID:       r.ID,
		Capacity: r.Capacity(),
		Phase:    string(r.State().Phase),
		HostID:   r.HostID,
		Seats:    seats,
	}
	if entry := s.dir.GetByRoomID(r.ID); entry != nil {
		summary.Code = directory.FormatCode(entry.Code)
	}
	return summary
}
