// Package invite issues and tracks invite tokens, one active invite per room.
package invite

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dicehall/internal/store"
	"dicehall/internal/token"
)

const DefaultTTL = time.Hour

var (
	ErrRevoked      = errors.New("token_revoked")
	ErrRoomMismatch = errors.New("token_room_mismatch")
)

// Record tracks one issued invite.
type Record struct {
	Token      string    `json:"token"`
	RoomID     string    `json:"room_id"`
	Nonce      string    `json:"nonce"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

type Registry struct {
	signer *token.Signer
	ttl    time.Duration

	mu      sync.Mutex
	byRoom  map[string]*Record
	byToken map[string]*Record
	revoked map[string]struct{}
}

func NewRegistry(signer *token.Signer, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		signer:  signer,
		ttl:     ttl,
		byRoom:  map[string]*Record{},
		byToken: map[string]*Record{},
		revoked: map[string]struct{}{},
	}
}

// Issue signs a fresh invite for the room and atomically supersedes any prior
// one: the old token lands in the revocation set even though its signature
// would still verify.
func (r *Registry) Issue(roomID string, now time.Time) (*Record, error) {
	nonce := store.NewID()
	raw, err := r.signer.Sign(token.Payload{
		RoomID:    roomID,
		Nonce:     nonce,
		IssuedAt:  now,
		ExpiresAt: now.Add(r.ttl),
	})
	if err != nil {
		return nil, err
	}
	rec := &Record{
		Token:     raw,
		RoomID:    roomID,
		Nonce:     nonce,
		IssuedAt:  now,
		ExpiresAt: now.Add(r.ttl),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev := r.byRoom[roomID]; prev != nil {
		r.revokeLocked(prev)
	}
	r.byRoom[roomID] = rec
	r.byToken[raw] = rec
	return rec, nil
}

// Verify checks a presented token against the revocation set, the signer, and
// the tracked record, stamping last use on success.
func (r *Registry) Verify(raw string, now time.Time) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, revoked := r.revoked[raw]; revoked {
		if _, live := r.byToken[raw]; !live {
			return nil, ErrRevoked
		}
	}

	payload, err := r.signer.Verify(raw, now)
	if err != nil {
		return nil, err
	}

	rec := r.byToken[raw]
	if rec == nil {
		// Signed by us but unknown, e.g. issued before a restart. Re-register
		// it from the verified payload.
		rec = &Record{
			Token:     raw,
			RoomID:    payload.RoomID,
			Nonce:     payload.Nonce,
			IssuedAt:  payload.IssuedAt,
			ExpiresAt: payload.ExpiresAt,
		}
		if prev := r.byRoom[payload.RoomID]; prev != nil {
			r.revokeLocked(prev)
		}
		r.byRoom[payload.RoomID] = rec
		r.byToken[raw] = rec
	}

	if payload.RoomID != rec.RoomID {
		r.revokeLocked(rec)
		return nil, ErrRoomMismatch
	}
	if !now.Before(rec.ExpiresAt) {
		r.revokeLocked(rec)
		return nil, token.ErrExpired
	}
	rec.LastUsedAt = now
	return rec, nil
}

// RevokeRoom drops the room's active invite, if any.
func (r *Registry) RevokeRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec := r.byRoom[roomID]; rec != nil {
		r.revokeLocked(rec)
	}
}

func (r *Registry) revokeLocked(rec *Record) {
	r.revoked[rec.Token] = struct{}{}
	delete(r.byToken, rec.Token)
	if r.byRoom[rec.RoomID] == rec {
		delete(r.byRoom, rec.RoomID)
	}
}

// Cleanup drops expired records and prunes the revocation set of tokens whose
// natural expiry has passed, returning how many records were removed.
func (r *Registry) Cleanup(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for roomID, rec := range r.byRoom {
		if now.Before(rec.ExpiresAt) {
			continue
		}
		delete(r.byRoom, roomID)
		delete(r.byToken, rec.Token)
		removed++
	}
	for raw := range r.revoked {
		if _, err := r.signer.Verify(raw, now); errors.Is(err, token.ErrExpired) || errors.Is(err, token.ErrTampered) {
			delete(r.revoked, raw)
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("invite cleanup")
	}
	return removed
}
