// Package directory maps rooms to short human-typeable codes and to their
// current invite token.
package directory

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"
	"time"
)

// codeAlphabet excludes the visually ambiguous 0/O and 1/I.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// Entry is the directory record for one room. The code is the durable
// human-facing handle; the invite token is the rotating secret one.
type Entry struct {
	RoomID      string    `json:"room_id"`
	Code        string    `json:"code"`
	InviteToken string    `json:"invite_token,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Directory struct {
	mu      sync.Mutex
	byRoom  map[string]*Entry
	byCode  map[string]*Entry
	byToken map[string]*Entry
}

func New() *Directory {
	return &Directory{
		byRoom:  map[string]*Entry{},
		byCode:  map[string]*Entry{},
		byToken: map[string]*Entry{},
	}
}

// Create registers a room, generating a collision-free code. Calling it again
// for a known room returns the existing entry unchanged.
func (d *Directory) Create(roomID string) *Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	if entry := d.byRoom[roomID]; entry != nil {
		return entry
	}
	code := d.newCodeLocked()
	now := time.Now()
	entry := &Entry{RoomID: roomID, Code: code, CreatedAt: now, UpdatedAt: now}
	d.byRoom[roomID] = entry
	d.byCode[code] = entry
	return entry
}

func (d *Directory) newCodeLocked() string {
	for {
		code := randomCode()
		if _, taken := d.byCode[code]; !taken {
			return code
		}
	}
}

func randomCode() string {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b)
}

// SetToken records the room's current invite token, re-indexing the token
// lookup. The code never changes.
func (d *Directory) SetToken(roomID, inviteToken string) *Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := d.byRoom[roomID]
	if entry == nil {
		return nil
	}
	if entry.InviteToken != "" {
		delete(d.byToken, entry.InviteToken)
	}
	entry.InviteToken = inviteToken
	entry.UpdatedAt = time.Now()
	if inviteToken != "" {
		d.byToken[inviteToken] = entry
	}
	return entry
}

func (d *Directory) GetByRoomID(roomID string) *Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byRoom[roomID]
}

func (d *Directory) GetByCode(code string) *Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byCode[NormalizeCode(code)]
}

func (d *Directory) GetByToken(inviteToken string) *Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byToken[inviteToken]
}

// Touch bumps the entry's updated timestamp, used as a liveness signal.
func (d *Directory) Touch(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if entry := d.byRoom[roomID]; entry != nil {
		entry.UpdatedAt = time.Now()
	}
}

// NormalizeCode upper-cases a typed code, strips separators and whitespace,
// and drops the ambiguous characters the alphabet never contains.
func NormalizeCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(code)) {
		switch {
		case r == '-' || r == ' ' || r == '.':
			continue
		case r == '0' || r == 'O' || r == '1' || r == 'I':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCode renders a code for display as XXX-XXX.
func FormatCode(code string) string {
	if len(code) != codeLength {
		return code
	}
	return code[:3] + "-" + code[3:]
}
