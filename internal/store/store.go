package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dicehall/internal/game"
)

var ErrNotFound = errors.New("not_found")

// RoomTokens are opaque per-room secrets used to namespace persisted records.
// They carry no authorization weight.
type RoomTokens struct {
	Read  string `json:"read"`
	Write string `json:"write"`
}

// RoomRecord is the persisted snapshot of one room. Live rooms are keyed by
// room id; a completed match is archived under a synthetic key carrying the
// room's createdAt so a rematch under the same id never overwrites it.
type RoomRecord struct {
	RoomID     string         `json:"room_id"`
	Tokens     RoomTokens     `json:"tokens"`
	State      *game.State    `json:"state"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Scores     map[string]int `json:"scores,omitempty"`
	Winner     string         `json:"winner,omitempty"`
	Capacity   int            `json:"capacity"`
	HostID     string         `json:"host_id,omitempty"`
}

// FinishedKey is the archive key for a completed match.
func (r RoomRecord) FinishedKey() string {
	return fmt.Sprintf("%s-finished-%d", r.RoomID, r.CreatedAt.Unix())
}

// Store persists room records as one JSON file per key under a data
// directory. Writes go to a temp file first and rename over the target, so a
// reader never observes a partial snapshot. Writes for different rooms do not
// block each other beyond the directory-level mutex held per call.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New opens (creating if needed) the data directory. An unreadable directory
// is a warning, not a boot failure: the store starts empty.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir}
	if _, err := os.ReadDir(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("data dir unreadable, starting with empty store")
	}
	return s, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Put writes the live snapshot for a room.
func (s *Store) Put(rec RoomRecord) error {
	return s.write(rec.RoomID, rec)
}

// Archive writes a completed match under its finished key, leaving the live
// record untouched.
func (s *Store) Archive(rec RoomRecord) error {
	return s.write(rec.FinishedKey(), rec)
}

func (s *Store) write(key string, rec RoomRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp for %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Get reads the live snapshot for a room id.
func (s *Store) Get(roomID string) (*RoomRecord, error) {
	return s.read(roomID)
}

func (s *Store) read(key string) (*RoomRecord, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read record %s: %w", key, err)
	}
	var rec RoomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	return &rec, nil
}

// Delete removes a room's live snapshot. Missing records are not an error.
func (s *Store) Delete(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(roomID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete record %s: %w", roomID, err)
	}
	return nil
}

// List returns every persisted record, live and archived. Unreadable files
// are skipped with a warning rather than failing the listing.
func (s *Store) List() ([]RoomRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", s.dir).Msg("list records failed, treating store as empty")
		return nil, nil
	}
	records := make([]RoomRecord, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		rec, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("skipping unreadable record")
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// HistoryMode selects how player-name filters match.
type HistoryMode string

const (
	HistoryExact    HistoryMode = "exact"
	HistoryContains HistoryMode = "contains"
)

type HistoryFilter struct {
	Players []string
	Limit   int
	Mode    HistoryMode
}

// History returns finished-match records, newest first. When Players is set,
// a record matches only if every requested name matches some participant
// (exact or substring per Mode, case-insensitive).
func (s *Store) History(filter HistoryFilter) ([]RoomRecord, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	matches := make([]RoomRecord, 0, len(records))
	for _, rec := range records {
		if rec.FinishedAt == nil {
			continue
		}
		if !matchesPlayers(rec, filter) {
			continue
		}
		matches = append(matches, rec)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].FinishedAt.After(*matches[j].FinishedAt)
	})
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, nil
}

func matchesPlayers(rec RoomRecord, filter HistoryFilter) bool {
	if len(filter.Players) == 0 {
		return true
	}
	participants := make([]string, 0, len(rec.Scores))
	for name := range rec.Scores {
		participants = append(participants, strings.ToLower(name))
	}
	for _, want := range filter.Players {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		found := false
		for _, have := range participants {
			if filter.Mode == HistoryContains {
				found = strings.Contains(have, want)
			} else {
				found = have == want
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
