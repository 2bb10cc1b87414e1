package session

import (
	"sync"
	"time"
)

// Record holds per-user bookkeeping for the lifetime of the process.
// A record exists only for users that triggered at least one handled
// command or message since startup.
type Record struct {
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	ChatID       int64     `json:"chat_id"`
	MessageCount int       `json:"message_count"`
	LastSeen     time.Time `json:"last_seen"`
}

// Fields is a partial Record for Upsert. Nil pointers mean "keep the
// current value"; supplied fields win over stored ones.
type Fields struct {
	Username     *string
	FirstName    *string
	LastName     *string
	ChatID       *int64
	MessageCount *int
	LastSeen     *time.Time
}

// Store keeps session records keyed by user ID. Insertion order is
// tracked so that iteration (and therefore tie-breaks in stats) is
// first-inserted-wins rather than map-order accidental.
type Store struct {
	mu      sync.RWMutex
	records map[int64]Record
	order   []int64
}

func NewStore() *Store {
	return &Store{records: make(map[int64]Record)}
}

// Upsert creates the record if absent, otherwise merges the supplied
// fields into it. Fields not supplied keep their stored value.
func (s *Store) Upsert(userID int64, f Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		s.order = append(s.order, userID)
	}
	if f.Username != nil {
		rec.Username = *f.Username
	}
	if f.FirstName != nil {
		rec.FirstName = *f.FirstName
	}
	if f.LastName != nil {
		rec.LastName = *f.LastName
	}
	if f.ChatID != nil {
		rec.ChatID = *f.ChatID
	}
	if f.MessageCount != nil {
		rec.MessageCount = *f.MessageCount
	}
	if f.LastSeen != nil {
		rec.LastSeen = *f.LastSeen
	}
	s.records[userID] = rec
}

// Get returns the record for userID. Absent is a valid, non-error result.
func (s *Store) Get(userID int64) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	return rec, ok
}

// IncrementMessageCount bumps the counter and refreshes LastSeen for an
// existing record. Users never seen via /start are not tracked, so this
// is a no-op when no record exists.
func (s *Store) IncrementMessageCount(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return
	}
	rec.MessageCount++
	rec.LastSeen = time.Now()
	s.records[userID] = rec
}

// ResetMessageCount zeroes the counter for an existing record.
func (s *Store) ResetMessageCount(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return
	}
	rec.MessageCount = 0
	s.records[userID] = rec
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// UserIDs returns all known user IDs in insertion order.
func (s *Store) UserIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, len(s.order))
	copy(out, s.order)
	return out
}

// Ptr helpers for building Fields literals.
func String(v string) *string { return &v }
func Int(v int) *int { return &v }
func Int64(v int64) *int64 { return &v }
func Time(v time.Time) *time.Time { return &v }
