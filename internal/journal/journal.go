package journal

import (
	"sync"
	"time"
)

// Kind classifies an interaction record.
type Kind string

const (
	KindCommand     Kind = "command"
	KindMessage     Kind = "message"
	KindBotResponse Kind = "bot_response"
)

// Record is a single append-only interaction entry. Records are never
// mutated after Append; the only deletion path is ClearForUser.
type Record struct {
	UserID    int64     `json:"user_id"`
	Kind      Kind      `json:"type"`
	Content   string    `json:"content"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink mirrors appended records to an external destination (e.g. a
// JSONL file). Sink errors never fail the in-memory append.
type Sink interface {
	AppendInteraction(rec Record) error
}

// Log is the in-memory interaction log, scoped to process lifetime.
// Retention is a constructor choice: maxEntries == 0 keeps everything,
// otherwise only the newest maxEntries records survive.
type Log struct {
	mu         sync.RWMutex
	records    []Record
	maxEntries int
	sink       Sink
}

func New(maxEntries int) *Log {
	return &Log{maxEntries: maxEntries}
}

// SetSink attaches an external sink. Call before the log is in use.
func (l *Log) SetSink(s Sink) { l.sink = s }

// Append adds a record, stamping it with the current time when the
// caller left Timestamp zero.
func (l *Log) Append(rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	l.mu.Lock()
	l.records = append(l.records, rec)
	if l.maxEntries > 0 && len(l.records) > l.maxEntries {
		l.records = l.records[len(l.records)-l.maxEntries:]
	}
	sink := l.sink
	l.mu.Unlock()
	if sink != nil {
		_ = sink.AppendInteraction(rec)
	}
}

// Tail returns the last n records in chronological order. When n
// exceeds the log length the whole log is returned.
func (l *Log) Tail(n int) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n > len(l.records) {
		n = len(l.records)
	}
	out := make([]Record, n)
	copy(out, l.records[len(l.records)-n:])
	return out
}

// FilterByUser returns all records for userID in original order.
func (l *Log) FilterByUser(userID int64) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Record
	for _, rec := range l.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

// ClearForUser removes all records for userID; other users' records
// keep their relative order.
func (l *Log) ClearForUser(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.records[:0]
	for _, rec := range l.records {
		if rec.UserID != userID {
			kept = append(kept, rec)
		}
	}
	l.records = kept
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// All returns a copy of the whole log in chronological order.
func (l *Log) All() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}
