// Package eventlog keeps a bounded in-memory record of recently received
// webhook events plus unbounded per-event-name counters. It is a debugging
// aid, not a system of record: contents are lost on restart.
package eventlog

import (
	"sync"
	"time"

	"github.com/truongvinhkhuong/zalo-webhook-go/internal/event"
)

// DefaultCapacity is the ring buffer size for recent entries.
const DefaultCapacity = 100

// Entry is one recorded event.
type Entry struct {
	ReceivedAt time.Time    `json:"received_at"`
	EventName  string       `json:"event_name"`
	UserID     string       `json:"user_id"`
	AppID      string       `json:"app_id"`
	Event      *event.Event `json:"event"`
}

// Stat aggregates receipts of one event name.
type Stat struct {
	Count        int       `json:"count"`
	LastReceived time.Time `json:"last_received"`
}

// Log is a fixed-capacity FIFO ring of entries with a side map of
// per-event-name stats. The ring evicts oldest-first regardless of event
// type; the stats map is never evicted. One mutex guards both.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	size    int
	stats   map[string]Stat
}

// New creates a Log with the given ring capacity (DefaultCapacity if
// non-positive).
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries: make([]Entry, capacity),
		stats:   make(map[string]Stat),
	}
}

// Record appends an entry for ev and bumps its event-name counter. When the
// ring is full the oldest entry is dropped.
func (l *Log) Record(ev *event.Event, receivedAt time.Time) Entry {
	e := Entry{
		ReceivedAt: receivedAt,
		EventName:  ev.EventName,
		UserID:     ev.UserIDByApp,
		AppID:      ev.AppID,
		Event:      ev,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size < len(l.entries) {
		l.entries[(l.start+l.size)%len(l.entries)] = e
		l.size++
	} else {
		l.entries[l.start] = e
		l.start = (l.start + 1) % len(l.entries)
	}

	s := l.stats[ev.EventName]
	s.Count++
	s.LastReceived = receivedAt
	l.stats[ev.EventName] = s

	return e
}

// Recent returns up to limit entries in insertion order, most recent last.
func (l *Log) Recent(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := l.size - n; i < l.size; i++ {
		out = append(out, l.entries[(l.start+i)%len(l.entries)])
	}
	return out
}

// Len returns the number of buffered entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Statistics returns a snapshot of the per-event-name counters.
func (l *Log) Statistics() map[string]Stat {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]Stat, len(l.stats))
	for name, s := range l.stats {
		out[name] = s
	}
	return out
}
