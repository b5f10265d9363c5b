package api

import (
	"sync"
	"time"
)

// Entry is one recorded gateway call
type Entry struct {
	At       time.Time
	Method   string
	Path     string
	Outcome  string
	Detail   string
	Duration time.Duration
}

// History is a bounded, concurrency-safe log of gateway calls.
// Calls are recorded from command goroutines and read from the UI loop.
type History struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
}

// DefaultHistoryLimit bounds the request log
const DefaultHistoryLimit = 200

// NewHistory creates a log holding at most limit entries
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Add appends an entry, evicting the oldest when full
func (h *History) Add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]Entry(nil), h.entries[over:]...)
	}
}

// Entries returns a snapshot, newest last
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of recorded entries
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
